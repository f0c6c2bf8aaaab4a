// internal/app/features/organizations/handler.go
package organizations

import (
	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for organization management.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Flash  *flash.Store
	Orgs   *organizationstore.Store
	Depts  *departmentstore.Store
	Users  *userstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, flashStore *flash.Store, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
		Flash:  flashStore,
		Orgs:   organizationstore.New(db),
		Depts:  departmentstore.New(db),
		Users:  userstore.New(db),
	}
}
