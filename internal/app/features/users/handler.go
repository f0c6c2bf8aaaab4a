// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/policy/userpolicy"
	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for account management.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Flash  *flash.Store
	Users  *userstore.Store
	Orgs   *organizationstore.Store
	Depts  *departmentstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, flashStore *flash.Store, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
		Flash:  flashStore,
		Users:  userstore.New(db),
		Orgs:   organizationstore.New(db),
		Depts:  departmentstore.New(db),
	}
}

// targetFromRoute loads the {userID} account and verifies the caller may
// manage it.
func (h *Handler) targetFromRoute(w http.ResponseWriter, r *http.Request, ctx context.Context) (*models.User, bool) {
	idHex := chi.URLParam(r, "userID")
	uid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad user id", err, "Invalid user.", "/users")
		return nil, false
	}

	target, err := h.Users.GetByID(ctx, uid)
	if err == mongo.ErrNoDocuments {
		h.Flash.Error(w, r, "That account no longer exists.")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user", err, "Unable to load user.", "/users")
		return nil, false
	}

	if !userpolicy.CanManageUser(r, target) {
		h.ErrLog.LogBadRequest(w, r, "manage user without permission", nil,
			"You do not have permission to manage that account.", "/users")
		return nil, false
	}
	return target, true
}

// assignableOrgs returns the organizations the caller may attach accounts
// to: all of them for app admins, their own for org admins.
func (h *Handler) assignableOrgs(ctx context.Context, r *http.Request) ([]models.Organization, error) {
	if authz.IsAppAdmin(r) {
		return h.Orgs.All(ctx)
	}
	orgIDs := authz.UserOrgIDs(r)
	if len(orgIDs) == 0 {
		return nil, nil
	}
	return h.Orgs.Find(ctx, bson.M{"_id": bson.M{"$in": orgIDs}})
}
