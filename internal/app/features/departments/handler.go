// internal/app/features/departments/handler.go
package departments

import (
	"context"
	"net/http"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages departments within one organization. All routes are
// nested under /organizations/{id}/departments.
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

// orgFromRoute loads the {id} organization, writing the error response
// itself when the id is malformed or the organization is gone.
func (h *Handler) orgFromRoute(w http.ResponseWriter, r *http.Request, ctx context.Context) (models.Organization, bool) {
	idHex := chi.URLParam(r, "id")
	oid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad organization id", err, "Invalid organization.", "/organizations")
		return models.Organization{}, false
	}

	org, err := h.Orgs.GetByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		h.Flash.Error(w, r, "That organization no longer exists.")
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return models.Organization{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization", err, "Unable to load organization.", "/organizations")
		return models.Organization{}, false
	}
	return org, true
}

// deptFromRoute loads the {deptID} department and verifies it belongs to
// org.
func (h *Handler) deptFromRoute(w http.ResponseWriter, r *http.Request, ctx context.Context, org models.Organization) (models.Department, bool) {
	idHex := chi.URLParam(r, "deptID")
	did, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad department id", err, "Invalid department.", h.basePath(org))
		return models.Department{}, false
	}

	dept, err := h.Depts.GetByID(ctx, did)
	if err == mongo.ErrNoDocuments || (err == nil && dept.OrganizationID != org.ID) {
		h.Flash.Error(w, r, "That department no longer exists.")
		http.Redirect(w, r, h.basePath(org), http.StatusSeeOther)
		return models.Department{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load department", err, "Unable to load department.", h.basePath(org))
		return models.Department{}, false
	}
	return dept, true
}

func (h *Handler) basePath(org models.Organization) string {
	return "/organizations/" + org.ID.Hex() + "/departments"
}

// memberOptions loads the organization's members as picker options.
func (h *Handler) memberOptions(ctx context.Context, org models.Organization) ([]memberOption, error) {
	if len(org.MemberIDs) == 0 {
		return nil, nil
	}
	users, err := h.Users.Find(ctx, bson.M{"_id": bson.M{"$in": org.MemberIDs}})
	if err != nil {
		return nil, err
	}
	opts := make([]memberOption, 0, len(users))
	for _, u := range users {
		opts = append(opts, memberOption{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email})
	}
	return opts, nil
}

// managerName resolves a manager id to a display name; a dangling or
// unset reference reads as "Unknown".
func (h *Handler) managerName(ctx context.Context, managerID primitive.ObjectID) string {
	if managerID.IsZero() {
		return ""
	}
	u, err := h.Users.GetByID(ctx, managerID)
	if err != nil {
		return "Unknown"
	}
	return u.FullName
}

// shortTimeout is a convenience wrapper shared by the handlers.
func shortCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Medium())
}
