// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/scope"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler renders the landing page inside a selected organization.
type Handler struct {
	Log   *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Orgs  *organizationstore.Store
	Depts *departmentstore.Store
	Users *userstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		ErrLog: errLog,
		Orgs:   organizationstore.New(db),
		Depts:  departmentstore.New(db),
		Users:  userstore.New(db),
	}
}

type dashboardData struct {
	viewdata.BaseVM
	Org         models.Organization
	Selection   models.OrganizationSelection
	IsOrgAdmin  bool
	MemberCount int64
	DeptCount   int64
	Departments []models.DepartmentRef
}

// ServeDashboard handles GET /dashboard. The scope gate guarantees a
// selection is present by the time this runs.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	sel, ok := scope.Selection(r)
	if !ok {
		http.Redirect(w, r, "/select-organization", http.StatusSeeOther)
		return
	}

	orgID, err := primitive.ObjectIDFromHex(sel.ID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad selection org id", err, "Invalid organization selection.", "/select-organization")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, orgID)
	if err == mongo.ErrNoDocuments {
		// The organization was deleted out from under the cookie.
		http.Redirect(w, r, "/select-organization", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization", err, "A server error occurred.", "/select-organization")
		return
	}

	memberCount, err := h.Users.CountByOrganization(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count members", err, "A server error occurred.", "/select-organization")
		return
	}
	deptCount, err := h.Depts.CountByOrganization(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count departments", err, "A server error occurred.", "/select-organization")
		return
	}

	templates.Render(w, r, "dashboard", dashboardData{
		BaseVM:      viewdata.NewBaseVM(w, r, "Dashboard", "/"),
		Org:         org,
		Selection:   sel,
		IsOrgAdmin:  sel.Role == models.SelectionRoleAdmin,
		MemberCount: memberCount,
		DeptCount:   deptCount,
		Departments: sel.Departments,
	})
}
