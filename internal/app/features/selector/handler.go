// internal/app/features/selector/handler.go
package selector

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/app/system/scope"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler drives the organization picker: choosing which organization
// the rest of the console operates on.
type Handler struct {
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
	Flash     *flash.Store
	Scope     *scope.Service
	Selection *scope.SelectionStore
	Orgs      *organizationstore.Store
	Users     *userstore.Store
}

func NewHandler(
	db *mongo.Database,
	scopeSvc *scope.Service,
	selection *scope.SelectionStore,
	errLog *uierrors.ErrorLogger,
	flashStore *flash.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:       logger,
		ErrLog:    errLog,
		Flash:     flashStore,
		Scope:     scopeSvc,
		Selection: selection,
		Orgs:      organizationstore.New(db),
		Users:     userstore.New(db),
	}
}

type pickerData struct {
	viewdata.BaseVM
	Error      string
	Available  []models.OrganizationSelection
	SelectedID string
	NewOrgName string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /select-organization                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServePicker(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	available, err := h.Scope.Available(ctx, u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list available organizations", err,
			"A server error occurred.", "/dashboard")
		return
	}

	selectedID := ""
	if sel, ok := h.Selection.Restore(r, available); ok {
		selectedID = sel.ID
	}

	templates.Render(w, r, "selector", pickerData{
		BaseVM:     viewdata.NewBaseVM(w, r, "Choose Organization", "/dashboard"),
		Available:  available,
		SelectedID: selectedID,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /select-organization                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/select-organization")
		return
	}

	u, _ := auth.CurrentUser(r)
	orgID := r.FormValue("org_id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	available, err := h.Scope.Available(ctx, u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list available organizations", err,
			"A server error occurred.", "/select-organization")
		return
	}

	// Only an organization from the caller's own list can be chosen.
	var chosen *models.OrganizationSelection
	for i := range available {
		if available[i].ID == orgID {
			chosen = &available[i]
			break
		}
	}
	if chosen == nil {
		h.renderPickerWithError(w, r, "That organization is not available to you.", available, "")
		return
	}

	if err := h.Selection.Save(w, *chosen); err != nil {
		h.ErrLog.LogServerError(w, r, "persist organization selection", err,
			"A server error occurred.", "/select-organization")
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /select-organization/clear                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.Selection.Clear(w)
	http.Redirect(w, r, "/select-organization", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /select-organization/new                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate lets any signed-in user start a new organization. The
// creator becomes its first admin; their account role is untouched.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/select-organization")
		return
	}

	u, _ := auth.CurrentUser(r)
	name := strings.TrimSpace(r.FormValue("name"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if name == "" {
		h.renderCreateError(w, r, ctx, u, "Please enter an organization name.", name)
		return
	}

	creatorID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad session user id", err, "Invalid session.", "/login")
		return
	}

	org, err := h.Orgs.Create(ctx, models.Organization{Name: name}, creatorID)
	switch {
	case errors.Is(err, organizationstore.ErrDuplicateOrganization):
		h.renderCreateError(w, r, ctx, u, "An organization with that name already exists.", name)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create organization", err,
			"A server error occurred.", "/select-organization")
		return
	}

	if err := h.Users.AddOrganization(ctx, creatorID, org.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "add creator to organization", err,
			"A server error occurred.", "/select-organization")
		return
	}

	h.Log.Info("organization created from picker",
		zap.String("org_id", org.ID.Hex()),
		zap.String("created_by", u.ID))

	sel := models.OrganizationSelection{ID: org.ID.Hex(), Name: org.Name, Role: models.SelectionRoleAdmin}
	if err := h.Selection.Save(w, sel); err != nil {
		h.Log.Warn("persist selection after create failed", zap.Error(err))
	}

	h.Flash.Success(w, r, "Organization \""+org.Name+"\" created.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderCreateError(w http.ResponseWriter, r *http.Request, ctx context.Context, u *auth.SessionUser, msg, name string) {
	available, err := h.Scope.Available(ctx, u)
	if err != nil {
		h.Log.Warn("list available organizations", zap.Error(err))
	}
	h.renderPickerWithError(w, r, msg, available, name)
}

func (h *Handler) renderPickerWithError(w http.ResponseWriter, r *http.Request, msg string, available []models.OrganizationSelection, newOrgName string) {
	templates.Render(w, r, "selector", pickerData{
		BaseVM:     viewdata.NewBaseVM(w, r, "Choose Organization", "/dashboard"),
		Error:      msg,
		Available:  available,
		NewOrgName: newOrgName,
	})
}
