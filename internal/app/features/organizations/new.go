// internal/app/features/organizations/new.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	"github.com/fiscora/fiscora/internal/app/policy/orgpolicy"
	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/formutil"
	"github.com/fiscora/fiscora/internal/app/system/htmlsanitize"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ServeNew renders the "New Organization" form. Management-area creation
// is app-admin only; routes.go enforces it.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	var data newData
	formutil.SetBase(&data.Base, r, "New Organization", "/organizations")
	templates.Render(w, r, "organization_new", data)
}

// HandleCreate processes the New Organization form submission.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/organizations")
		return
	}

	if !orgpolicy.CanCreateOrganization(r) {
		h.ErrLog.LogBadRequest(w, r, "create organization without permission", nil,
			"You do not have permission to create organizations.", "/organizations")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := htmlsanitize.Plain(r.FormValue("description"))
	country := htmlsanitize.Plain(r.FormValue("country"))
	currency := strings.TrimSpace(r.FormValue("currency"))

	renderWithError := func(msg string) {
		data := newData{
			Name:        name,
			Description: description,
			Country:     country,
			Currency:    currency,
		}
		formutil.SetBase(&data.Base, r, "New Organization", "/organizations")
		data.SetError(msg)
		templates.Render(w, r, "organization_new", data)
	}

	if name == "" {
		renderWithError("Please enter an organization name.")
		return
	}

	_, _, creatorID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Orgs.Create(ctx, models.Organization{
		Name:        name,
		Description: description,
		Country:     country,
		Currency:    currency,
	}, creatorID)
	switch {
	case errors.Is(err, organizationstore.ErrDuplicateOrganization):
		renderWithError("An organization with that name already exists.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create organization", err,
			"Database error while creating organization.", "/organizations")
		return
	}

	if err := h.Users.AddOrganization(ctx, creatorID, org.ID); err != nil {
		h.Log.Warn("add creator membership failed",
			zap.Error(err), zap.String("org_id", org.ID.Hex()))
	}

	h.Flash.Success(w, r, "Organization \""+org.Name+"\" created.")
	http.Redirect(w, r, "/organizations", http.StatusSeeOther)
}
