// internal/app/features/organizations/edit.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	"github.com/fiscora/fiscora/internal/app/policy/orgpolicy"
	"github.com/fiscora/fiscora/internal/app/system/formutil"
	"github.com/fiscora/fiscora/internal/app/system/htmlsanitize"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeEdit handles GET /organizations/{id}/edit.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	oid, ok := h.manageableOrg(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		h.Flash.Error(w, r, "That organization no longer exists.")
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization", err, "Unable to load organization.", "/organizations")
		return
	}

	data := editData{
		ID:              org.ID.Hex(),
		Name:            org.Name,
		Description:     org.Description,
		Country:         org.Country,
		Currency:        org.Currency,
		FiscalYearStart: org.Settings.FiscalYearStart,
		ApprovalWF:      org.Settings.ApprovalWorkflow,
		MultiCurrency:   org.Settings.MultiCurrency,
		Compliance:      org.Settings.ComplianceReporting,
	}
	formutil.SetBase(&data.Base, r, "Edit Organization", "/organizations/"+org.ID.Hex())
	templates.Render(w, r, "organization_edit", data)
}

// HandleEdit handles POST /organizations/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/organizations")
		return
	}

	oid, ok := h.manageableOrg(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := htmlsanitize.Plain(r.FormValue("description"))
	country := htmlsanitize.Plain(r.FormValue("country"))
	currency := strings.TrimSpace(r.FormValue("currency"))
	fiscalStart := strings.TrimSpace(r.FormValue("fiscal_year_start"))

	renderWithError := func(msg string) {
		data := editData{
			ID:              oid.Hex(),
			Name:            name,
			Description:     description,
			Country:         country,
			Currency:        currency,
			FiscalYearStart: fiscalStart,
			ApprovalWF:      r.FormValue("approval_workflow") == "on",
			MultiCurrency:   r.FormValue("multi_currency") == "on",
			Compliance:      r.FormValue("compliance_reporting") == "on",
		}
		formutil.SetBase(&data.Base, r, "Edit Organization", "/organizations/"+oid.Hex())
		data.SetError(msg)
		templates.Render(w, r, "organization_edit", data)
	}

	if name == "" {
		renderWithError("Please enter an organization name.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Orgs.Update(ctx, oid, models.Organization{
		Name:        name,
		Description: description,
		Country:     country,
		Currency:    currency,
		Settings: models.OrganizationSettings{
			FiscalYearStart:     fiscalStart,
			ApprovalWorkflow:    r.FormValue("approval_workflow") == "on",
			MultiCurrency:       r.FormValue("multi_currency") == "on",
			ComplianceReporting: r.FormValue("compliance_reporting") == "on",
		},
	})
	switch {
	case errors.Is(err, organizationstore.ErrDuplicateOrganization):
		renderWithError("An organization with that name already exists.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update organization", err,
			"Database error while saving organization.", "/organizations")
		return
	}

	h.Flash.Success(w, r, "Organization updated.")
	http.Redirect(w, r, "/organizations/"+oid.Hex(), http.StatusSeeOther)
}

// manageableOrg parses {id} and checks manage permission, writing the
// error response itself when either fails.
func (h *Handler) manageableOrg(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	idHex := chi.URLParam(r, "id")
	oid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad organization id", err, "Invalid organization.", "/organizations")
		return primitive.NilObjectID, false
	}
	if !orgpolicy.CanManageOrganization(r, oid) {
		h.ErrLog.LogBadRequest(w, r, "manage organization without permission", nil,
			"You do not have permission to manage that organization.", "/organizations")
		return primitive.NilObjectID, false
	}
	return oid, true
}
