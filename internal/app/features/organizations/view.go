// internal/app/features/organizations/view.go
package organizations

import (
	"context"
	"net/http"

	"github.com/fiscora/fiscora/internal/app/policy/orgpolicy"
	"github.com/fiscora/fiscora/internal/app/system/orgutil"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeView handles GET /organizations/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	oid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad organization id", err, "Invalid organization.", "/organizations")
		return
	}

	if !orgpolicy.CanViewOrganization(r, oid) {
		h.ErrLog.LogBadRequest(w, r, "view organization without access", nil,
			"You do not have access to that organization.", "/organizations")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
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

	counts, err := orgutil.CountsForOrganizations(ctx, h.DB, []primitive.ObjectID{oid})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "aggregate organization counts", err, "Unable to load organization.", "/organizations")
		return
	}

	depts, err := h.Depts.ListByOrganization(ctx, oid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list departments", err, "Unable to load organization.", "/organizations")
		return
	}

	adminNames, err := h.adminNames(ctx, org.AdminIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load admin names", err, "Unable to load organization.", "/organizations")
		return
	}

	c := counts[oid]
	templates.Render(w, r, "organization_view", viewData{
		BaseVM:      viewdata.NewBaseVM(w, r, org.Name, "/organizations"),
		Org:         org,
		Counts:      countsRow{Members: c.Members, Admins: c.Admins, Departments: c.Departments},
		Departments: depts,
		AdminNames:  adminNames,
		CanManage:   orgpolicy.CanManageOrganization(r, oid),
	})
}

func (h *Handler) adminNames(ctx context.Context, adminIDs []primitive.ObjectID) ([]string, error) {
	if len(adminIDs) == 0 {
		return nil, nil
	}
	admins, err := h.Users.Find(ctx, bson.M{"_id": bson.M{"$in": adminIDs}})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(admins))
	for _, a := range admins {
		names = append(names, a.FullName)
	}
	return names, nil
}
