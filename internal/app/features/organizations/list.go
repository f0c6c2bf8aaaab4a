// internal/app/features/organizations/list.go
package organizations

import (
	"context"
	"net/http"

	"github.com/fiscora/fiscora/internal/app/policy/orgpolicy"
	"github.com/fiscora/fiscora/internal/app/system/orgutil"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /organizations (with optional ?q= search).
// App admins see every organization; everyone else sees the ones they
// belong to.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope := orgpolicy.CanListOrganizations(r)
	if !scope.CanList {
		templates.Render(w, r, "organizations_list", listData{
			BaseVM: viewdata.NewBaseVM(w, r, "Organizations", "/dashboard"),
		})
		return
	}

	q := query.Search(r, "q")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := bson.M{}
	if !scope.AllOrgs {
		filter["_id"] = bson.M{"$in": scope.OrgIDs}
	}
	if fq := text.Fold(q); fq != "" {
		filter["name_ci"] = bson.M{"$gte": fq, "$lt": fq + "￿"}
	}

	orgs, err := h.Orgs.Find(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find organizations", err, "Unable to load organizations.", "/dashboard")
		return
	}

	orgIDs := make([]primitive.ObjectID, 0, len(orgs))
	for _, o := range orgs {
		orgIDs = append(orgIDs, o.ID)
	}

	counts, err := orgutil.CountsForOrganizations(ctx, h.DB, orgIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "aggregate organization counts", err, "Unable to load organization data.", "/dashboard")
		return
	}

	items := make([]listItem, 0, len(orgs))
	for _, o := range orgs {
		c := counts[o.ID]
		items = append(items, listItem{
			ID:          o.ID,
			Name:        o.Name,
			Country:     o.Country,
			Plan:        o.Subscription.Plan,
			Members:     c.Members,
			Admins:      c.Admins,
			Departments: c.Departments,
			CanManage:   orgpolicy.CanManageOrganization(r, o.ID),
		})
	}

	templates.Render(w, r, "organizations_list", listData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Organizations", "/dashboard"),
		Q:         q,
		Items:     items,
		Total:     int64(len(items)),
		CanCreate: orgpolicy.CanCreateOrganization(r),
	})
}
