// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"

	"github.com/fiscora/fiscora/internal/app/policy/userpolicy"
	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /users (with optional ?q= search). App admins
// see every account; org admins see accounts in their organizations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope := userpolicy.CanListUsers(r)
	if !scope.CanList {
		h.ErrLog.LogBadRequest(w, r, "list users without permission", nil,
			"You do not have permission to manage accounts.", "/dashboard")
		return
	}

	q := query.Search(r, "q")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := bson.M{}
	if !scope.AllOrgs {
		filter["organization_ids"] = bson.M{"$in": scope.OrgIDs}
	}
	if fq := text.Fold(q); fq != "" {
		filter["full_name_ci"] = bson.M{"$gte": fq, "$lt": fq + "￿"}
	}

	users, err := h.Users.Find(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find users", err, "Unable to load accounts.", "/dashboard")
		return
	}

	// Resolve the organization names shown per row in one query.
	orgIDSet := map[primitive.ObjectID]struct{}{}
	for _, u := range users {
		for _, id := range u.OrganizationIDs {
			orgIDSet[id] = struct{}{}
		}
	}
	orgIDs := make([]primitive.ObjectID, 0, len(orgIDSet))
	for id := range orgIDSet {
		orgIDs = append(orgIDs, id)
	}
	orgNames, err := h.Orgs.NamesByIDs(ctx, orgIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve organization names", err, "Unable to load accounts.", "/dashboard")
		return
	}

	rows := make([]listRow, 0, len(users))
	for i := range users {
		u := &users[i]
		names := make([]string, 0, len(u.OrganizationIDs))
		for _, id := range u.OrganizationIDs {
			if name, ok := orgNames[id]; ok {
				names = append(names, name)
			} else {
				// Dangling reference to a deleted organization.
				names = append(names, "Unknown")
			}
		}
		lastLogin := ""
		if u.LastLoginAt != nil {
			lastLogin = u.LastLoginAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, listRow{
			ID:        u.ID.Hex(),
			FullName:  u.FullName,
			Email:     u.Email,
			Role:      u.Role,
			Status:    u.Status,
			OrgNames:  names,
			LastLogin: lastLogin,
			CanManage: userpolicy.CanManageUser(r, u),
		})
	}

	templates.Render(w, r, "users_list", listData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Accounts", "/dashboard"),
		Q:         q,
		Rows:      rows,
		Total:     int64(len(rows)),
		CanCreate: authz.CanCreateUsers(r),
	})
}
