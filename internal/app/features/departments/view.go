// internal/app/features/departments/view.go
package departments

import (
	"net/http"
	"strconv"

	"github.com/fiscora/fiscora/internal/app/policy/deptpolicy"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
)

// ServeView handles GET /organizations/{id}/departments/{deptID}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := shortCtx(r)
	defer cancel()

	org, ok := h.orgFromRoute(w, r, ctx)
	if !ok {
		return
	}
	dept, ok := h.deptFromRoute(w, r, ctx, org)
	if !ok {
		return
	}
	if !deptpolicy.CanViewDepartment(r, org.ID, dept.ID) {
		h.ErrLog.LogBadRequest(w, r, "view department without access", nil,
			"You do not have access to that department.", h.basePath(org))
		return
	}

	var members []memberOption
	if len(dept.MemberIDs) > 0 {
		users, err := h.Users.Find(ctx, bson.M{"_id": bson.M{"$in": dept.MemberIDs}})
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load department members", err, "Unable to load department.", h.basePath(org))
			return
		}
		for _, u := range users {
			members = append(members, memberOption{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email})
		}
	}

	budget := ""
	if dept.BudgetLimit != nil {
		budget = strconv.FormatInt(*dept.BudgetLimit, 10)
	}

	managerName := h.managerName(ctx, dept.ManagerID)

	templates.Render(w, r, "department_view", viewPageData{
		BaseVM:      viewdata.NewBaseVM(w, r, dept.Name, h.basePath(org)),
		Org:         org,
		Dept:        dept,
		ManagerName: managerName,
		Members:     members,
		BudgetLimit: budget,
		CanEdit:     deptpolicy.CanEditDepartment(r, org.ID, dept.ID),
		CanManage:   deptpolicy.CanManageDepartment(r, org.ID, dept.ID),
	})
}
