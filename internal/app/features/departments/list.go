// internal/app/features/departments/list.go
package departments

import (
	"net/http"

	"github.com/fiscora/fiscora/internal/app/policy/deptpolicy"
	"github.com/fiscora/fiscora/internal/app/policy/orgpolicy"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeList handles GET /organizations/{id}/departments.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := shortCtx(r)
	defer cancel()

	org, ok := h.orgFromRoute(w, r, ctx)
	if !ok {
		return
	}

	if !orgpolicy.CanViewOrganization(r, org.ID) {
		h.ErrLog.LogBadRequest(w, r, "list departments without access", nil,
			"You do not have access to that organization.", "/organizations")
		return
	}

	depts, err := h.Depts.ListByOrganization(ctx, org.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list departments", err, "Unable to load departments.", "/organizations")
		return
	}

	rows := make([]listRow, 0, len(depts))
	for _, d := range depts {
		rows = append(rows, listRow{
			ID:          d.ID.Hex(),
			Name:        d.Name,
			Description: d.Description,
			ManagerName: h.managerName(ctx, d.ManagerID),
			Members:     len(d.MemberIDs),
			CanEdit:     deptpolicy.CanEditDepartment(r, org.ID, d.ID),
		})
	}

	templates.Render(w, r, "departments_list", listData{
		BaseVM:    viewdata.NewBaseVM(w, r, org.Name+" Departments", "/organizations/"+org.ID.Hex()),
		Org:       org,
		Rows:      rows,
		CanCreate: deptpolicy.CanCreateDepartment(r, org.ID),
	})
}
