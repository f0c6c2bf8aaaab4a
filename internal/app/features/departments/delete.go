// internal/app/features/departments/delete.go
package departments

import (
	"net/http"

	"github.com/fiscora/fiscora/internal/app/policy/deptpolicy"
	"go.uber.org/zap"
)

// HandleDelete handles POST /organizations/{id}/departments/{deptID}/delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
	if !deptpolicy.CanManageDepartment(r, org.ID, dept.ID) {
		h.ErrLog.LogBadRequest(w, r, "delete department without permission", nil,
			"You do not have permission to delete that department.", h.basePath(org))
		return
	}

	deleted, err := h.Depts.Delete(ctx, dept.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete department", err,
			"Database error while deleting department.", h.basePath(org))
		return
	}
	if deleted == 0 {
		h.Log.Info("department delete: no document found", zap.String("dept_id", dept.ID.Hex()))
	} else {
		if err := h.Users.RemoveDepartmentEverywhere(ctx, dept.ID); err != nil {
			h.Log.Warn("remove department assignments failed",
				zap.Error(err), zap.String("dept_id", dept.ID.Hex()))
		}
		h.Log.Info("department deleted",
			zap.String("dept_id", dept.ID.Hex()),
			zap.String("org_id", org.ID.Hex()))
		h.Flash.Success(w, r, "Department \""+dept.Name+"\" deleted.")
	}

	http.Redirect(w, r, h.basePath(org), http.StatusSeeOther)
}
