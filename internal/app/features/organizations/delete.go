// internal/app/features/organizations/delete.go
package organizations

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDelete handles POST /organizations/{id}/delete.
//
// Deletion is deliberately not cascaded: departments and user
// memberships keep their references, which the available-organizations
// computation skips as dangling. The leftover counts are logged and
// surfaced so an operator can clean up intentionally.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	oid, ok := h.manageableOrg(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Orgs.Delete(ctx, oid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete organization", err,
			"Database error while deleting organization.", "/organizations")
		return
	}
	if deleted == 0 {
		h.Log.Info("organization delete: no document found", zap.String("org_id", oid.Hex()))
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}

	userRefs, err := h.Users.CountByOrganization(ctx, oid)
	if err != nil {
		h.Log.Warn("count remaining user references", zap.Error(err), zap.String("org_id", oid.Hex()))
	}
	deptRefs, err := h.Depts.CountByOrganization(ctx, oid)
	if err != nil {
		h.Log.Warn("count remaining department references", zap.Error(err), zap.String("org_id", oid.Hex()))
	}

	h.Log.Info("organization deleted",
		zap.String("org_id", oid.Hex()),
		zap.Int64("remaining_user_refs", userRefs),
		zap.Int64("remaining_department_refs", deptRefs))

	if userRefs > 0 || deptRefs > 0 {
		h.Flash.Success(w, r, fmt.Sprintf(
			"Organization deleted. %d member reference(s) and %d department(s) still point at it.",
			userRefs, deptRefs))
	} else {
		h.Flash.Success(w, r, "Organization deleted.")
	}

	http.Redirect(w, r, "/organizations", http.StatusSeeOther)
}
