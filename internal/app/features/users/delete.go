// internal/app/features/users/delete.go
package users

import (
	"context"
	"net/http"

	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDelete handles POST /users/{userID}/delete. The account document
// is removed and the target is pulled out of every organization member,
// organization admin, and department member list so no list keeps a
// dangling reference.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	target, ok := h.targetFromRoute(w, r, ctx)
	if !ok {
		return
	}

	_, _, callerID, _ := authz.UserCtx(r)
	if target.ID == callerID {
		h.Flash.Error(w, r, "You cannot delete your own account.")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	deleted, err := h.Users.Delete(ctx, target.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete user", err, "Unable to delete account.", "/users")
		return
	}
	if deleted == 0 {
		// Already gone, nothing left to clean up.
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	for _, orgID := range target.OrganizationIDs {
		if err := h.Orgs.RemoveMember(ctx, orgID, target.ID); err != nil {
			h.Log.Warn("remove deleted user from organization",
				zap.String("user_id", target.ID.Hex()),
				zap.String("organization_id", orgID.Hex()),
				zap.Error(err))
		}
		if err := h.Orgs.RemoveAdmin(ctx, orgID, target.ID); err != nil {
			h.Log.Warn("remove deleted user from organization admins",
				zap.String("user_id", target.ID.Hex()),
				zap.String("organization_id", orgID.Hex()),
				zap.Error(err))
		}
	}
	if err := h.Depts.RemoveMemberEverywhere(ctx, target.ID); err != nil {
		h.Log.Warn("remove deleted user from departments",
			zap.String("user_id", target.ID.Hex()),
			zap.Error(err))
	}

	h.Log.Info("user deleted",
		zap.String("user_id", target.ID.Hex()),
		zap.String("email", target.Email),
		zap.String("deleted_by", callerID.Hex()))
	h.Flash.Success(w, r, "Account "+target.Email+" deleted.")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}
