// Package userpolicy provides authorization policies for user management.
//
// Authorization rules:
//   - App admins can view and manage all users and assign any role
//   - Org admins can view and manage users within their organizations and
//     assign only the "user" role
//   - Regular users cannot access user management
package userpolicy

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/domain/models"
)

// ListScope represents the scope of users the current user can list.
type ListScope struct {
	// CanList indicates whether the user can list users at all.
	CanList bool
	// AllOrgs indicates whether the user sees users from all organizations.
	AllOrgs bool
	// OrgIDs is the list of organization IDs the listing is restricted to
	// when AllOrgs is false.
	OrgIDs []primitive.ObjectID
}

// CanListUsers determines what scope of users the current user can list.
func CanListUsers(r *http.Request) ListScope {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		return ListScope{CanList: false}
	}

	switch role {
	case models.RoleAppAdmin:
		return ListScope{CanList: true, AllOrgs: true}
	case models.RoleOrgAdmin:
		orgIDs := authz.UserOrgIDs(r)
		if len(orgIDs) == 0 {
			return ListScope{CanList: false}
		}
		return ListScope{CanList: true, AllOrgs: false, OrgIDs: orgIDs}
	default:
		return ListScope{CanList: false}
	}
}

// AssignableRoles returns the roles the current user may grant when
// creating or editing accounts. Nil when the user cannot assign roles.
func AssignableRoles(r *http.Request) []string {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		return nil
	}
	switch role {
	case models.RoleAppAdmin:
		return []string{models.RoleAppAdmin, models.RoleOrgAdmin, models.RoleUser}
	case models.RoleOrgAdmin:
		return []string{models.RoleUser}
	default:
		return nil
	}
}

// CanAssignRole reports whether the current user may grant the given role.
func CanAssignRole(r *http.Request, role string) bool {
	for _, allowed := range AssignableRoles(r) {
		if allowed == role {
			return true
		}
	}
	return false
}

// CanManageUser reports whether the current user can edit or delete the
// target account.
//
// Authorization:
//   - App admin: can manage any account
//   - Org admin: can manage accounts sharing at least one of their
//     organizations, except app admin accounts
//   - Others: cannot manage accounts
func CanManageUser(r *http.Request, target *models.User) bool {
	role, _, _, ok := authz.UserCtx(r)
	if !ok || target == nil {
		return false
	}

	switch role {
	case models.RoleAppAdmin:
		return true
	case models.RoleOrgAdmin:
		if target.Role == models.RoleAppAdmin {
			return false
		}
		mine := authz.UserOrgIDs(r)
		for _, orgID := range mine {
			if target.MemberOf(orgID) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
