// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/permissions"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role, name, ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it
// returns "visitor", "", NilObjectID, false — so ok=true always means a
// valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return user.Role, user.Name, userID, true
}

// IsAppAdmin reports whether the current request's user is an app admin.
func IsAppAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "app_admin"
}

// IsOrgAdmin reports whether the current request's user is an org admin.
func IsOrgAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "org_admin"
}

// CanCreateUsers reports whether the current user may open the user
// management creation flow at all.
func CanCreateUsers(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == "app_admin" || role == "org_admin")
}

// UserOrgIDs returns the current user's organization ObjectIDs, dropping
// any malformed entries. Nil when not signed in or none assigned.
func UserOrgIDs(r *http.Request) []primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || len(user.OrganizationIDs) == 0 {
		return nil
	}
	result := make([]primitive.ObjectID, 0, len(user.OrganizationIDs))
	for _, idHex := range user.OrganizationIDs {
		if oid, err := primitive.ObjectIDFromHex(idHex); err == nil {
			result = append(result, oid)
		}
	}
	return result
}

// Check runs a permission-matrix point query for the current user.
// No user in context denies.
func Check(r *http.Request, cap permissions.Capability, orgID, deptID string) bool {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	return permissions.Check(user.Identity(), cap, orgID, deptID)
}

// CanAccessOrg reports whether the current user may operate in the given
// organization: app admins always, everyone else only when assigned.
func CanAccessOrg(r *http.Request, orgID primitive.ObjectID) bool {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	if user.Role == "app_admin" {
		return true
	}
	hex := orgID.Hex()
	for _, id := range user.OrganizationIDs {
		if id == hex {
			return true
		}
	}
	return false
}
