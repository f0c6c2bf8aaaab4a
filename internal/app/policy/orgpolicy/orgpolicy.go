// Package orgpolicy provides authorization policies for organization
// management.
//
// Authorization rules:
//   - App admins can view, create, and manage all organizations
//   - Org admins can manage organizations they administer
//   - Regular users can view organizations they belong to but manage none
package orgpolicy

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/permissions"
	"github.com/fiscora/fiscora/internal/domain/models"
)

// ListScope represents the organizations the current user can list.
type ListScope struct {
	CanList bool
	AllOrgs bool
	OrgIDs  []primitive.ObjectID
}

// CanListOrganizations determines the listing scope for the management
// screens. Every signed-in user can see the organizations they belong
// to; app admins see all of them.
func CanListOrganizations(r *http.Request) ListScope {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		return ListScope{CanList: false}
	}
	if role == models.RoleAppAdmin {
		return ListScope{CanList: true, AllOrgs: true}
	}
	orgIDs := authz.UserOrgIDs(r)
	if len(orgIDs) == 0 {
		return ListScope{CanList: false}
	}
	return ListScope{CanList: true, AllOrgs: false, OrgIDs: orgIDs}
}

// CanCreateOrganization reports whether the current user may create
// organizations from the management area. The picker's self-service
// flow is separate and open to any signed-in user.
func CanCreateOrganization(r *http.Request) bool {
	return authz.IsAppAdmin(r)
}

// CanManageOrganization reports whether the current user can edit or
// delete the given organization. Decided by the permission matrix: app
// admins manage everything via the wildcard entry, and an org_admin
// manages each organization they belong to.
func CanManageOrganization(r *http.Request, orgID primitive.ObjectID) bool {
	return authz.Check(r, permissions.CapManageOrg, orgID.Hex(), "")
}

// CanViewOrganization reports whether the current user can open the
// organization's detail page.
func CanViewOrganization(r *http.Request, orgID primitive.ObjectID) bool {
	return authz.CanAccessOrg(r, orgID)
}
