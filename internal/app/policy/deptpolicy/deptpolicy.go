// Package deptpolicy provides authorization policies for department
// management.
//
// Authorization rules:
//   - App admins and org admins can manage any department in organizations
//     they can reach
//   - Regular users can view and edit departments they are assigned to but
//     never manage them
package deptpolicy

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/permissions"
)

// CanViewDepartment reports whether the current user can open the
// department's pages.
func CanViewDepartment(r *http.Request, orgID, deptID primitive.ObjectID) bool {
	return authz.Check(r, permissions.CapViewDepartment, orgID.Hex(), deptID.Hex())
}

// CanEditDepartment reports whether the current user can change the
// department's working data.
func CanEditDepartment(r *http.Request, orgID, deptID primitive.ObjectID) bool {
	return authz.Check(r, permissions.CapEditDepartment, orgID.Hex(), deptID.Hex())
}

// CanManageDepartment reports whether the current user can rename the
// department, change its membership, or delete it.
func CanManageDepartment(r *http.Request, orgID, deptID primitive.ObjectID) bool {
	return authz.Check(r, permissions.CapManageDepartment, orgID.Hex(), deptID.Hex())
}

// CanCreateDepartment reports whether the current user can add a
// department to the organization. Creation is gated on organization
// management standing since there is no department yet to scope on.
func CanCreateDepartment(r *http.Request, orgID primitive.ObjectID) bool {
	return authz.Check(r, permissions.CapManageOrg, orgID.Hex(), "")
}
