package userpolicy_test

import (
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fiscora/fiscora/internal/app/policy/userpolicy"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/fiscora/fiscora/internal/testutil"
)

func TestCanListUsers(t *testing.T) {
	orgID := primitive.NewObjectID()

	t.Run("app admin sees all orgs", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodGet, "/users", testutil.AppAdminUser())
		scope := userpolicy.CanListUsers(r)
		if !scope.CanList || !scope.AllOrgs {
			t.Errorf("scope = %+v", scope)
		}
	})

	t.Run("org admin restricted to own orgs", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodGet, "/users", testutil.OrgAdminUser(orgID))
		scope := userpolicy.CanListUsers(r)
		if !scope.CanList || scope.AllOrgs {
			t.Fatalf("scope = %+v", scope)
		}
		if len(scope.OrgIDs) != 1 || scope.OrgIDs[0] != orgID {
			t.Errorf("OrgIDs = %v", scope.OrgIDs)
		}
	})

	t.Run("org admin without orgs cannot list", func(t *testing.T) {
		u := testutil.OrgAdminUser(orgID)
		u.OrganizationIDs = nil
		r := testutil.NewAuthenticatedRequest(http.MethodGet, "/users", u)
		if scope := userpolicy.CanListUsers(r); scope.CanList {
			t.Errorf("scope = %+v", scope)
		}
	})

	t.Run("regular user cannot list", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodGet, "/users", testutil.RegularUser(orgID))
		if scope := userpolicy.CanListUsers(r); scope.CanList {
			t.Errorf("scope = %+v", scope)
		}
	})

	t.Run("anonymous cannot list", func(t *testing.T) {
		r := testutil.NewRequest(http.MethodGet, "/users")
		if scope := userpolicy.CanListUsers(r); scope.CanList {
			t.Errorf("scope = %+v", scope)
		}
	})
}

func TestAssignableRoles(t *testing.T) {
	orgID := primitive.NewObjectID()

	r := testutil.NewAuthenticatedRequest(http.MethodGet, "/users/new", testutil.AppAdminUser())
	roles := userpolicy.AssignableRoles(r)
	if len(roles) != 3 {
		t.Errorf("app admin roles = %v, want all three", roles)
	}

	r = testutil.NewAuthenticatedRequest(http.MethodGet, "/users/new", testutil.OrgAdminUser(orgID))
	roles = userpolicy.AssignableRoles(r)
	if len(roles) != 1 || roles[0] != models.RoleUser {
		t.Errorf("org admin roles = %v, want [user]", roles)
	}

	r = testutil.NewAuthenticatedRequest(http.MethodGet, "/users/new", testutil.RegularUser(orgID))
	if roles := userpolicy.AssignableRoles(r); roles != nil {
		t.Errorf("regular user roles = %v, want nil", roles)
	}
}

func TestCanAssignRole(t *testing.T) {
	orgID := primitive.NewObjectID()
	r := testutil.NewAuthenticatedRequest(http.MethodPost, "/users", testutil.OrgAdminUser(orgID))

	if !userpolicy.CanAssignRole(r, models.RoleUser) {
		t.Error("org admin must be able to assign the user role")
	}
	if userpolicy.CanAssignRole(r, models.RoleOrgAdmin) {
		t.Error("org admin must not assign org_admin")
	}
	if userpolicy.CanAssignRole(r, models.RoleAppAdmin) {
		t.Error("org admin must not assign app_admin")
	}
}

func TestCanManageUser(t *testing.T) {
	orgID := primitive.NewObjectID()
	otherOrg := primitive.NewObjectID()

	inOrg := &models.User{Role: models.RoleUser, OrganizationIDs: []primitive.ObjectID{orgID}}
	outside := &models.User{Role: models.RoleUser, OrganizationIDs: []primitive.ObjectID{otherOrg}}
	appAdmin := &models.User{Role: models.RoleAppAdmin, OrganizationIDs: []primitive.ObjectID{orgID}}

	t.Run("app admin manages anyone", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodPost, "/users", testutil.AppAdminUser())
		for _, target := range []*models.User{inOrg, outside, appAdmin} {
			if !userpolicy.CanManageUser(r, target) {
				t.Errorf("app admin denied for %+v", target)
			}
		}
	})

	t.Run("org admin manages shared-org users only", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodPost, "/users", testutil.OrgAdminUser(orgID))
		if !userpolicy.CanManageUser(r, inOrg) {
			t.Error("denied for user in own org")
		}
		if userpolicy.CanManageUser(r, outside) {
			t.Error("allowed for user outside own org")
		}
		if userpolicy.CanManageUser(r, appAdmin) {
			t.Error("allowed for app admin target")
		}
	})

	t.Run("regular user manages nobody", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodPost, "/users", testutil.RegularUser(orgID))
		if userpolicy.CanManageUser(r, inOrg) {
			t.Error("regular user must not manage accounts")
		}
	})

	t.Run("nil target denied", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodPost, "/users", testutil.AppAdminUser())
		if userpolicy.CanManageUser(r, nil) {
			t.Error("nil target must deny")
		}
	})
}
