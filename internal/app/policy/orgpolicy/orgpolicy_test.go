package orgpolicy_test

import (
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fiscora/fiscora/internal/app/policy/orgpolicy"
	"github.com/fiscora/fiscora/internal/testutil"
)

func TestCanListOrganizations(t *testing.T) {
	orgID := primitive.NewObjectID()

	r := testutil.NewAuthenticatedRequest(http.MethodGet, "/organizations", testutil.AppAdminUser())
	if scope := orgpolicy.CanListOrganizations(r); !scope.CanList || !scope.AllOrgs {
		t.Errorf("app admin scope = %+v", scope)
	}

	r = testutil.NewAuthenticatedRequest(http.MethodGet, "/organizations", testutil.RegularUser(orgID))
	scope := orgpolicy.CanListOrganizations(r)
	if !scope.CanList || scope.AllOrgs || len(scope.OrgIDs) != 1 {
		t.Errorf("regular user scope = %+v", scope)
	}

	u := testutil.RegularUser(orgID)
	u.OrganizationIDs = nil
	r = testutil.NewAuthenticatedRequest(http.MethodGet, "/organizations", u)
	if scope := orgpolicy.CanListOrganizations(r); scope.CanList {
		t.Errorf("orgless user scope = %+v", scope)
	}
}

func TestCanCreateOrganization(t *testing.T) {
	orgID := primitive.NewObjectID()

	if !orgpolicy.CanCreateOrganization(testutil.NewAuthenticatedRequest(http.MethodGet, "/organizations/new", testutil.AppAdminUser())) {
		t.Error("app admin must be able to create organizations")
	}
	if orgpolicy.CanCreateOrganization(testutil.NewAuthenticatedRequest(http.MethodGet, "/organizations/new", testutil.OrgAdminUser(orgID))) {
		t.Error("org admin must not create organizations from the management area")
	}
	if orgpolicy.CanCreateOrganization(testutil.NewAuthenticatedRequest(http.MethodGet, "/organizations/new", testutil.RegularUser(orgID))) {
		t.Error("regular user must not create organizations from the management area")
	}
}

func TestCanManageOrganization(t *testing.T) {
	orgID := primitive.NewObjectID()
	foreign := primitive.NewObjectID()

	t.Run("app admin manages any org", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodPost, "/organizations", testutil.AppAdminUser())
		if !orgpolicy.CanManageOrganization(r, orgID) || !orgpolicy.CanManageOrganization(r, foreign) {
			t.Error("app admin denied")
		}
	})

	t.Run("org admin manages own org only", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodPost, "/organizations", testutil.OrgAdminUser(orgID))
		if !orgpolicy.CanManageOrganization(r, orgID) {
			t.Error("org admin denied for own org")
		}
		if orgpolicy.CanManageOrganization(r, foreign) {
			t.Error("org admin allowed for foreign org")
		}
	})

	t.Run("regular user manages nothing", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest(http.MethodPost, "/organizations", testutil.RegularUser(orgID))
		if orgpolicy.CanManageOrganization(r, orgID) {
			t.Error("regular user allowed to manage own org")
		}
	})
}

func TestCanViewOrganization(t *testing.T) {
	orgID := primitive.NewObjectID()
	foreign := primitive.NewObjectID()

	r := testutil.NewAuthenticatedRequest(http.MethodGet, "/organizations", testutil.RegularUser(orgID))
	if !orgpolicy.CanViewOrganization(r, orgID) {
		t.Error("member denied view of own org")
	}
	if orgpolicy.CanViewOrganization(r, foreign) {
		t.Error("member allowed view of foreign org")
	}
}
