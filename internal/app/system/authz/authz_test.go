package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/permissions"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	role, _, uid, ok := authz.UserCtx(req)
	if ok {
		t.Error("expected ok=false with no user")
	}
	if role != "visitor" {
		t.Errorf("role = %q, want visitor", role)
	}
	if uid != primitive.NilObjectID {
		t.Error("expected NilObjectID")
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-object-id", Role: "app_admin"})
	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false for malformed user id")
	}
}

func TestIsAppAdmin(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: "app_admin"})
	if !authz.IsAppAdmin(req) {
		t.Error("expected IsAppAdmin true")
	}
	if authz.IsOrgAdmin(req) {
		t.Error("expected IsOrgAdmin false for app_admin")
	}
}

func TestCanCreateUsers(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{"app_admin", true},
		{"org_admin", true},
		{"user", false},
	}
	for _, c := range cases {
		req := httptest.NewRequest("GET", "/test", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: c.role})
		if got := authz.CanCreateUsers(req); got != c.want {
			t.Errorf("CanCreateUsers(%s) = %v, want %v", c.role, got, c.want)
		}
	}
}

func TestUserOrgIDs_DropsMalformed(t *testing.T) {
	valid := primitive.NewObjectID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:              testUserID(),
		Role:            "org_admin",
		OrganizationIDs: []string{valid.Hex(), "bogus"},
	})
	ids := authz.UserOrgIDs(req)
	if len(ids) != 1 || ids[0] != valid {
		t.Errorf("UserOrgIDs = %v", ids)
	}
}

func TestCheck_NoUserDenies(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	if authz.Check(req, permissions.CapManageOrg, "org1", "") {
		t.Error("expected deny with no user")
	}
}

func TestCheck_OrgAdminOwnOrg(t *testing.T) {
	org := primitive.NewObjectID().Hex()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:              testUserID(),
		Role:            "org_admin",
		OrganizationIDs: []string{org},
	})
	if !authz.Check(req, permissions.CapManageUsers, org, "") {
		t.Error("org_admin denied manage_users on own org")
	}
	if authz.Check(req, permissions.CapManageUsers, primitive.NewObjectID().Hex(), "") {
		t.Error("org_admin allowed manage_users on foreign org")
	}
}

func TestCanAccessOrg(t *testing.T) {
	org := primitive.NewObjectID()

	appAdmin := httptest.NewRequest("GET", "/", nil)
	appAdmin = auth.WithTestUser(appAdmin, &auth.SessionUser{ID: testUserID(), Role: "app_admin"})
	if !authz.CanAccessOrg(appAdmin, org) {
		t.Error("app_admin denied org access")
	}

	member := httptest.NewRequest("GET", "/", nil)
	member = auth.WithTestUser(member, &auth.SessionUser{
		ID:              testUserID(),
		Role:            "user",
		OrganizationIDs: []string{org.Hex()},
	})
	if !authz.CanAccessOrg(member, org) {
		t.Error("assigned user denied org access")
	}
	if authz.CanAccessOrg(member, primitive.NewObjectID()) {
		t.Error("user allowed access to unassigned org")
	}
}
