package users_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	"github.com/fiscora/fiscora/internal/app/features/users"
	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/testutil"
	gorillasessions "github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*users.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	flashStore := flash.NewStore(gorillasessions.NewCookieStore([]byte("test-flash-key")), logger)
	h := users.NewHandler(db, uierrors.NewErrorLogger(logger), flashStore, logger)
	return h, testutil.NewFixtures(t, db), db
}

func postForm(path string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func containsID(ids []primitive.ObjectID, want primitive.ObjectID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestHandleCreate_AppAdminAttachesOrganizations(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAppAdmin(ctx, "App Admin", "appadmin@example.com")
	org := fixtures.CreateOrganization(ctx, "Hope Clinic", admin.ID)

	caller := testutil.AppAdminUser()
	caller.ID = admin.ID.Hex()

	req := postForm("/users", url.Values{
		"full_name":        {"New Member"},
		"email":            {"newmember@example.com"},
		"password":         {"correct-horse-battery"},
		"role":             {"user"},
		"status":           {"active"},
		"organization_ids": {org.ID.Hex()},
	}, caller)

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	created, err := userstore.New(db).GetByEmail(ctx, "newmember@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if created.Role != "user" || created.Status != "active" {
		t.Errorf("account: got role=%q status=%q", created.Role, created.Status)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct-horse-battery")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
	if !containsID(created.OrganizationIDs, org.ID) {
		t.Errorf("account is missing organization reference")
	}

	freshOrg, err := organizationstore.New(db).GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !containsID(freshOrg.MemberIDs, created.ID) {
		t.Errorf("organization member list was not synced")
	}
}

func TestHandleEdit_ReconcilesOrgMembership(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAppAdmin(ctx, "App Admin", "appadmin@example.com")
	orgA := fixtures.CreateOrganization(ctx, "Hope Clinic", admin.ID)
	orgB := fixtures.CreateOrganization(ctx, "Bright Futures", admin.ID)
	target := fixtures.CreateUser(ctx, "Moving Member", "mover@example.com", "user", orgA.ID)

	orgs := organizationstore.New(db)
	if err := orgs.AddMember(ctx, orgA.ID, target.ID); err != nil {
		t.Fatalf("add member failed: %v", err)
	}

	caller := testutil.AppAdminUser()
	caller.ID = admin.ID.Hex()

	req := postForm("/users/"+target.ID.Hex()+"/edit", url.Values{
		"full_name":        {"Moving Member"},
		"email":            {"mover@example.com"},
		"role":             {"user"},
		"status":           {"active"},
		"organization_ids": {orgB.ID.Hex()},
	}, caller)
	req = testutil.WithChiURLParam(req, "userID", target.ID.Hex())

	rec := httptest.NewRecorder()
	h.HandleEdit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	fresh, err := userstore.New(db).GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if containsID(fresh.OrganizationIDs, orgA.ID) || !containsID(fresh.OrganizationIDs, orgB.ID) {
		t.Errorf("organization refs: got %v", fresh.OrganizationIDs)
	}

	freshA, _ := orgs.GetByID(ctx, orgA.ID)
	freshB, _ := orgs.GetByID(ctx, orgB.ID)
	if containsID(freshA.MemberIDs, target.ID) {
		t.Errorf("old organization still lists the account as a member")
	}
	if !containsID(freshB.MemberIDs, target.ID) {
		t.Errorf("new organization does not list the account as a member")
	}
}

func TestHandleDelete_CleansReferences(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAppAdmin(ctx, "App Admin", "appadmin@example.com")
	org := fixtures.CreateOrganization(ctx, "Hope Clinic", admin.ID)
	target := fixtures.CreateUser(ctx, "Leaving Member", "leaver@example.com", "user", org.ID)

	orgs := organizationstore.New(db)
	if err := orgs.AddMember(ctx, org.ID, target.ID); err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	dept := fixtures.CreateDepartment(ctx, "Finance", org.ID, target.ID)

	caller := testutil.AppAdminUser()
	caller.ID = admin.ID.Hex()

	req := postForm("/users/"+target.ID.Hex()+"/delete", url.Values{}, caller)
	req = testutil.WithChiURLParam(req, "userID", target.ID.Hex())

	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	if _, err := userstore.New(db).GetByID(ctx, target.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected account to be gone, got err=%v", err)
	}
	freshOrg, _ := orgs.GetByID(ctx, org.ID)
	if containsID(freshOrg.MemberIDs, target.ID) {
		t.Errorf("organization still lists the deleted account")
	}
	freshDept, err := departmentstore.New(db).GetByID(ctx, dept.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if containsID(freshDept.MemberIDs, target.ID) {
		t.Errorf("department still lists the deleted account")
	}
}

func TestHandleDelete_SelfBlocked(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAppAdmin(ctx, "App Admin", "appadmin@example.com")

	caller := testutil.AppAdminUser()
	caller.ID = admin.ID.Hex()

	req := postForm("/users/"+admin.ID.Hex()+"/delete", url.Values{}, caller)
	req = testutil.WithChiURLParam(req, "userID", admin.ID.Hex())

	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if _, err := userstore.New(db).GetByID(ctx, admin.ID); err != nil {
		t.Errorf("expected account to survive, got err=%v", err)
	}
}
