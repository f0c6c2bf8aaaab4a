package organizations_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	"github.com/fiscora/fiscora/internal/app/features/organizations"
	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/testutil"
	gorillasessions "github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*organizations.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	flashStore := flash.NewStore(gorillasessions.NewCookieStore([]byte("test-flash-key")), logger)
	h := organizations.NewHandler(db, uierrors.NewErrorLogger(logger), flashStore, logger)
	return h, testutil.NewFixtures(t, db), db
}

func postForm(t *testing.T, path string, form url.Values, user testutil.TestUser) *http.Request {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_AppAdmin(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAppAdmin(ctx, "App Admin", "admin@example.com")
	user := testutil.TestUser{ID: admin.ID.Hex(), Name: admin.FullName, Role: admin.Role}

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, postForm(t, "/organizations", url.Values{
		"name":     {"Bright Futures"},
		"country":  {"Rwanda"},
		"currency": {"RWF"},
	}, user))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/organizations" {
		t.Errorf("Location: got %q, want /organizations", loc)
	}

	orgs, err := organizationstore.New(db).All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(orgs) != 1 {
		t.Fatalf("expected 1 organization, got %d", len(orgs))
	}
	if orgs[0].Name != "Bright Futures" || orgs[0].Country != "Rwanda" {
		t.Errorf("organization: got %+v", orgs[0])
	}
	if len(orgs[0].AdminIDs) != 1 || orgs[0].AdminIDs[0] != admin.ID {
		t.Errorf("expected creator to be the admin, got %v", orgs[0].AdminIDs)
	}

	// The creator's account records the membership.
	got, err := userstore.New(db).GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.OrganizationIDs) != 1 || got.OrganizationIDs[0] != orgs[0].ID {
		t.Errorf("expected membership in the new org, got %v", got.OrganizationIDs)
	}
}

func TestHandleCreate_StripsMarkupFromFreeText(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAppAdmin(ctx, "App Admin", "admin@example.com")
	user := testutil.TestUser{ID: admin.ID.Hex(), Name: admin.FullName, Role: admin.Role}

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, postForm(t, "/organizations", url.Values{
		"name":        {"Clean Water Fund"},
		"description": {`Wells and pumps <script>alert("x")</script> for rural districts`},
		"country":     {"<b>Rwanda</b>"},
		"currency":    {"RWF"},
	}, user))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	orgs, err := organizationstore.New(db).All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(orgs) != 1 {
		t.Fatalf("expected 1 organization, got %d", len(orgs))
	}
	if got := orgs[0].Description; strings.Contains(got, "<script>") || strings.Contains(got, "alert") {
		t.Errorf("Description kept markup: %q", got)
	}
	if !strings.Contains(orgs[0].Description, "Wells and pumps") {
		t.Errorf("Description lost its text: %q", orgs[0].Description)
	}
	if orgs[0].Country != "Rwanda" {
		t.Errorf("Country = %q, want tags stripped", orgs[0].Country)
	}
}

func TestHandleDelete_LeavesDepartmentsBehind(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAppAdmin(ctx, "App Admin", "admin@example.com")
	org := fixtures.CreateOrganization(ctx, "Doomed Org")
	dept := fixtures.CreateDepartment(ctx, "Finance", org.ID)
	member := fixtures.CreateUser(ctx, "Member", "member@example.com", "user", org.ID)

	user := testutil.TestUser{ID: admin.ID.Hex(), Name: admin.FullName, Role: admin.Role}

	req := postForm(t, "/organizations/"+org.ID.Hex()+"/delete", url.Values{}, user)
	req = testutil.WithChiURLParam(req, "id", org.ID.Hex())

	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/organizations" {
		t.Errorf("Location: got %q, want /organizations", loc)
	}

	// The organization is gone.
	if _, err := organizationstore.New(db).GetByID(ctx, org.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected org to be deleted, got err=%v", err)
	}

	// No cascade: the department and the member's reference survive.
	if _, err := departmentstore.New(db).GetByID(ctx, dept.ID); err != nil {
		t.Errorf("expected department to survive, got err=%v", err)
	}
	got, err := userstore.New(db).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.OrganizationIDs) != 1 || got.OrganizationIDs[0] != org.ID {
		t.Errorf("expected member's org reference to survive, got %v", got.OrganizationIDs)
	}
}

func TestHandleDelete_Idempotent(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAppAdmin(ctx, "App Admin", "admin@example.com")
	org := fixtures.CreateOrganization(ctx, "Doomed Org")
	user := testutil.TestUser{ID: admin.ID.Hex(), Name: admin.FullName, Role: admin.Role}

	for i := 0; i < 2; i++ {
		req := postForm(t, "/organizations/"+org.ID.Hex()+"/delete", url.Values{}, user)
		req = testutil.WithChiURLParam(req, "id", org.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleDelete(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("pass %d: status: got %d, want %d", i, rec.Code, http.StatusSeeOther)
		}
	}
}
