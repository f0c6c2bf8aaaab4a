package departments_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	"github.com/fiscora/fiscora/internal/app/features/departments"
	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/testutil"
	gorillasessions "github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*departments.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	flashStore := flash.NewStore(gorillasessions.NewCookieStore([]byte("test-flash-key")), logger)
	h := departments.NewHandler(db, uierrors.NewErrorLogger(logger), flashStore, logger)
	return h, testutil.NewFixtures(t, db), db
}

func postForm(path string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_WithManagerAndMembers(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Org Admin", "admin@example.com", "org_admin")
	member := fixtures.CreateUser(ctx, "Member", "member@example.com", "user")
	org := fixtures.CreateOrganization(ctx, "Hope Clinic", admin.ID)

	// The second user joins the organization so they are pickable.
	if err := organizationstore.New(db).AddMember(ctx, org.ID, member.ID); err != nil {
		t.Fatalf("add member failed: %v", err)
	}

	user := testutil.OrgAdminUser(org.ID)
	user.ID = admin.ID.Hex()

	req := postForm("/organizations/"+org.ID.Hex()+"/departments", url.Values{
		"name":         {"Finance"},
		"description":  {"Money matters <img src=x onerror=alert(1)>"},
		"manager_id":   {admin.ID.Hex()},
		"member_ids":   {admin.ID.Hex(), member.ID.Hex()},
		"budget_limit": {"500000"},
	}, user)
	req = testutil.WithChiURLParam(req, "id", org.ID.Hex())

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	depts, err := departmentstore.New(db).ListByOrganization(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListByOrganization failed: %v", err)
	}
	if len(depts) != 1 {
		t.Fatalf("expected 1 department, got %d", len(depts))
	}
	d := depts[0]
	if d.Name != "Finance" || d.ManagerID != admin.ID {
		t.Errorf("department: got %+v", d)
	}
	if len(d.MemberIDs) != 2 {
		t.Errorf("members: got %d, want 2", len(d.MemberIDs))
	}
	if d.Description != "Money matters" {
		t.Errorf("Description = %q, want markup stripped", d.Description)
	}
	if d.BudgetLimit == nil || *d.BudgetLimit != 500000 {
		t.Errorf("budget limit: got %v", d.BudgetLimit)
	}

	// The user-side assignment list feeds permission derivation and must
	// track the department's member list.
	freshMember, err := userstore.New(db).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	found := false
	for _, id := range freshMember.DepartmentIDs {
		if id == d.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("member is missing the department assignment")
	}
}

func TestHandleDelete_RemovesDepartment(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Org Admin", "admin@example.com", "org_admin")
	org := fixtures.CreateOrganization(ctx, "Hope Clinic", admin.ID)
	dept := fixtures.CreateDepartment(ctx, "Finance", org.ID)

	user := testutil.OrgAdminUser(org.ID)
	user.ID = admin.ID.Hex()

	req := postForm("/organizations/"+org.ID.Hex()+"/departments/"+dept.ID.Hex()+"/delete", url.Values{}, user)
	req = testutil.WithChiURLParam(req, "id", org.ID.Hex())
	req = testutil.WithChiURLParam(req, "deptID", dept.ID.Hex())

	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	if _, err := departmentstore.New(db).GetByID(ctx, dept.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected department to be gone, got err=%v", err)
	}
}
