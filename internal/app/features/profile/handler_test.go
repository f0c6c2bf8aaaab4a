package profile_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	"github.com/fiscora/fiscora/internal/app/features/profile"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/testutil"
	gorillasessions "github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*profile.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	flashStore := flash.NewStore(gorillasessions.NewCookieStore([]byte("test-flash-key")), logger)
	h := profile.NewHandler(db, uierrors.NewErrorLogger(logger), flashStore, logger)
	return h, testutil.NewFixtures(t, db), db
}

func postForm(path string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleUpdate_SavesNameAndPreferences(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	account := fixtures.CreateUser(ctx, "Old Name", "me@example.com", "user")

	caller := testutil.AppAdminUser()
	caller.ID = account.ID.Hex()
	caller.Role = "user"

	req := postForm("/profile", url.Values{
		"full_name":            {"New Name"},
		"theme":                {"dark"},
		"currency":             {"usd"},
		"language":             {"FR"},
		"notify_email":         {"on"},
		"notify_budget_alerts": {"on"},
	}, caller)

	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	fresh, err := userstore.New(db).GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fresh.FullName != "New Name" {
		t.Errorf("full name: got %q", fresh.FullName)
	}
	p := fresh.Preferences
	if p.Theme != "dark" || p.Currency != "USD" || p.Language != "fr" {
		t.Errorf("preferences: got %+v", p)
	}
	if !p.Notifications.Email || p.Notifications.Push || !p.Notifications.BudgetAlerts || p.Notifications.ApprovalRequests {
		t.Errorf("notifications: got %+v", p.Notifications)
	}
	if fresh.Role != "user" {
		t.Errorf("role changed through profile: got %q", fresh.Role)
	}
}

func TestHandlePassword_ChangesHash(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	account := fixtures.CreateUser(ctx, "Member", "me@example.com", "user")
	oldHash, err := bcrypt.GenerateFromPassword([]byte("old-password-1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if _, err := db.Collection("users").UpdateByID(ctx, account.ID,
		bson.M{"$set": bson.M{"password_hash": string(oldHash)}}); err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}

	caller := testutil.AppAdminUser()
	caller.ID = account.ID.Hex()
	caller.Role = "user"

	req := postForm("/profile/password", url.Values{
		"current_password": {"old-password-1"},
		"new_password":     {"brand-new-password"},
		"confirm_password": {"brand-new-password"},
	}, caller)

	rec := httptest.NewRecorder()
	h.HandlePassword(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	fresh, err := userstore.New(db).GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(fresh.PasswordHash), []byte("brand-new-password")); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}
}
