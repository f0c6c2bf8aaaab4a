package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fiscora/fiscora/internal/app/system/auth"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

type fakeFetcher struct {
	user *auth.SessionUser
	err  error
}

func (f *fakeFetcher) SessionUser(_ context.Context, _ string) (*auth.SessionUser, error) {
	return f.user, f.err
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestCurrentUser_NotSet(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := auth.CurrentUser(req); ok {
		t.Error("expected no current user")
	}
}

func TestWithTestUser_RoundTrip(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Role: "app_admin"})
	u, ok := auth.CurrentUser(req)
	if !ok || u.ID != "u1" || u.Role != "app_admin" {
		t.Errorf("CurrentUser = %+v, ok=%v", u, ok)
	}
}

func TestSignIn_ThenLoadSessionUser(t *testing.T) {
	sm := newManager(t)
	sm.SetUserFetcher(&fakeFetcher{user: &auth.SessionUser{ID: "u1", Name: "Jane", Role: "user"}})

	// Sign in and capture the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(rec, req, "u1"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}

	// Replay the cookie through the middleware.
	var got *auth.SessionUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})
	req2 := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	sm.LoadSessionUser(next).ServeHTTP(httptest.NewRecorder(), req2)

	if got == nil || got.ID != "u1" || got.Name != "Jane" {
		t.Errorf("loaded user = %+v", got)
	}
}

func TestLoadSessionUser_FetchError_ContinuesUnauthenticated(t *testing.T) {
	sm := newManager(t)
	sm.SetUserFetcher(&fakeFetcher{err: errors.New("profile fetch failed")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(rec, req, "u1"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected no user in context after fetch failure")
		}
	})
	req2 := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	sm.LoadSessionUser(next).ServeHTTP(httptest.NewRecorder(), req2)

	if !called {
		t.Error("next handler was not called")
	}
}

func TestRequireSignedIn_RedirectsHTML(t *testing.T) {
	sm := newManager(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next should not be called")
	})

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	loc := rec.Header().Get("Location")
	if loc != "/login?return=%2Fdashboard" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRequireSignedIn_API401(t *testing.T) {
	sm := newManager(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest("GET", "/dashboard", nil)
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireRole_WrongRole(t *testing.T) {
	sm := newManager(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next should not be called")
	})

	req := httptest.NewRequest("GET", "/organizations", nil)
	req.Header.Set("Accept", "text/html")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Role: "user"})
	rec := httptest.NewRecorder()
	sm.RequireRole("app_admin")(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/forbidden" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRequireRole_Allowed(t *testing.T) {
	sm := newManager(t)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest("GET", "/organizations", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Role: "app_admin"})
	sm.RequireRole("app_admin", "org_admin")(next).ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("next was not called for allowed role")
	}
}
