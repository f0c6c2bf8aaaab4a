package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fiscora/fiscora/internal/app/features/logout"
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/scope"
	"github.com/fiscora/fiscora/internal/testutil"
	"go.uber.org/zap"
)

func TestHandleLogout_ClearsSessionAndSelection(t *testing.T) {
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	selection := scope.NewSelectionStore([]byte("0123456789abcdef0123456789abcdef"), false)

	h := logout.NewHandler(sessionMgr, selection, logger)

	req := testutil.NewAuthenticatedRequest("POST", "/logout", testutil.AppAdminUser())
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}

	var sessionCleared, selectionCleared bool
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case "test-session":
			if c.MaxAge < 0 {
				sessionCleared = true
			}
		case "fiscora_org_selection":
			if c.MaxAge < 0 {
				selectionCleared = true
			}
		}
	}
	if !sessionCleared {
		t.Error("expected session cookie to be expired")
	}
	if !selectionCleared {
		t.Error("expected organization selection cookie to be expired")
	}
}
