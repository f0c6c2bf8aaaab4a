package home_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fiscora/fiscora/internal/app/features/home"
	"github.com/fiscora/fiscora/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestServeRoot_SignedInRedirectsToDashboard(t *testing.T) {
	h := home.NewHandler(zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/", testutil.RegularUser(primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	h.ServeRoot(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("location: got %q, want /dashboard", loc)
	}
}
