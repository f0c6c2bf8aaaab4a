package flash_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

func newStore() *flash.Store {
	cs := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	return flash.NewStore(cs, zap.NewNop())
}

func TestAddThenPop(t *testing.T) {
	st := newStore()

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/organizations", nil)
	st.Success(rec, r, "Organization created")

	next := httptest.NewRequest(http.MethodGet, "/organizations", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}

	got := st.Pop(httptest.NewRecorder(), next)
	if len(got) != 1 {
		t.Fatalf("got %d toasts, want 1", len(got))
	}
	if got[0].Kind != "success" || got[0].Message != "Organization created" {
		t.Errorf("toast = %+v", got[0])
	}
}

func TestPopWithoutFlashes(t *testing.T) {
	st := newStore()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if got := st.Pop(httptest.NewRecorder(), r); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}
