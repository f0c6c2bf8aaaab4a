// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/scope"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Selection  *scope.SelectionStore
}

func NewHandler(sessionMgr *auth.SessionManager, selection *scope.SelectionStore, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Selection:  selection,
	}
}

// HandleLogout handles POST /logout. It clears the session and the
// persisted organization selection, then sends the browser home.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: clear session", zap.Error(err))
	}
	h.Selection.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
