// internal/app/system/flash/flash.go
package flash

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sessionName = "fiscora_flash"

// Toast is a one-shot message rendered on the next page load.
type Toast struct {
	Kind    string // "success", "error", "info"
	Message string
}

func init() {
	gob.Register(Toast{})
}

// Store carries toasts across a redirect in a short-lived session cookie.
type Store struct {
	sessions *sessions.CookieStore
	log      *zap.Logger
}

// NewStore builds a flash Store on top of the shared cookie session store.
func NewStore(store *sessions.CookieStore, logger *zap.Logger) *Store {
	return &Store{sessions: store, log: logger}
}

// Add queues a toast for the next rendered page.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, kind, message string) {
	sess, _ := s.sessions.Get(r, sessionName)
	sess.AddFlash(Toast{Kind: kind, Message: message})
	if err := sess.Save(r, w); err != nil {
		s.log.Warn("saving flash message failed", zap.Error(err))
	}
}

// Success queues a success toast.
func (s *Store) Success(w http.ResponseWriter, r *http.Request, message string) {
	s.Add(w, r, "success", message)
}

// Error queues an error toast.
func (s *Store) Error(w http.ResponseWriter, r *http.Request, message string) {
	s.Add(w, r, "error", message)
}

// Pop drains and returns all queued toasts, clearing them from the cookie.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Toast {
	sess, _ := s.sessions.Get(r, sessionName)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		s.log.Warn("clearing flash messages failed", zap.Error(err))
	}
	out := make([]Toast, 0, len(raw))
	for _, v := range raw {
		if t, ok := v.(Toast); ok {
			out = append(out, t)
		}
	}
	return out
}
