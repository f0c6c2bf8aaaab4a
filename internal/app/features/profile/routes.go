// internal/app/features/profile/routes.go
package profile

import (
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the self-service profile routes (mounted at "/profile"
// from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeProfile)
		pr.Post("/", h.HandleUpdate)
		pr.Post("/password", h.HandlePassword)
	})

	return r
}
