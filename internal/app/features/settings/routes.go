// internal/app/features/settings/routes.go
package settings

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the settings routes (mounted behind the scope gate from
// bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeSettings)
	return r
}
