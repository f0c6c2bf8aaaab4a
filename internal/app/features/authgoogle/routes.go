// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeStart)
	r.Get("/start", h.ServeStart)
	r.Get("/callback", h.ServeCallback)
	return r
}
