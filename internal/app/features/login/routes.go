// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Post("/", h.HandleLogin)
	r.Get("/forgot", h.ServeForgot)
	r.Post("/forgot", h.HandleForgot)
	r.Get("/reset/{token}", h.ServeReset)
	r.Post("/reset/{token}", h.HandleReset)
	return r
}
