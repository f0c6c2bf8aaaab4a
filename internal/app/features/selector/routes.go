// internal/app/features/selector/routes.go
package selector

import (
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServePicker)
		pr.Post("/", h.HandleSelect)
		pr.Post("/clear", h.HandleClear)
		pr.Post("/new", h.HandleCreate)
	})

	return r
}
