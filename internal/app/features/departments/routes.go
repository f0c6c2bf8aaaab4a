// internal/app/features/departments/routes.go
package departments

import (
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the department routes; bootstrap nests them at
// /organizations/{id}/departments. Fine-grained checks are per-handler
// via deptpolicy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{deptID}", h.ServeView)
		pr.Get("/{deptID}/edit", h.ServeEdit)
		pr.Post("/{deptID}/edit", h.HandleEdit)
		pr.Post("/{deptID}/delete", h.HandleDelete)
	})

	return r
}
