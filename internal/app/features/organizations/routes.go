// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the organization management routes (mounted at
// "/organizations" from bootstrap). Fine-grained checks happen in the
// handlers via orgpolicy; the role middleware keeps regular users out of
// the management screens entirely except for viewing.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAppAdmin, models.RoleOrgAdmin))

		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAppAdmin))

		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
	})

	return r
}
