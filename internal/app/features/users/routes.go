// internal/app/features/users/routes.go
package users

import (
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account management routes (mounted at "/users" from
// bootstrap). Only admins reach these screens; which accounts an org
// admin may actually touch is decided per request by userpolicy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAppAdmin, models.RoleOrgAdmin))

		pr.Get("/", h.ServeList)
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{userID}/edit", h.ServeEdit)
		pr.Post("/{userID}/edit", h.HandleEdit)
		pr.Post("/{userID}/delete", h.HandleDelete)
	})

	return r
}
