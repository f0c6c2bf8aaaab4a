// internal/app/features/reports/routes.go
package reports

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the reports routes (mounted behind the scope gate from
// bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeReports)
	return r
}
