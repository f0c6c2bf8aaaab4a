// internal/app/features/reports/handler.go
package reports

import (
	"net/http"

	"github.com/fiscora/fiscora/internal/app/system/scope"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler renders the reports placeholder for the selected organization.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type pageData struct {
	viewdata.BaseVM
	Selection models.OrganizationSelection
}

// ServeReports handles GET /reports.
func (h *Handler) ServeReports(w http.ResponseWriter, r *http.Request) {
	sel, ok := scope.Selection(r)
	if !ok {
		http.Redirect(w, r, "/select-organization", http.StatusSeeOther)
		return
	}

	data := pageData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Reports", "/dashboard"),
		Selection: sel,
	}
	templates.Render(w, r, "reports", data)
}
