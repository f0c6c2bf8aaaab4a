// internal/app/features/settings/handler.go
package settings

import (
	"net/http"

	"github.com/fiscora/fiscora/internal/app/system/scope"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler renders the workspace settings placeholder. Organization-level
// configuration itself lives on the organization edit screen; this page
// points admins there until workspace settings grow their own surface.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type pageData struct {
	viewdata.BaseVM
	Selection  models.OrganizationSelection
	IsOrgAdmin bool
}

// ServeSettings handles GET /settings.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	sel, ok := scope.Selection(r)
	if !ok {
		http.Redirect(w, r, "/select-organization", http.StatusSeeOther)
		return
	}

	data := pageData{
		BaseVM:     viewdata.NewBaseVM(w, r, "Settings", "/dashboard"),
		Selection:  sel,
		IsOrgAdmin: sel.Role == models.SelectionRoleAdmin,
	}
	templates.Render(w, r, "settings", data)
}
