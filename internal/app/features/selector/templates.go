// internal/app/features/selector/templates.go
package selector

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "selector",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
