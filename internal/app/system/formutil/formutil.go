// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails validation, the form is re-rendered with
// the user's previously entered values echoed back, an error message, and
// the context data the form needs. Base carries the common fields; embed
// it in feature form structs and populate it with SetBase.
//
// Example usage:
//
//	type newUserData struct {
//		formutil.Base
//		FullName string
//		Email    string
//		Roles    []string
//	}
//
//	data := newUserData{FullName: full, Email: email}
//	formutil.SetBase(&data.Base, r, "Add User", "/users")
//	data.SetError("Email is required.")
//	engine.Render(w, r, "user_new", data)
package formutil

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"

	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/app/system/scope"
)

// Base contains common fields for form pages that can be embedded in form data structs.
// The field set matches what the shared page chrome expects.
type Base struct {
	Title       string
	SiteName    string
	IsLoggedIn  bool
	Role        string
	UserName    string
	OrgName     string
	BackURL     string
	CurrentPath string
	CSRFToken   string
	Toasts      []flash.Toast
	Error       template.HTML
}

// SetBase populates the common Base fields from the request context.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	role, uname, _, signedIn := authz.UserCtx(r)
	b.Title = title
	b.SiteName = "Fiscora"
	b.IsLoggedIn = signedIn
	b.Role = role
	b.UserName = uname
	b.BackURL = httpnav.ResolveBackURL(r, backDefault)
	b.CurrentPath = httpnav.CurrentPath(r)
	b.CSRFToken = csrf.Token(r)
	if sel, ok := scope.Selection(r); ok {
		b.OrgName = sel.Name
	}
}

// SetError sets the error message on a Base struct.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}
