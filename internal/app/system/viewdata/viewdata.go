// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"

	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/app/system/scope"
)

// SiteName is the product name shown in the chrome of every page.
const SiteName = "Fiscora"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(w, r, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	UserName   string

	// Organization scope (from the scope gate, when active)
	OrgName string
	OrgRole string // "admin" or "member" within the active organization

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// One-shot messages queued by the previous request
	Toasts []flash.Toast
}

// flashStore is set by Init and drained into every BaseVM.
var flashStore *flash.Store

// Init sets the flash store used to surface toasts.
// Call this once at startup from bootstrap.
func Init(store *flash.Store) {
	flashStore = store
}

// NewBaseVM creates a fully populated BaseVM for a page. It pops any
// queued flash messages, so call it once per rendered response.
func NewBaseVM(w http.ResponseWriter, r *http.Request, title, backDefault string) BaseVM {
	role, name, _, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    SiteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}

	if sel, ok := scope.Selection(r); ok {
		vm.OrgName = sel.Name
		vm.OrgRole = sel.Role
	}

	if flashStore != nil {
		vm.Toasts = flashStore.Pop(w, r)
	}

	return vm
}
