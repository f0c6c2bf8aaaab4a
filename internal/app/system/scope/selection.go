// internal/app/system/scope/selection.go
package scope

import (
	"net/http"

	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/gorilla/securecookie"
)

// CookieName is the fixed key under which the chosen organization is
// persisted client-side.
const CookieName = "fiscora_org_selection"

const cookieMaxAge = 86400 * 30

// SelectionStore persists the chosen OrganizationSelection in a signed
// cookie so it survives reloads. The cookie is advisory: on restore it is
// honored only when the selection still appears in the freshly computed
// available-organizations list.
type SelectionStore struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewSelectionStore builds a SelectionStore signing with hashKey.
func NewSelectionStore(hashKey []byte, secure bool) *SelectionStore {
	sc := securecookie.New(hashKey, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(cookieMaxAge)
	return &SelectionStore{codec: sc, secure: secure}
}

// Save writes sel as the persisted selection.
func (st *SelectionStore) Save(w http.ResponseWriter, sel models.OrganizationSelection) error {
	encoded, err := st.codec.Encode(CookieName, sel)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		Secure:   st.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load reads the persisted selection, if any. A missing, expired, or
// tampered cookie reads as "no selection".
func (st *SelectionStore) Load(r *http.Request) (models.OrganizationSelection, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return models.OrganizationSelection{}, false
	}
	var sel models.OrganizationSelection
	if err := st.codec.Decode(CookieName, c.Value, &sel); err != nil {
		return models.OrganizationSelection{}, false
	}
	return sel, true
}

// Clear drops the persisted selection.
func (st *SelectionStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   st.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Restore rehydrates the persisted selection against a freshly computed
// available list. The fresh entry is returned (names and department lists
// may have changed since the cookie was written); a selection that no
// longer appears in the list is discarded.
func (st *SelectionStore) Restore(r *http.Request, available []models.OrganizationSelection) (models.OrganizationSelection, bool) {
	saved, ok := st.Load(r)
	if !ok {
		return models.OrganizationSelection{}, false
	}
	for _, sel := range available {
		if sel.ID == saved.ID {
			return sel, true
		}
	}
	return models.OrganizationSelection{}, false
}
