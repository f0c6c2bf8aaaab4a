// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/status"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateCookie carries the OAuth state and the post-login return URL
// across the round trip to Google, signed so it cannot be forged.
const stateCookieName = "fiscora_oauth_state"

const stateTTL = 10 * time.Minute

// Handler signs existing accounts in with Google. Accounts are created
// through /register; an unknown Google identity is bounced back to the
// login page.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Users      *userstore.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://fiscora.org/auth/google/callback"

	stateCodec *securecookie.SecureCookie
	secure     bool
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	clientID, clientSecret, baseURL string,
	stateHashKey []byte,
	secure bool,
	logger *zap.Logger,
) *Handler {
	codec := securecookie.New(stateHashKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(stateTTL.Seconds()))

	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		Users:        userstore.New(db),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		stateCodec:   codec,
		secure:       secure,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured reports whether Google OAuth credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

type statePayload struct {
	State     string `json:"state"`
	ReturnURL string `json:"return_url"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/start                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	payload := statePayload{State: state, ReturnURL: query.Get(r, "return")}
	encoded, err := h.stateCodec.Encode(stateCookieName, payload)
	if err != nil {
		h.Log.Error("encode OAuth state cookie", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL.Seconds()),
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.redirectWithError(w, r, "google_denied")
		return
	}

	payload, ok := h.validateState(w, r)
	if !ok {
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectWithError(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("exchange OAuth code", zap.Error(err))
		h.redirectWithError(w, r, "token_exchange")
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("fetch Google user info", zap.Error(err))
		h.redirectWithError(w, r, "user_info")
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(dbCtx, googleUser.Email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.Log.Info("Google OAuth: no account for email",
			zap.String("email", googleUser.Email))
		h.redirectWithError(w, r, "no_account")
		return
	case err != nil:
		h.Log.Error("look up user", zap.Error(err))
		h.redirectWithError(w, r, "internal")
		return
	}

	if u.Status == status.Disabled {
		h.Log.Info("Google OAuth: account disabled", zap.String("user_id", u.ID.Hex()))
		h.redirectWithError(w, r, "account_disabled")
		return
	}
	if u.AuthMethod != "google" {
		h.redirectWithError(w, r, "use_password")
		return
	}

	if err := h.Users.SetLastLogin(dbCtx, u.ID, time.Now().UTC()); err != nil {
		h.Log.Warn("record last login failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		h.redirectWithError(w, r, "internal")
		return
	}

	dest := urlutil.SafeReturn(payload.ReturnURL, "", "/dashboard")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// validateState checks the returned state against the signed state
// cookie and clears the cookie either way.
func (h *Handler) validateState(w http.ResponseWriter, r *http.Request) (statePayload, bool) {
	defer http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		return statePayload{}, false
	}

	c, err := r.Cookie(stateCookieName)
	if err != nil {
		h.Log.Warn("missing OAuth state cookie")
		return statePayload{}, false
	}

	var payload statePayload
	if err := h.stateCodec.Decode(stateCookieName, c.Value, &payload); err != nil {
		h.Log.Warn("invalid OAuth state cookie", zap.Error(err))
		return statePayload{}, false
	}
	if payload.State != state {
		h.Log.Warn("OAuth state mismatch")
		return statePayload{}, false
	}
	return payload, true
}

func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+code, http.StatusSeeOther)
}

// googleUserInfo is the subset of Google's userinfo response we use.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
