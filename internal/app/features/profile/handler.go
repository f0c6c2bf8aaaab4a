// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/authz"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/app/system/formutil"
	"github.com/fiscora/fiscora/internal/app/system/inputval"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// Handler serves the self-service profile screens. Role, status, and
// memberships are not editable here; an admin changes those through the
// account management screens.
type Handler struct {
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Flash  *flash.Store
	Users  *userstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, flashStore *flash.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		ErrLog: errLog,
		Flash:  flashStore,
		Users:  userstore.New(db),
	}
}

type profileData struct {
	formutil.Base
	FullName      string
	Email         string
	Role          string
	AuthMethod    string
	Theme         string
	Currency      string
	Language      string
	Notifications models.NotificationPrefs
	Themes        []string
	PasswordError string
}

// themes offered on the profile screen.
var themes = []string{"system", "light", "dark"}

// currentUser loads the signed-in account fresh from the store.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request, ctx context.Context) (*models.User, bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err == mongo.ErrNoDocuments {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile", err, "Unable to load your profile.", "/dashboard")
		return nil, false
	}
	return user, true
}

func (h *Handler) pageData(user *models.User, r *http.Request) profileData {
	data := profileData{
		FullName:      user.FullName,
		Email:         user.Email,
		Role:          user.Role,
		AuthMethod:    user.AuthMethod,
		Theme:         user.Preferences.Theme,
		Currency:      user.Preferences.Currency,
		Language:      user.Preferences.Language,
		Notifications: user.Preferences.Notifications,
		Themes:        themes,
	}
	formutil.SetBase(&data.Base, r, "My Profile", "/dashboard")
	return data
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /profile                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(w, r, ctx)
	if !ok {
		return
	}
	templates.Render(w, r, "profile", h.pageData(user, r))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /profile                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(w, r, ctx)
	if !ok {
		return
	}

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	if fullName == "" {
		data := h.pageData(user, r)
		data.SetError("Full name is required.")
		templates.Render(w, r, "profile", data)
		return
	}

	prefs := user.Preferences
	if theme := r.FormValue("theme"); validTheme(theme) {
		prefs.Theme = theme
	}
	if currency := strings.TrimSpace(r.FormValue("currency")); currency != "" {
		prefs.Currency = strings.ToUpper(currency)
	}
	if language := strings.TrimSpace(r.FormValue("language")); language != "" {
		prefs.Language = strings.ToLower(language)
	}
	prefs.Notifications = models.NotificationPrefs{
		Email:            r.FormValue("notify_email") == "on",
		Push:             r.FormValue("notify_push") == "on",
		BudgetAlerts:     r.FormValue("notify_budget_alerts") == "on",
		ApprovalRequests: r.FormValue("notify_approval_requests") == "on",
	}

	if err := h.Users.UpdateProfile(ctx, user.ID, fullName, prefs); err != nil {
		h.ErrLog.LogServerError(w, r, "update profile", err, "Unable to save your profile.", "/profile")
		return
	}

	h.Flash.Success(w, r, "Profile updated.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /profile/password                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(w, r, ctx)
	if !ok {
		return
	}

	renderErr := func(msg string) {
		data := h.pageData(user, r)
		data.PasswordError = msg
		templates.Render(w, r, "profile", data)
	}

	if user.AuthMethod != "password" || user.PasswordHash == "" {
		renderErr("This account signs in with Google and has no password.")
		return
	}
	current := r.FormValue("current_password")
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		renderErr("Current password is incorrect.")
		return
	}
	newPassword := r.FormValue("new_password")
	if !inputval.IsValidPassword(newPassword) {
		renderErr(fmt.Sprintf("New password must be at least %d characters.", inputval.MinPasswordLength))
		return
	}
	if newPassword != r.FormValue("confirm_password") {
		renderErr("New passwords do not match.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.", "/profile")
		return
	}
	if err := h.Users.SetPassword(ctx, user.ID, string(hash)); err != nil {
		h.ErrLog.LogServerError(w, r, "set password", err, "Unable to change your password.", "/profile")
		return
	}

	h.Log.Info("password changed", zap.String("user_id", user.ID.Hex()))
	h.Flash.Success(w, r, "Password changed.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func validTheme(theme string) bool {
	for _, t := range themes {
		if t == theme {
			return true
		}
	}
	return false
}
