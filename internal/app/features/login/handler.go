// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	"github.com/fiscora/fiscora/internal/app/store/resettokens"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/app/system/inputval"
	"github.com/fiscora/fiscora/internal/app/system/mailer"
	"github.com/fiscora/fiscora/internal/app/system/status"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Flash      *flash.Store
	Mailer     *mailer.Mailer
	Users      *userstore.Store
	ResetToks  *resettokens.Store
	BaseURL    string // Base URL for reset links (e.g., "https://fiscora.org")
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	flashStore *flash.Store,
	mail *mailer.Mailer,
	baseURL string,
	resetExpiry time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Flash:      flashStore,
		Mailer:     mail,
		Users:      userstore.New(db),
		ResetToks:  resettokens.New(db, resetExpiry),
		BaseURL:    baseURL,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

type forgotFormData struct {
	viewdata.BaseVM
	Error string
	Email string
	Sent  bool
}

type resetFormData struct {
	viewdata.BaseVM
	Error string
	Token string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Sign In", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	returnURL := r.FormValue("return")

	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your email and password.", email, returnURL)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// Same message as a wrong password so the form does not
		// disclose which accounts exist.
		h.renderFormWithError(w, r, "Incorrect email or password.", email, returnURL)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	if u.Status == status.Disabled {
		h.renderFormWithError(w, r,
			"Your account is currently disabled. Please contact an administrator.", email, returnURL)
		return
	}

	if u.PasswordHash == "" {
		h.renderFormWithError(w, r,
			"This account signs in with Google. Use the Google button below.", email, returnURL)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		h.Log.Info("login failed: wrong password", zap.String("user_id", u.ID.Hex()))
		h.renderFormWithError(w, r, "Incorrect email or password.", email, returnURL)
		return
	}

	if err := h.Users.SetLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		h.Log.Warn("record last login failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", email, returnURL)
		return
	}

	dest := urlutil.SafeReturn(returnURL, "", "/dashboard")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, returnURL string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Sign In", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: returnURL,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login/forgot                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeForgot(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login_forgot", forgotFormData{
		BaseVM: viewdata.NewBaseVM(w, r, "Forgot Password", "/login"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login/forgot                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login/forgot")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if !inputval.IsValidEmail(email) {
		templates.Render(w, r, "login_forgot", forgotFormData{
			BaseVM: viewdata.NewBaseVM(w, r, "Forgot Password", "/login"),
			Error:  "Please enter a valid email address.",
			Email:  email,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// Render the sent page regardless so the form does not
		// disclose which accounts exist.
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login/forgot")
		return
	case u.Status == status.Disabled:
		h.Log.Info("reset requested for disabled account", zap.String("user_id", u.ID.Hex()))
	default:
		token, err := h.ResetToks.Create(ctx, u.ID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "create reset token", err, "A server error occurred.", "/login/forgot")
			return
		}

		msg := mailer.BuildResetEmail(mailer.ResetEmailData{
			SiteName:  viewdata.SiteName,
			ResetLink: fmt.Sprintf("%s/login/reset/%s", strings.TrimRight(h.BaseURL, "/"), token),
			ExpiresIn: formatExpiry(h.ResetToks.Expiry()),
		})
		msg.To = u.Email
		if err := h.Mailer.Send(msg); err != nil {
			h.Log.Error("send reset email failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		}
	}

	templates.Render(w, r, "login_forgot", forgotFormData{
		BaseVM: viewdata.NewBaseVM(w, r, "Forgot Password", "/login"),
		Email:  email,
		Sent:   true,
	})
}

// formatExpiry formats a duration as a human-readable string for the
// reset email, e.g. "30 minutes" or "1 hour".
func formatExpiry(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login/reset/{token}                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeReset(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login_reset", resetFormData{
		BaseVM: viewdata.NewBaseVM(w, r, "Reset Password", "/login"),
		Token:  chi.URLParam(r, "token"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login/reset/{token}                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	token := chi.URLParam(r, "token")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	renderErr := func(msg string) {
		templates.Render(w, r, "login_reset", resetFormData{
			BaseVM: viewdata.NewBaseVM(w, r, "Reset Password", "/login"),
			Error:  msg,
			Token:  token,
		})
	}

	if !inputval.IsValidPassword(password) {
		renderErr(fmt.Sprintf("Password must be at least %d characters.", inputval.MinPasswordLength))
		return
	}
	if password != confirm {
		renderErr("Passwords do not match.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, err := h.ResetToks.Consume(ctx, token)
	switch {
	case errors.Is(err, resettokens.ErrNotFound), errors.Is(err, resettokens.ErrMalformedToken):
		renderErr("This reset link is invalid or has expired. Please request a new one.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "consume reset token", err, "A server error occurred.", "/login")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), resettokens.BcryptCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.", "/login")
		return
	}

	if err := h.Users.SetPassword(ctx, userID, string(hash)); err != nil {
		h.ErrLog.LogServerError(w, r, "store password", err, "A server error occurred.", "/login")
		return
	}

	h.Flash.Success(w, r, "Your password has been reset. Sign in with your new password.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
