// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	uierrors "github.com/fiscora/fiscora/internal/app/features/errors"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/app/system/inputval"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

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

type registerFormData struct {
	viewdata.BaseVM
	Error    string
	FullName string
	Email    string
}

// ServeForm renders the registration page.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "register", registerFormData{
		BaseVM: viewdata.NewBaseVM(w, r, "Create Account", "/"),
	})
}

// HandleSubmit creates the account. The very first account in the system
// becomes an app admin; everyone after that starts as a regular user.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	renderErr := func(msg string) {
		templates.Render(w, r, "register", registerFormData{
			BaseVM:   viewdata.NewBaseVM(w, r, "Create Account", "/"),
			Error:    msg,
			FullName: fullName,
			Email:    email,
		})
	}

	if fullName == "" {
		renderErr("Please enter your full name.")
		return
	}
	if !inputval.IsValidEmail(email) {
		renderErr("Please enter a valid email address.")
		return
	}
	if !inputval.IsValidPassword(password) {
		renderErr(fmt.Sprintf("Password must be at least %d characters.", inputval.MinPasswordLength))
		return
	}
	if password != confirm {
		renderErr("Passwords do not match.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.", "/register")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	role, err := h.roleForNewAccount(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count users", err, "A server error occurred.", "/register")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		renderErr("An account with that email already exists. Try signing in instead.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create user", err, "A server error occurred.", "/register")
		return
	}

	h.Log.Info("account registered",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role))

	h.Flash.Success(w, r, "Your account has been created. Sign in to get started.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// roleForNewAccount gives the first registrant app_admin so a fresh
// deployment always has an administrator.
func (h *Handler) roleForNewAccount(ctx context.Context) (string, error) {
	n, err := h.Users.CountAll(ctx)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return models.RoleAppAdmin, nil
	}
	return models.RoleUser, nil
}
