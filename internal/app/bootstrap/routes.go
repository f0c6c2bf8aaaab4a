// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/fiscora/fiscora/internal/app/features/authgoogle"
	dashboardfeature "github.com/fiscora/fiscora/internal/app/features/dashboard"
	departmentsfeature "github.com/fiscora/fiscora/internal/app/features/departments"
	errorsfeature "github.com/fiscora/fiscora/internal/app/features/errors"
	healthfeature "github.com/fiscora/fiscora/internal/app/features/health"
	homefeature "github.com/fiscora/fiscora/internal/app/features/home"
	loginfeature "github.com/fiscora/fiscora/internal/app/features/login"
	logoutfeature "github.com/fiscora/fiscora/internal/app/features/logout"
	organizationsfeature "github.com/fiscora/fiscora/internal/app/features/organizations"
	profilefeature "github.com/fiscora/fiscora/internal/app/features/profile"
	registerfeature "github.com/fiscora/fiscora/internal/app/features/register"
	reportsfeature "github.com/fiscora/fiscora/internal/app/features/reports"
	selectorfeature "github.com/fiscora/fiscora/internal/app/features/selector"
	settingsfeature "github.com/fiscora/fiscora/internal/app/features/settings"
	usersfeature "github.com/fiscora/fiscora/internal/app/features/users"
	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/flash"
	"github.com/fiscora/fiscora/internal/app/system/mailer"
	"github.com/fiscora/fiscora/internal/app/system/scope"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	gorillasessions "github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Fiscora initializes the template engine,
// the session manager, the organization-scope gate, and CSRF protection,
// then mounts the feature routers.
//
// Route layout:
//   - public: home, health, login (+forgot/reset), register, Google sign-in
//   - signed-in, pre-scope: selector, logout, profile, management views
//   - scoped (behind the gate): dashboard, reports, settings
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	secure := coreCfg.Env == "prod"

	// Session manager with the store-backed fetcher so role changes,
	// disabled accounts, and profile edits take effect on the next request.
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	// Flash toasts ride a separate short-lived cookie; the view-model layer
	// pops them into every rendered page.
	flashStore := flash.NewStore(gorillasessions.NewCookieStore([]byte(appCfg.SessionKey)), logger)
	viewdata.Init(flashStore)

	// Organization scope: availability service, signed selection cookie,
	// and the gate that guards the scoped routes.
	scopeSvc := scope.NewService(organizationstore.New(db), departmentstore.New(db), logger)
	selection := scope.NewSelectionStore([]byte(appCfg.SelectionHashKey), secure)
	gate := scope.NewGate(scopeSvc, selection, logger)

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
	}, logger)

	r := chi.NewRouter()

	// Global middleware: CSRF protection on all form posts, then the
	// session user loader so auth.CurrentUser works everywhere.
	r.Use(csrf.Protect([]byte(appCfg.CSRFKey), csrf.Secure(secure), csrf.Path("/")))
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, flashStore, mail, appCfg.BaseURL, appCfg.ResetExpiry, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	registerHandler := registerfeature.NewHandler(db, errLog, flashStore, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	googleHandler := authgooglefeature.NewHandler(db, sessionMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		[]byte(appCfg.OAuthStateHashKey), secure, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, selection, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Organization picker (signed-in, no scope required)
	selectorHandler := selectorfeature.NewHandler(db, scopeSvc, selection, errLog, flashStore, logger)
	r.Mount("/select-organization", selectorfeature.Routes(selectorHandler, sessionMgr))

	// Self-service profile
	profileHandler := profilefeature.NewHandler(db, errLog, flashStore, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Management views. These check permissions per request rather than
	// per organization scope, so app admins can administer everything
	// without first picking an organization.
	orgHandler := organizationsfeature.NewHandler(db, errLog, flashStore, logger)
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler, sessionMgr))

	deptHandler := departmentsfeature.NewHandler(db, errLog, flashStore, logger)
	r.Mount("/organizations/{id}/departments", departmentsfeature.Routes(deptHandler, sessionMgr))

	usersHandler := usersfeature.NewHandler(db, errLog, flashStore, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Scoped pages, reachable only with an active organization selection.
	r.Group(func(sr chi.Router) {
		sr.Use(sessionMgr.RequireSignedIn)
		sr.Use(gate.RequireScope)

		dashboardHandler := dashboardfeature.NewHandler(db, errLog, logger)
		sr.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

		reportsHandler := reportsfeature.NewHandler(logger)
		sr.Mount("/reports", reportsfeature.Routes(reportsHandler))

		settingsHandler := settingsfeature.NewHandler(logger)
		sr.Mount("/settings", settingsfeature.Routes(settingsHandler))
	})

	return r, nil
}
