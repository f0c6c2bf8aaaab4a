// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: HTTP ports, TLS, logging
// level and the like live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: fiscora-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Cookie signing keys for the non-session cookies
	CSRFKey           string // gorilla/csrf signing key (32 bytes)
	SelectionHashKey  string // signing key for the organization-selection cookie
	OAuthStateHashKey string // signing key for the Google OAuth state cookie

	// Google OAuth configuration (blank disables the Google sign-in button)
	GoogleClientID     string
	GoogleClientSecret string

	// Email/SMTP configuration (blank host logs mail instead of sending)
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string // From email address (e.g., noreply@fiscora.app)

	// Base URL for links in email and OAuth callbacks
	BaseURL string // e.g., "https://fiscora.app" or "http://localhost:3000"

	// Password reset settings
	ResetExpiry time.Duration // Lifetime of a password-reset link
}
