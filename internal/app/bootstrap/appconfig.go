// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging level, CORS, request limits). AppConfig is everything
// specific to this application: connection strings, session settings,
// OAuth credentials, and audit behavior.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: storybook-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth callbacks and invite links
	BaseURL string // e.g., "https://stories.example.com" or "http://localhost:3000"

	// Google OAuth configuration (sign-in provisioning)
	GoogleClientID     string
	GoogleClientSecret string

	// Audit event logging: "all" (db+log), "db", "log", or "off"
	AuditLog string
}
