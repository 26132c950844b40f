// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/RoelandC/our-storybook-collective/internal/app/features/authgoogle"
	errorsfeature "github.com/RoelandC/our-storybook-collective/internal/app/features/errors"
	healthfeature "github.com/RoelandC/our-storybook-collective/internal/app/features/health"
	loginfeature "github.com/RoelandC/our-storybook-collective/internal/app/features/login"
	logoutfeature "github.com/RoelandC/our-storybook-collective/internal/app/features/logout"
	storiesfeature "github.com/RoelandC/our-storybook-collective/internal/app/features/stories"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/auditlog"
	"github.com/RoelandC/our-storybook-collective/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. It initializes the session
// store, applies the session middleware globally, and mounts the
// feature routers: health, auth (login/logout/Google), and stories.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	audit := auditlog.New(deps.MongoDatabase, logger, appCfg.AuditLog)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, errLog, audit, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(
		deps.MongoDatabase, audit,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Stories: the collaborative core
	storiesHandler := storiesfeature.NewHandler(deps.MongoDatabase, errLog, audit, logger)
	r.Mount("/stories", storiesfeature.Routes(storiesHandler))

	return r, nil
}
