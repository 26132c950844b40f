// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/RoelandC/our-storybook-collective/internal/app/store/oauthstate"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Sweep OAuth states abandoned while the app was down; the TTL index
	// handles them from here on.
	if n, err := oauthstate.New(deps.MongoDatabase).CleanupExpired(ctx); err != nil {
		logger.Warn("oauth state cleanup failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("cleaned up expired oauth states", zap.Int64("count", n))
	}
	return nil
}
