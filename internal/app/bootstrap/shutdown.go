// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown runs in reverse order of Startup: cron jobs first so no snapshot
// or sweep is mid-flight against a closed client, then Redis, then MongoDB.
// Both client errors are reported; neither stops the other from closing.
func Shutdown(ctx context.Context, _ *config.CoreConfig, _ AppConfig, deps DBDeps, logger *zap.Logger) error {
	if svc := deps.Services; svc != nil && svc.Scheduler != nil {
		svc.Scheduler.Stop(ctx)
	}

	var errs []error
	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Error("redis close", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.MongoClient != nil {
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("mongo disconnect", zap.Error(err))
			errs = append(errs, err)
		}
	}
	logger.Info("brintelli stopped", zap.Int("close_errors", len(errs)))
	return errors.Join(errs...)
}
