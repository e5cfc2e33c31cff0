// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	userstore "github.com/imaggar-technologies/brintelli/internal/app/store/users"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auditlog"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/metrics"
	"github.com/imaggar-technologies/brintelli/internal/app/system/phone"
	"github.com/imaggar-technologies/brintelli/internal/app/system/ratelimit"
	"github.com/imaggar-technologies/brintelli/internal/app/system/tasks"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"github.com/imaggar-technologies/brintelli/internal/app/system/workers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the shared services, creates the bootstrap admin and starts the scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n), zap.Any("timeouts", timeouts.Current()))
	}

	svc, err := buildServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	*deps.Services = *svc

	if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
		return err
	}

	snapshot := tasks.StageSnapshotJob(leadstore.New(deps.MongoDatabase), svc.Metrics, logger, appCfg.StageSnapshotSchedule)
	for _, job := range []tasks.Job{snapshot, tasks.LoginLimiterSweepJob(svc.Limiter, logger)} {
		if err := svc.Scheduler.Add(job); err != nil {
			return err
		}
	}
	svc.Scheduler.RunNow(ctx, snapshot)
	svc.Scheduler.Start()
	return nil
}

func buildServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*Services, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tokens, err := auth.NewTokens(appCfg.JWTSecret, appCfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("access tokens: %w", err)
	}
	phones, err := phone.New(appCfg.PhoneDefaultRegion)
	if err != nil {
		return nil, err
	}

	return &Services{
		Registry: reg,
		Metrics:  metrics.New(reg),
		AuditLog: auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
			Auth:     appCfg.AuditLogAuth,
			Pipeline: appCfg.AuditLogPipeline,
		}),
		Tokens:    tokens,
		Limiter:   ratelimit.NewLoginLimiter(appCfg.LoginRatePerMinute),
		Phones:    phones,
		Scheduler: workers.NewScheduler(logger),
	}, nil
}

// ensureAdmin creates the bootstrap admin when configured. Both email and
// password must be set; otherwise nothing happens.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), logger, "ensure admin")
	defer cancel()

	created, err := userstore.New(deps.MongoDatabase).EnsureAdmin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info("created bootstrap admin", zap.String("email", email))
	}
	return nil
}
