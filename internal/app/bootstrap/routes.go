// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	auditlogfeature "github.com/imaggar-technologies/brintelli/internal/app/features/auditlog"
	authapifeature "github.com/imaggar-technologies/brintelli/internal/app/features/authapi"
	healthfeature "github.com/imaggar-technologies/brintelli/internal/app/features/health"
	leadsfeature "github.com/imaggar-technologies/brintelli/internal/app/features/leads"
	usersfeature "github.com/imaggar-technologies/brintelli/internal/app/features/users"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so deps.Services is populated.
//
// Every request passes through CORS, request metrics and bearer-token
// loading; feature routers then decide which endpoints require a user.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Tokens == nil {
		return nil, fmt.Errorf("services not initialized; Startup must run before BuildHandler")
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(svc.Metrics.Middleware)

	// Global auth middleware: loads the bearer-token user into context.
	r.Use(svc.Tokens.LoadBearerUser(logger))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", svc.Metrics.Handler())

	// Authentication
	authHandler := authapifeature.NewHandler(deps.MongoDatabase, deps.Redis, svc.Tokens, authapifeature.Config{
		RefreshTTL: appCfg.RefreshTokenTTL,
		Limiter:    svc.Limiter,
	}, svc.AuditLog, svc.Metrics, logger)
	r.Mount("/api/auth", authapifeature.Routes(authHandler))

	// Lead pipeline
	leadsHandler := leadsfeature.NewHandler(deps.MongoDatabase, svc.AuditLog, svc.Metrics, svc.Phones, logger)
	r.Mount("/api/leads", leadsfeature.Routes(leadsHandler))

	// Audit trail for department heads and admins
	auditHandler := auditlogfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/audit", auditlogfeature.Routes(auditHandler))

	// Account administration
	usersHandler := usersfeature.NewHandler(deps.MongoDatabase, deps.Redis, appCfg.RefreshTokenTTL, svc.AuditLog, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler))

	return r, nil
}
