// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/imaggar-technologies/brintelli/internal/app/system/auditlog"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/metrics"
	"github.com/imaggar-technologies/brintelli/internal/app/system/phone"
	"github.com/imaggar-technologies/brintelli/internal/app/system/ratelimit"
	"github.com/imaggar-technologies/brintelli/internal/app/system/workers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Redis         *redis.Client

	// Services is allocated by ConnectDB and filled in by Startup. WAFFLE
	// passes DBDeps by value, so the pointer is what lets BuildHandler and
	// Shutdown see what Startup built.
	Services *Services
}

// Services are the long-lived app components shared across handlers.
type Services struct {
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	AuditLog  *auditlog.Logger
	Tokens    *auth.Tokens
	Limiter   *ratelimit.LoginLimiter
	Phones    *phone.Normalizer
	Scheduler *workers.Scheduler
}
