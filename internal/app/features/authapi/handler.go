// internal/app/features/authapi/handler.go
package authapi

import (
	"context"

	"github.com/imaggar-technologies/brintelli/internal/app/store/refreshtokens"
	userstore "github.com/imaggar-technologies/brintelli/internal/app/store/users"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auditlog"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/metrics"
	"github.com/imaggar-technologies/brintelli/internal/app/system/ratelimit"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Authenticator checks a login. *userstore.Store implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// UserFetcher reloads a user on refresh so disabled accounts and role
// changes take effect. *userstore.Fetcher implements it.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *auth.SessionUser
}

// RefreshStore issues and rotates refresh tokens. *refreshtokens.Store
// implements it.
type RefreshStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	Rotate(ctx context.Context, raw string) (refreshtokens.Session, string, error)
	Revoke(ctx context.Context, raw string) error
}

// Handler serves /api/auth.
type Handler struct {
	Users    Authenticator
	Fetcher  UserFetcher
	Refresh  RefreshStore
	Tokens   *auth.Tokens
	Limiter  *ratelimit.LoginLimiter
	AuditLog *auditlog.Logger
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, rdb *redis.Client, tokens *auth.Tokens, cfg Config, auditLog *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Fetcher:  userstore.NewFetcher(db),
		Refresh:  refreshtokens.New(rdb, cfg.RefreshTTL),
		Tokens:   tokens,
		Limiter:  cfg.Limiter,
		AuditLog: auditLog,
		Metrics:  m,
		Log:      logger,
	}
}
