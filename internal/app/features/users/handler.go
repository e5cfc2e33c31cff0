// internal/app/features/users/handler.go
package users

import (
	"context"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/store/refreshtokens"
	userstore "github.com/imaggar-technologies/brintelli/internal/app/store/users"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auditlog"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// StatusStore flips an account between active and disabled.
// *userstore.Store implements it.
type StatusStore interface {
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
}

// SessionRevoker drops every refresh token a user holds.
// *refreshtokens.Store implements it.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

// Handler serves /api/users.
type Handler struct {
	Users    StatusStore
	Sessions SessionRevoker
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, rdb *redis.Client, refreshTTL time.Duration, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Sessions: refreshtokens.New(rdb, refreshTTL),
		AuditLog: auditLog,
		Log:      logger,
	}
}
