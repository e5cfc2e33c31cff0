// internal/app/features/leads/handler.go
package leads

import (
	"context"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	userstore "github.com/imaggar-technologies/brintelli/internal/app/store/users"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auditlog"
	"github.com/imaggar-technologies/brintelli/internal/app/system/leadimport"
	"github.com/imaggar-technologies/brintelli/internal/app/system/metrics"
	"github.com/imaggar-technologies/brintelli/internal/app/system/phone"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// LeadStore is the persistence the handlers need. *leadstore.Store
// implements it; tests use an in-memory fake.
type LeadStore interface {
	Create(ctx context.Context, l models.Lead) (models.Lead, error)
	InsertMany(ctx context.Context, in []models.Lead) (leadstore.InsertResult, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Lead, error)
	List(ctx context.Context, filter bson.M, limit int64) ([]models.Lead, error)
	Apply(ctx context.Context, before, after models.Lead) (models.Lead, error)
}

// HistoryStore reads the pipeline audit trail of a lead.
type HistoryStore interface {
	HistoryForLead(ctx context.Context, leadID primitive.ObjectID, limit int64) ([]audit.Event, error)
}

// Handler serves the lead pipeline API.
type Handler struct {
	Leads    LeadStore
	History  HistoryStore
	Users    UserDirectory
	AuditLog *auditlog.Logger
	Metrics  *metrics.Metrics
	Phones   *phone.Normalizer
	Importer *leadimport.Importer
	Log      *zap.Logger

	// Now is the clock used for every write; tests pin it.
	Now func() time.Time
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, m *metrics.Metrics, phones *phone.Normalizer, logger *zap.Logger) *Handler {
	return &Handler{
		Leads:    leadstore.New(db),
		History:  audit.New(db),
		Users:    userstore.New(db),
		AuditLog: auditLog,
		Metrics:  m,
		Phones:   phones,
		Importer: leadimport.New(phones),
		Log:      logger,
		Now:      time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}
