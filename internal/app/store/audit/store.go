// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth     = "auth"
	CategoryPipeline = "pipeline"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedBadCredential = "login_failed_bad_credentials"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventTokenRefreshed           = "token_refreshed"
	EventTokenRefreshFailed       = "token_refresh_failed"
	EventLogout                   = "logout"
	EventUserStatusChanged        = "user_status_changed"
)

// Pipeline event types
const (
	EventLeadCreated          = "lead_created"
	EventLeadsImported        = "leads_imported"
	EventLeadAssigned         = "lead_assigned"
	EventPreScreeningSaved    = "prescreening_saved"
	EventCallNoteAdded        = "call_note_added"
	EventStageChanged         = "stage_changed"
	EventAssessmentBooked     = "assessment_booked"
	EventLeadDeactivated      = "lead_deactivated"
	EventPipelineActionDenied = "pipeline_action_denied"
)

// Event is a single audit record. Pipeline events carry LeadID and the
// stage pair; auth events carry UserID.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	// Who
	UserID    *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	Actor     string              `bson:"actor,omitempty" json:"actor,omitempty"` // email identity
	ActorRole string              `bson:"actor_role,omitempty" json:"actorRole,omitempty"`

	// What
	LeadID    *primitive.ObjectID `bson:"lead_id,omitempty" json:"leadId,omitempty"`
	FromStage string              `bson:"from_stage,omitempty" json:"fromStage,omitempty"`
	ToStage   string              `bson:"to_stage,omitempty" json:"toStage,omitempty"`

	IP        string `bson:"ip,omitempty" json:"-"`
	UserAgent string `bson:"user_agent,omitempty" json:"-"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	LeadID    *primitive.ObjectID
	UserID    *primitive.ObjectID
	Actor     string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
	Ascending bool
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.LeadID != nil {
		q["lead_id"] = f.LeadID
	}
	if f.UserID != nil {
		q["user_id"] = f.UserID
	}
	if f.Actor != "" {
		q["actor"] = f.Actor
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// IndexModels returns the indexes behind Query and HistoryForLead.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_ts"),
		},
		{
			Keys:    bson.D{{Key: "lead_id", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("idx_audit_lead_ts"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_ts"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_cat_type_ts"),
		},
	}
}

// EnsureIndexes creates IndexModels on the audit collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, newest first
// unless Ascending is set.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	dir := -1
	if filter.Ascending {
		dir = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: dir}, {Key: "_id", Value: dir}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}

// HistoryForLead returns the pipeline events for a lead in the order they
// happened.
func (s *Store) HistoryForLead(ctx context.Context, leadID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{
		LeadID:    &leadID,
		Category:  CategoryPipeline,
		Limit:     limit,
		Ascending: true,
	})
}

// GetByUser retrieves recent audit events for a specific user.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{UserID: &userID, Limit: limit})
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}

// GetFailedLogins retrieves recent failed login attempts.
func (s *Store) GetFailedLogins(ctx context.Context, since time.Time, limit int64) ([]Event, error) {
	query := bson.M{
		"category": CategoryAuth,
		"success":  false,
		"event_type": bson.M{"$in": []string{
			EventLoginFailedBadCredential,
			EventLoginFailedRateLimit,
		}},
		"timestamp": bson.M{"$gte": since},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
