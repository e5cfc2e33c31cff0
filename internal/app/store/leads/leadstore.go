// internal/app/store/leads/leadstore.go
package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no lead has the requested id.
	ErrNotFound = errors.New("lead not found")
	// ErrConflict is returned when the lead changed since it was read.
	ErrConflict = errors.New("lead was modified concurrently")
	// ErrDuplicate is returned when a lead with the same email exists.
	ErrDuplicate = errors.New("a lead with this email already exists")
)

// DefaultListLimit caps list queries that do not set their own limit.
const DefaultListLimit = 500

// Store manages lead records.
type Store struct {
	c *mongo.Collection
}

// New creates a new lead Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("leads")}
}

// IndexModels are the indexes the list contexts and email dedupe rely on.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "assigned_to", Value: 1},
				{Key: "pipeline_stage", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_lead_owner_stage"),
		},
		{
			Keys: bson.D{
				{Key: "pipeline_stage", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_lead_stage"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_lead_email").SetUnique(true).SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string", "$gt": ""}}),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_lead_name_ci"),
		},
	}
}

// EnsureIndexes creates IndexModels on the leads collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Create inserts a new lead. ID, NameCI and Version are filled in.
func (s *Store) Create(ctx context.Context, l models.Lead) (models.Lead, error) {
	l = prepareInsert(l)
	if _, err := s.c.InsertOne(ctx, l); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Lead{}, ErrDuplicate
		}
		return models.Lead{}, err
	}
	return l, nil
}

// InsertResult reports a bulk insert. Failed maps input index to error.
type InsertResult struct {
	Inserted []models.Lead
	Failed   map[int]error
}

// InsertMany inserts leads unordered, so one duplicate does not stop the
// rest. Per-row duplicates are reported in Failed.
func (s *Store) InsertMany(ctx context.Context, in []models.Lead) (InsertResult, error) {
	res := InsertResult{Failed: map[int]error{}}
	if len(in) == 0 {
		return res, nil
	}
	docs := make([]interface{}, len(in))
	prepared := make([]models.Lead, len(in))
	for i, l := range in {
		prepared[i] = prepareInsert(l)
		docs[i] = prepared[i]
	}

	_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
			return res, err
		}
		for _, we := range bwe.WriteErrors {
			if we.Code == 11000 {
				res.Failed[we.Index] = ErrDuplicate
			} else {
				res.Failed[we.Index] = errors.New(we.Message)
			}
		}
	}
	for i, l := range prepared {
		if _, failed := res.Failed[i]; !failed {
			res.Inserted = append(res.Inserted, l)
		}
	}
	return res, nil
}

// GetByID loads a lead.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Lead, error) {
	var l models.Lead
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Lead{}, ErrNotFound
	}
	return l, err
}

// List returns leads matching filter, newest first. A nil filter matches
// everything; limit <= 0 uses DefaultListLimit.
func (s *Store) List(ctx context.Context, filter bson.M, limit int64) ([]models.Lead, error) {
	if filter == nil {
		filter = bson.M{}
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Lead, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Apply persists the change from before to after in one conditional update.
// The update only matches while the stored version equals before.Version;
// otherwise ErrConflict (or ErrNotFound) is returned and nothing is written.
// Call notes and bookings added in after are pushed, never rewritten.
func (s *Store) Apply(ctx context.Context, before, after models.Lead) (models.Lead, error) {
	if before.ID.IsZero() || before.ID != after.ID {
		return models.Lead{}, fmt.Errorf("apply: lead ids do not match")
	}
	if len(after.CallNotes) < len(before.CallNotes) || len(after.AssessmentBookings) < len(before.AssessmentBookings) {
		return models.Lead{}, fmt.Errorf("apply: call notes and bookings are append-only")
	}

	now := time.Now().UTC()
	if after.UpdatedAt != nil {
		now = *after.UpdatedAt
	}

	set := bson.M{
		"assigned_to":    after.AssignedTo,
		"pipeline_stage": after.PipelineStage,
		"pre_screening":  after.PreScreening,
		"updated_at":     now,
	}
	unset := bson.M{}
	if after.Assessment != nil {
		set["assessment"] = after.Assessment
	} else {
		unset["assessment"] = ""
	}
	if after.Deactivation != nil {
		set["deactivation"] = after.Deactivation
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	push := bson.M{}
	if added := after.CallNotes[len(before.CallNotes):]; len(added) > 0 {
		push["call_notes"] = bson.M{"$each": added}
	}
	if added := after.AssessmentBookings[len(before.AssessmentBookings):]; len(added) > 0 {
		push["assessment_bookings"] = bson.M{"$each": added}
	}
	if len(push) > 0 {
		update["$push"] = push
	}

	filter := bson.M{"_id": before.ID, "version": before.Version}
	if before.Version == 0 {
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
	}

	var saved models.Lead
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&saved)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": before.ID})
		if cerr != nil {
			return models.Lead{}, cerr
		}
		if n == 0 {
			return models.Lead{}, ErrNotFound
		}
		return models.Lead{}, ErrConflict
	}
	if err != nil {
		return models.Lead{}, err
	}
	return saved, nil
}

// StageCounts returns the number of leads per effective stage. Deactivated
// leads count under lead_dump. Leads with no stored stage count as
// primary_screening.
func (s *Store) StageCounts(ctx context.Context) (map[models.Stage]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"stage": bson.M{"$cond": bson.A{
				bson.M{"$or": bson.A{
					bson.M{"$gt": bson.A{"$deactivation", nil}},
					bson.M{"$eq": bson.A{"$pipeline_stage", models.StageLeadDump}},
				}},
				models.StageLeadDump,
				bson.M{"$ifNull": bson.A{"$pipeline_stage", models.StagePrimaryScreening}},
			}},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$stage", "n": bson.M{"$sum": 1}}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Stage string `bson:"_id"`
		N     int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make(map[models.Stage]int64, len(rows))
	for _, r := range rows {
		st := models.Stage(r.Stage)
		if st == "" {
			st = models.StagePrimaryScreening
		}
		out[st] += r.N
	}
	return out, nil
}

func prepareInsert(l models.Lead) models.Lead {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	l.NameCI = text.Fold(l.Name)
	if l.PipelineStage == "" {
		l.PipelineStage = models.StagePrimaryScreening
	}
	if l.Version == 0 {
		l.Version = 1
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return l
}
