// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections if missing and attaches JSON-Schema
// validators. Servers without collMod validators (some DocumentDB versions)
// are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll, log); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				log.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		log.Debug("validator ensured", zap.String("collection", coll))
	}

	ensure("leads", LeadsSchema())
	ensure("users", UsersSchema())
	ensure("audit_events", AuditEventsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func ensureCollection(ctx context.Context, db *mongo.Database, name string, log *zap.Logger) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// another instance created it first
		if isNamespaceExists(err) {
			return nil
		}
		return err
	}
	log.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

func commandErr(err error, codes ...int32) (mongo.CommandError, bool) {
	var ce mongo.CommandError
	if !errors.As(err, &ce) {
		return ce, false
	}
	for _, c := range codes {
		if ce.Code == c {
			return ce, true
		}
	}
	return ce, false
}

func isNamespaceExists(err error) bool {
	if _, ok := commandErr(err, 48); ok {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isUnsupported(err error) bool {
	if _, ok := commandErr(err, 59, 115); ok {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "no such command") ||
		strings.Contains(s, "not implemented") ||
		strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func stageEnum() bson.A {
	out := bson.A{}
	for _, s := range models.ForwardStages {
		out = append(out, string(s))
	}
	return append(out, string(models.StageLeadDump))
}

func callNoteSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"notes", "call_date", "call_time"},
		"properties": bson.M{
			"notes":     nonBlank,
			"call_date": bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"call_time": bson.M{"bsonType": "string", "pattern": `^\d{2}:\d{2}$`},
		},
	}
}

// LeadsSchema requires the identity and audit fields of a lead, restricts
// the stage to the known set and checks appended call notes.
func LeadsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "version", "created_at"},
			"properties": bson.M{
				"name":           nonBlank,
				"name_ci":        nonBlank,
				"email":          bson.M{"bsonType": "string"},
				"phone":          bson.M{"bsonType": "string"},
				"assigned_to":    bson.M{"bsonType": "string"},
				"pipeline_stage": bson.M{"enum": stageEnum()},
				"version":        bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 1},
				"created_at":     bson.M{"bsonType": "date"},
				"call_notes":     bson.M{"bsonType": "array", "items": callNoteSchema()},
				"deactivation": bson.M{
					"bsonType": "object",
					"required": bson.A{"reason", "by", "at"},
					"properties": bson.M{
						"reason": nonBlank,
						"by":     bson.M{"bsonType": "string"},
						"at":     bson.M{"bsonType": "date"},
					},
				},
			},
		},
	}
}

// UsersSchema restricts role and status to the known values.
func UsersSchema() bson.M {
	roles := bson.A{}
	for _, r := range authz.Roles() {
		roles = append(roles, string(r))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "status"},
			"properties": bson.M{
				"full_name":     bson.M{"bsonType": "string"},
				"email":         nonBlank,
				"password_hash": bson.M{"bsonType": "string"},
				"role":          bson.M{"enum": roles},
				"status":        bson.M{"enum": bson.A{models.UserStatusActive, models.UserStatusDisabled}},
			},
		},
	}
}

// AuditEventsSchema requires the classification fields of every event.
func AuditEventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"timestamp", "category", "event_type", "success"},
			"properties": bson.M{
				"timestamp":  bson.M{"bsonType": "date"},
				"category":   bson.M{"enum": bson.A{audit.CategoryAuth, audit.CategoryPipeline}},
				"event_type": nonBlank,
				"success":    bson.M{"bsonType": "bool"},
				"lead_id":    bson.M{"bsonType": "objectId"},
				"user_id":    bson.M{"bsonType": "objectId"},
			},
		},
	}
}
