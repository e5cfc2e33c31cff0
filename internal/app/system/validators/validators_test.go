package validators_test

import (
	"testing"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/system/validators"
	"github.com/imaggar-technologies/brintelli/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_IdempotentAndCreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"leads", "users", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestLeadsSchema(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := db.Collection("leads")
	now := time.Now().UTC()

	valid := bson.M{
		"name":           "Asha",
		"name_ci":        "asha",
		"version":        int64(1),
		"created_at":     now,
		"pipeline_stage": "meet_and_call",
		"call_notes": bson.A{
			bson.M{"notes": "Intro call", "call_date": "2026-03-01", "call_time": "10:30"},
		},
	}
	if _, err := c.InsertOne(ctx, valid); err != nil {
		t.Fatalf("valid lead rejected: %v", err)
	}

	tests := []struct {
		name string
		doc  bson.M
	}{
		{"blank name", bson.M{"name": "  ", "name_ci": "x", "version": int64(1), "created_at": now}},
		{"unknown stage", bson.M{"name": "A", "name_ci": "a", "version": int64(1), "created_at": now, "pipeline_stage": "closed_won"}},
		{"missing version", bson.M{"name": "A", "name_ci": "a", "created_at": now}},
		{"bad call note", bson.M{"name": "A", "name_ci": "a", "version": int64(1), "created_at": now,
			"call_notes": bson.A{bson.M{"notes": "x", "call_date": "1/3/2026", "call_time": "10:30"}}}},
		{"deactivation without reason", bson.M{"name": "A", "name_ci": "a", "version": int64(1), "created_at": now,
			"deactivation": bson.M{"by": "x@y.test", "at": now}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.InsertOne(ctx, tt.doc); err == nil {
				t.Error("expected schema violation")
			}
		})
	}
}

func TestUsersSchema_RejectsUnknownRole(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := db.Collection("users")

	if _, err := c.InsertOne(ctx, bson.M{"full_name": "A", "email": "a@b.test", "role": "sales_agent", "status": "active"}); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}
	if _, err := c.InsertOne(ctx, bson.M{"full_name": "B", "email": "b@b.test", "role": "coordinator", "status": "active"}); err == nil {
		t.Error("expected unknown role to be rejected")
	}
}

func TestAuditEventsSchema(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := db.Collection("audit_events")

	ok := bson.M{"timestamp": time.Now().UTC(), "category": "pipeline", "event_type": "stage_changed", "success": true}
	if _, err := c.InsertOne(ctx, ok); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
	bad := bson.M{"timestamp": time.Now().UTC(), "category": "billing", "event_type": "x", "success": true}
	if _, err := c.InsertOne(ctx, bad); err == nil {
		t.Error("expected unknown category to be rejected")
	}
}
