package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// FakeLead returns an unsaved lead in the initial stage with realistic
// contact details.
func FakeLead() models.Lead {
	name := gofakeit.Name()
	return models.Lead{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		Email:         strings.ToLower(gofakeit.Email()),
		Phone:         "+9198" + gofakeit.Numerify("########"),
		Source:        "manual",
		PipelineStage: models.StagePrimaryScreening,
		Version:       1,
		CreatedBy:     "fixtures@brintelli.test",
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateLead inserts a fake lead after applying mods.
func (f *Fixtures) CreateLead(ctx context.Context, mods ...func(*models.Lead)) models.Lead {
	f.t.Helper()

	l := FakeLead()
	for _, m := range mods {
		m(&l)
	}
	if _, err := f.db.Collection("leads").InsertOne(ctx, l); err != nil {
		f.t.Fatalf("failed to create test lead: %v", err)
	}
	return l
}

// CreateUser inserts an active user with the given role and password.
func (f *Fixtures) CreateUser(ctx context.Context, email, role, password string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	name := gofakeit.Name()
	now := time.Now().UTC().Truncate(time.Millisecond)
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     name,
		FullNameCI:   text.Fold(name),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// AssignedTo sets the lead's owner.
func AssignedTo(email string) func(*models.Lead) {
	return func(l *models.Lead) { l.AssignedTo = email }
}

// InStage sets the lead's stage.
func InStage(s models.Stage) func(*models.Lead) {
	return func(l *models.Lead) { l.PipelineStage = s }
}

// Deactivated marks the lead as dumped.
func Deactivated(reason string) func(*models.Lead) {
	return func(l *models.Lead) {
		l.Deactivation = &models.Deactivation{Reason: reason, By: "fixtures@brintelli.test", At: time.Now().UTC().Truncate(time.Millisecond)}
	}
}
