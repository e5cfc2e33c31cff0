package testutil

import (
	"net/http"

	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// AdminUser returns a TestUser with the admin (wildcard) role.
func AdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@brintelli.test",
		Role:  "admin",
	}
}

// SalesAgent returns a TestUser with the lowest sales role.
func SalesAgent(email string) TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Agent",
		Email: email,
		Role:  "sales_agent",
	}
}

// SalesLead returns a TestUser with the team-lead sales role.
func SalesLead() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Team Lead",
		Email: "teamlead@brintelli.test",
		Role:  "sales_lead",
	}
}

// SalesHead returns a TestUser with the department-head sales role.
func SalesHead() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Head",
		Email: "head@brintelli.test",
		Role:  "sales_head",
	}
}

// WithUser attaches the test user to the request.
func WithUser(r *http.Request, u TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	})
}
