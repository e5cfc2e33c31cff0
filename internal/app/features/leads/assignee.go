// internal/app/features/leads/assignee.go
package leads

import (
	"context"
	"errors"

	userstore "github.com/imaggar-technologies/brintelli/internal/app/store/users"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
)

// UserDirectory resolves assignee emails to accounts. *userstore.Store
// implements it.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// checkAssignee requires an active account whose role holds
// sales:view_leads.
func (h *Handler) checkAssignee(ctx context.Context, field, email string) error {
	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		return &pipeline.ValidationError{Field: field, Message: "no account with that email"}
	}
	if err != nil {
		return err
	}
	if u.Status != models.UserStatusActive {
		return &pipeline.ValidationError{Field: field, Message: "that account is disabled"}
	}
	if !authz.Has(authz.Role(u.Role), authz.PermViewLeads) {
		return &pipeline.ValidationError{Field: field, Message: "that account does not work on leads"}
	}
	return nil
}
