package pipeline

import (
	"errors"
	"fmt"

	"github.com/imaggar-technologies/brintelli/internal/domain/models"
)

var (
	// ErrPermissionDenied is returned when the caller's role or ownership does
	// not allow the action. It is not retryable without a role change.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDeactivated is wrapped by guard errors raised against a lead in the
	// lead dump.
	ErrDeactivated = errors.New("lead is deactivated")
)

// GuardError reports a transition whose guard is unmet. The lead is left
// untouched whenever one is returned.
type GuardError struct {
	Action Action
	From   models.Stage
	To     models.Stage // empty when the action has no target stage
	Reason string
	Err    error // optional cause, e.g. ErrDeactivated
}

func (e *GuardError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("%s: cannot move lead from %s to %s: %s", e.Action, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("%s: not allowed in stage %s: %s", e.Action, e.From, e.Reason)
}

func (e *GuardError) Unwrap() error { return e.Err }

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsGuard reports whether err is (or wraps) a *GuardError.
func IsGuard(err error) bool {
	var ge *GuardError
	return errors.As(err, &ge)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func deactivatedGuard(action Action, l models.Lead) error {
	return &GuardError{
		Action: action,
		From:   l.CurrentStage(),
		Reason: "lead has been moved to the lead dump",
		Err:    ErrDeactivated,
	}
}
