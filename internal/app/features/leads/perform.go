// internal/app/features/leads/perform.go
package leads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/imaggar-technologies/brintelli/internal/app/policy/leadpolicy"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/inputval"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// mutation computes the new lead state. It runs after the permission and
// ownership checks and must not touch the store.
type mutation func(l models.Lead, actor authz.Actor, now time.Time) (pipeline.Outcome, error)

// decoder reads and validates the request body. It runs before the lead is
// loaded, so a bad body never costs a lookup.
type decoder func(ctx context.Context) error

func leadID(r *http.Request) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &pipeline.ValidationError{Field: "id", Message: "not a valid lead id"}
	}
	return id, nil
}

// perform runs one pipeline action end to end:
//
//  1. role permission for the action (and target stage)
//  2. request validation, through decode (may be nil)
//  3. lead lookup
//  4. ownership scope for self-scoped roles
//  5. the transition guards, inside mut
//  6. the version-conditional write
//
// Nothing is written unless every step before 6 succeeds. Successful
// actions are recorded in the audit trail and metrics. On failure the error
// envelope has been written and ok is false.
func (h *Handler) perform(w http.ResponseWriter, r *http.Request, action pipeline.Action, target models.Stage, decode decoder, mut mutation) (o pipeline.Outcome, actor authz.Actor, ok bool) {
	actor, _ = authz.UserCtx(r)
	id, err := leadID(r)
	if err != nil {
		h.fail(w, action, err)
		return o, actor, false
	}

	if perm, ok := leadpolicy.RequiredPermission(action, target); !ok || !actor.Can(perm) {
		err := fmt.Errorf("%w: %s", pipeline.ErrPermissionDenied, action)
		h.AuditLog.ActionDenied(r.Context(), r, actor, id, action, "missing role permission")
		h.fail(w, action, err)
		return o, actor, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "lead "+string(action))
	defer cancel()

	if decode != nil {
		if err := decode(ctx); err != nil {
			h.fail(w, action, err)
			return o, actor, false
		}
	}

	before, err := h.Leads.GetByID(ctx, id)
	if err != nil {
		h.fail(w, action, err)
		return o, actor, false
	}
	if err := leadpolicy.CanPerform(actor, before, action, target); err != nil {
		h.AuditLog.ActionDenied(ctx, r, actor, id, action, "lead not in caller's scope")
		h.fail(w, action, err)
		return o, actor, false
	}

	o, err = mut(before, actor, h.now())
	if err != nil {
		h.fail(w, action, err)
		return o, actor, false
	}

	saved, err := h.Leads.Apply(ctx, before, o.Lead)
	if err != nil {
		if errors.Is(err, leadstore.ErrConflict) {
			h.Log.Info("stale lead write rejected",
				zap.String("lead_id", id.Hex()),
				zap.String("actor", actor.Identity),
				zap.String("action", string(action)),
				zap.Error(err))
		}
		h.fail(w, action, err)
		return o, actor, false
	}
	o.Lead = saved

	h.AuditLog.Outcome(ctx, r, actor, o)
	h.Metrics.ObserveOutcome(o)
	return o, actor, true
}

// act runs perform and answers with the updated lead.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, action pipeline.Action, target models.Stage, decode decoder, mut mutation) {
	if o, actor, ok := h.perform(w, r, action, target, decode, mut); ok {
		httpjson.OK(w, toActionResponse(actor, o))
	}
}

// fail counts the failed attempt and writes the error envelope.
func (h *Handler) fail(w http.ResponseWriter, action pipeline.Action, err error) {
	h.Metrics.ObserveAction(action, err)
	httpjson.FromError(w, h.Log, err)
}

// decodeValid decodes the body into dst and runs its validation rules.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := httpjson.Decode(w, r, dst); err != nil {
		return err
	}
	return inputval.Validate(dst).Err()
}

// body returns a decoder that fills dst with decodeValid.
func body(w http.ResponseWriter, r *http.Request, dst any) decoder {
	return func(context.Context) error { return decodeValid(w, r, dst) }
}
