// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/ratelimit"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination values for Config fields.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls login, refresh and logout events.
	Auth string
	// Pipeline controls lead events (creation, notes, stage changes, deactivation).
	Pipeline string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when only zap output is
// configured.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.Actor != "" {
		fields = append(fields, zap.String("actor", event.Actor), zap.String("actor_role", event.ActorRole))
	}
	if event.LeadID != nil {
		fields = append(fields, zap.String("lead_id", event.LeadID.Hex()))
	}
	if event.FromStage != "" || event.ToStage != "" {
		fields = append(fields, zap.String("from_stage", event.FromStage), zap.String("to_stage", event.ToStage))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryPipeline:
		setting = l.config.Pipeline
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestMeta(r *http.Request) (ip, ua string) {
	if r == nil {
		return "", ""
	}
	return ratelimit.ClientIP(r), r.UserAgent()
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email, role string) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Actor:     email,
		ActorRole: role,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
	})
}

// LoginFailed logs a failed login. The attempted email is kept so brute
// force against one account shows up in GetFailedLogins.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, attemptedEmail string) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedBadCredential,
		Actor:         attemptedEmail,
		IP:            ip,
		UserAgent:     ua,
		Success:       false,
		FailureReason: "bad credentials",
	})
}

// LoginRateLimited logs a login rejected by the rate limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, attemptedEmail string) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		Actor:         attemptedEmail,
		IP:            ip,
		UserAgent:     ua,
		Success:       false,
		FailureReason: "rate limited",
	})
}

// TokenRefreshed logs a successful refresh-token rotation.
func (l *Logger) TokenRefreshed(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventTokenRefreshed,
		UserID:    &userID,
		Actor:     email,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
	})
}

// TokenRefreshFailed logs a rejected refresh token.
func (l *Logger) TokenRefreshFailed(ctx context.Context, r *http.Request, reason string) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventTokenRefreshFailed,
		IP:            ip,
		UserAgent:     ua,
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a logout. email may be empty when the refresh token was
// already gone.
func (l *Logger) Logout(ctx context.Context, r *http.Request, email string) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		Actor:     email,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
	})
}

// UserStatusChanged logs an admin enabling or disabling an account.
func (l *Logger) UserStatusChanged(ctx context.Context, r *http.Request, actor string, userID primitive.ObjectID, status string) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventUserStatusChanged,
		UserID:    &userID,
		Actor:     actor,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
		Details:   map[string]string{"status": status},
	})
}

// --- Pipeline Events ---

var actionEvents = map[pipeline.Action]string{
	pipeline.ActionCreate:           audit.EventLeadCreated,
	pipeline.ActionAssign:           audit.EventLeadAssigned,
	pipeline.ActionEditPreScreening: audit.EventPreScreeningSaved,
	pipeline.ActionAddCallNote:      audit.EventCallNoteAdded,
	pipeline.ActionSubmitAssessment: audit.EventStageChanged,
	pipeline.ActionBookAssessment:   audit.EventAssessmentBooked,
	pipeline.ActionAdvance:          audit.EventStageChanged,
	pipeline.ActionDeactivate:       audit.EventLeadDeactivated,
}

// EventTypeFor maps a pipeline action to its audit event type. A
// pre-screening save that crossed the completion threshold is recorded as a
// stage change.
func EventTypeFor(o pipeline.Outcome) string {
	if o.Action == pipeline.ActionEditPreScreening && o.Moved() {
		return audit.EventStageChanged
	}
	if ev, ok := actionEvents[o.Action]; ok {
		return ev
	}
	return string(o.Action)
}

// Outcome records a successful pipeline action.
func (l *Logger) Outcome(ctx context.Context, r *http.Request, actor authz.Actor, o pipeline.Outcome) {
	ip, ua := requestMeta(r)
	id := o.Lead.ID
	details := map[string]string{"action": string(o.Action)}
	switch o.Action {
	case pipeline.ActionAssign:
		details["assigned_to"] = o.Lead.AssignedTo
	case pipeline.ActionBookAssessment:
		if a := o.Lead.Assessment; a != nil {
			details["date"] = a.Date
			details["time"] = a.Time
			details["assignee"] = a.Assignee
		}
	case pipeline.ActionDeactivate:
		if d := o.Lead.Deactivation; d != nil {
			details["reason"] = d.Reason
		}
	}
	details["version"] = strconv.FormatInt(o.Lead.Version, 10)

	l.Log(ctx, audit.Event{
		Category:  audit.CategoryPipeline,
		EventType: EventTypeFor(o),
		Actor:     actor.Identity,
		ActorRole: string(actor.Role),
		LeadID:    &id,
		FromStage: string(o.From),
		ToStage:   string(o.To),
		IP:        ip,
		UserAgent: ua,
		Success:   true,
		Details:   details,
	})
}

// LeadsImported records a bulk import.
func (l *Logger) LeadsImported(ctx context.Context, r *http.Request, actor authz.Actor, batchID string, created, failed int) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryPipeline,
		EventType: audit.EventLeadsImported,
		Actor:     actor.Identity,
		ActorRole: string(actor.Role),
		IP:        ip,
		UserAgent: ua,
		Success:   failed == 0,
		Details: map[string]string{
			"batch_id": batchID,
			"created":  strconv.Itoa(created),
			"failed":   strconv.Itoa(failed),
		},
	})
}

// ActionDenied records a pipeline action refused by permission or ownership
// checks.
func (l *Logger) ActionDenied(ctx context.Context, r *http.Request, actor authz.Actor, leadID primitive.ObjectID, action pipeline.Action, reason string) {
	ip, ua := requestMeta(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryPipeline,
		EventType:     audit.EventPipelineActionDenied,
		Actor:         actor.Identity,
		ActorRole:     string(actor.Role),
		LeadID:        &leadID,
		IP:            ip,
		UserAgent:     ua,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"action": string(action)},
	})
}
