package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auditlog"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"github.com/imaggar-technologies/brintelli/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var agent = authz.Actor{Role: authz.RoleSalesAgent, Identity: "agent@brintelli.test"}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// no-ops, not panics
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@b.test", "admin")
	logger.Logout(ctx, req, "")
	logger.Outcome(ctx, req, agent, pipeline.Outcome{Action: pipeline.ActionAssign})
}

func TestLogger_LogOnlyDestination(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.Log, Pipeline: auditlog.Off})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "10.1.1.1:4000"

	logger.LoginFailed(ctx, req, "who@brintelli.test")
	logger.Outcome(ctx, req, agent, pipeline.Outcome{Action: pipeline.ActionAssign})

	if logs.Len() != 1 {
		t.Fatalf("expected 1 zap entry (pipeline off), got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zap.WarnLevel {
		t.Errorf("failed login should log at warn, got %v", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["event_type"] != audit.EventLoginFailedBadCredential || fields["ip"] != "10.1.1.1" {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestEventTypeFor(t *testing.T) {
	tests := []struct {
		name string
		o    pipeline.Outcome
		want string
	}{
		{"prescreening save", pipeline.Outcome{Action: pipeline.ActionEditPreScreening, From: models.StagePrimaryScreening, To: models.StagePrimaryScreening}, audit.EventPreScreeningSaved},
		{"prescreening advance", pipeline.Outcome{Action: pipeline.ActionEditPreScreening, From: models.StagePrimaryScreening, To: models.StageMeetAndCall}, audit.EventStageChanged},
		{"submit", pipeline.Outcome{Action: pipeline.ActionSubmitAssessment}, audit.EventStageChanged},
		{"deactivate", pipeline.Outcome{Action: pipeline.ActionDeactivate}, audit.EventLeadDeactivated},
		{"note", pipeline.Outcome{Action: pipeline.ActionAddCallNote}, audit.EventCallNoteAdded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := auditlog.EventTypeFor(tt.o); got != tt.want {
				t.Errorf("EventTypeFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_Outcome_StoresHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.Off, Pipeline: auditlog.DB})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/", nil)

	lead := testutil.FakeLead()
	lead.Deactivation = &models.Deactivation{Reason: "not reachable", By: agent.Identity}
	logger.Outcome(ctx, req, agent, pipeline.Outcome{
		Lead:   lead,
		Action: pipeline.ActionDeactivate,
		From:   models.StageOffer,
		To:     models.StageLeadDump,
	})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), agent.Identity, string(agent.Role))

	events, err := store.HistoryForLead(ctx, lead.ID, 10)
	if err != nil {
		t.Fatalf("HistoryForLead failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != audit.EventLeadDeactivated || ev.FromStage != "offer" || ev.ToStage != "lead_dump" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Details["reason"] != "not reachable" || ev.Actor != agent.Identity {
		t.Errorf("unexpected details %+v", ev.Details)
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 0 {
		t.Errorf("auth logging is off, got %d events", n)
	}
}
