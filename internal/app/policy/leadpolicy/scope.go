package leadpolicy

import (
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// ListScope is the server-side counterpart of VisibleLeads.
type ListScope struct {
	// CanList indicates whether the actor can open the context at all.
	CanList bool
	// Filter is the Mongo filter selecting the visible leads. It is nil when
	// CanList is false.
	Filter bson.M
}

var (
	notDeactivated = bson.M{
		"deactivation":   nil,
		"pipeline_stage": bson.M{"$ne": models.StageLeadDump},
	}
	deactivated = bson.M{"$or": bson.A{
		bson.M{"deactivation": bson.M{"$ne": nil}},
		bson.M{"pipeline_stage": models.StageLeadDump},
	}}
	unassigned = bson.M{"assigned_to": bson.M{"$in": bson.A{nil, ""}}}
	assigned   = bson.M{"assigned_to": bson.M{"$nin": bson.A{nil, ""}}}
)

// ScopeFor builds the Mongo filter for ctx. The in-memory VisibleLeads is
// still applied to the results, so the two must agree.
func ScopeFor(a authz.Actor, ctx PageContext) ListScope {
	if !CanList(a, ctx) {
		return ListScope{CanList: false}
	}

	self := SelfScoped(a.Role)
	if self && a.Identity == "" {
		return ListScope{CanList: false}
	}
	own := bson.M{"assigned_to": a.Identity}

	var clauses bson.A
	switch ctx {
	case ContextNew:
		clauses = append(clauses, notDeactivated)
		if self {
			clauses = append(clauses, own, bson.M{"pipeline_stage": bson.M{"$in": bson.A{nil, "", models.StagePrimaryScreening}}})
		} else {
			clauses = append(clauses, unassigned)
		}
	case ContextActive:
		clauses = append(clauses, notDeactivated)
		if self {
			clauses = append(clauses, own, bson.M{"pipeline_stage": models.StageMeetAndCall})
		} else {
			clauses = append(clauses, assigned, bson.M{"pipeline_stage": bson.M{"$in": activeStages()}})
		}
	case ContextAssessments:
		clauses = append(clauses, notDeactivated, bson.M{"pipeline_stage": models.StageAssessments})
		if self {
			clauses = append(clauses, own)
		}
	case ContextOverview:
		clauses = append(clauses, notDeactivated)
	case ContextDeactivated:
		clauses = append(clauses, deactivated)
		if self {
			clauses = append(clauses, own)
		}
	default:
		return ListScope{CanList: false}
	}
	return ListScope{CanList: true, Filter: bson.M{"$and": clauses}}
}

// activeStages are the stages from meet_and_call onward.
func activeStages() bson.A {
	out := bson.A{}
	for _, s := range models.ForwardStages[models.StageMeetAndCall.Index():] {
		out = append(out, s)
	}
	return out
}
