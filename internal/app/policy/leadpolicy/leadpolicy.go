// Package leadpolicy provides the visibility and action policies for leads.
//
// Authorization rules:
//   - Every read needs sales:view_leads; without it nothing is visible.
//   - Roles without sales:view_team_leads are self-scoped: they only see and
//     act on leads assigned to their own identity.
//   - Deactivated leads appear only in the deactivated context.
//   - The overview context needs sales:view_department and is read-only.
//   - The assignee column needs sales:view_assignee.
package leadpolicy

import (
	"fmt"
	"strings"

	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
)

// PageContext selects a slice of the lead collection.
type PageContext string

const (
	ContextNew         PageContext = "new"
	ContextActive      PageContext = "active"
	ContextAssessments PageContext = "assessments"
	ContextOverview    PageContext = "overview"
	ContextDeactivated PageContext = "deactivated"
)

// Contexts lists every page context.
var Contexts = []PageContext{ContextNew, ContextActive, ContextAssessments, ContextOverview, ContextDeactivated}

// ParseContext converts a query value into a PageContext. An empty value is
// the new-leads context.
func ParseContext(s string) (PageContext, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ContextNew, nil
	}
	for _, c := range Contexts {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &pipeline.ValidationError{Field: "context", Message: fmt.Sprintf("unknown context %q", s)}
}

// SelfScoped reports whether the role only sees its own leads.
func SelfScoped(role authz.Role) bool {
	return !authz.Has(role, authz.PermViewTeamLeads)
}

// CanList reports whether the actor may open ctx at all.
func CanList(a authz.Actor, ctx PageContext) bool {
	if !a.Can(authz.PermViewLeads) {
		return false
	}
	if ctx == ContextOverview {
		return a.Can(authz.PermViewDepartment)
	}
	return true
}

// VisibleLeads returns the leads in all that the actor may see in ctx,
// preserving input order. It never returns nil for an allowed context with
// matches, and returns an empty slice when nothing is visible.
func VisibleLeads(a authz.Actor, all []models.Lead, ctx PageContext) []models.Lead {
	out := make([]models.Lead, 0)
	if !CanList(a, ctx) {
		return out
	}
	for _, l := range all {
		if visibleIn(a, l, ctx) {
			out = append(out, l)
		}
	}
	return out
}

// Visible reports whether a single lead belongs to ctx for the actor.
func Visible(a authz.Actor, l models.Lead, ctx PageContext) bool {
	return CanList(a, ctx) && visibleIn(a, l, ctx)
}

func visibleIn(a authz.Actor, l models.Lead, ctx PageContext) bool {
	self := SelfScoped(a.Role)
	owned := a.Identity != "" && strings.EqualFold(l.AssignedTo, a.Identity)
	dead := l.IsDeactivated()

	switch ctx {
	case ContextNew:
		if dead {
			return false
		}
		if self {
			return owned && l.CurrentStage() == models.StagePrimaryScreening
		}
		return !l.IsAssigned()

	case ContextActive:
		if dead {
			return false
		}
		if self {
			return owned && l.CurrentStage() == models.StageMeetAndCall
		}
		return l.IsAssigned() && l.CurrentStage().Index() >= models.StageMeetAndCall.Index()

	case ContextAssessments:
		if dead || l.CurrentStage() != models.StageAssessments {
			return false
		}
		return !self || owned

	case ContextOverview:
		return !dead

	case ContextDeactivated:
		if !dead {
			return false
		}
		return !self || owned
	}
	return false
}

// CanView reports whether the actor may open a single lead. Self-scoped
// roles see only their own leads; team roles see everything.
func CanView(a authz.Actor, l models.Lead) bool {
	if !a.Can(authz.PermViewLeads) {
		return false
	}
	if SelfScoped(a.Role) {
		return a.Identity != "" && strings.EqualFold(l.AssignedTo, a.Identity)
	}
	return true
}

// Column names returned to list callers.
const (
	ColName       = "name"
	ColEmail      = "email"
	ColPhone      = "phone"
	ColStage      = "pipelineStage"
	ColCompletion = "completion"
	ColAssignedTo = "assignedTo"
	ColCreatedAt  = "createdAt"
)

// Columns lists the columns the actor may see. Column visibility is a plain
// permission check, independent of which rows are visible.
func Columns(a authz.Actor) []string {
	cols := []string{ColName, ColEmail, ColPhone, ColStage, ColCompletion}
	if CanSeeAssignee(a) {
		cols = append(cols, ColAssignedTo)
	}
	return append(cols, ColCreatedAt)
}

// CanSeeAssignee reports whether the assignee column is visible.
func CanSeeAssignee(a authz.Actor) bool {
	return a.Can(authz.PermViewAssignee)
}

// Redact blanks the fields the actor may not see.
func Redact(a authz.Actor, l models.Lead) models.Lead {
	if !CanSeeAssignee(a) {
		l.AssignedTo = ""
	}
	return l
}
