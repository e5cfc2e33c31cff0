package leadpolicy

import (
	"fmt"
	"strings"

	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
)

var actionPerms = map[pipeline.Action]authz.Permission{
	pipeline.ActionCreate:           authz.PermCreateLeads,
	pipeline.ActionAssign:           authz.PermAssignLeads,
	pipeline.ActionEditPreScreening: authz.PermEditPreScreen,
	pipeline.ActionAddCallNote:      authz.PermAddCallNotes,
	pipeline.ActionSubmitAssessment: authz.PermSendAssessment,
	pipeline.ActionBookAssessment:   authz.PermBookAssessment,
	pipeline.ActionDeactivate:       authz.PermDeactivateLeads,
}

// advancePerms gates each explicit advance by its target stage.
var advancePerms = map[models.Stage]authz.Permission{
	models.StageMeetAndCall:      authz.PermEditPreScreen,
	models.StageOffer:            authz.PermMakeOffer,
	models.StageDealNegotiation:  authz.PermNegotiateDeal,
	models.StagePaymentClearance: authz.PermClearPayment,
	models.StageOnboardedToLSM:   authz.PermOnboard,
}

// RequiredPermission returns the permission that gates action. For
// ActionAdvance the target stage decides. The bool is false when no
// permission can authorize the action.
func RequiredPermission(action pipeline.Action, target models.Stage) (authz.Permission, bool) {
	if action == pipeline.ActionAdvance {
		p, ok := advancePerms[target]
		return p, ok
	}
	p, ok := actionPerms[action]
	return p, ok
}

// CanPerform checks the role permission for action and, for self-scoped
// roles, that the lead is assigned to the actor. It returns an error wrapping
// pipeline.ErrPermissionDenied on refusal. No state is touched.
func CanPerform(a authz.Actor, l models.Lead, action pipeline.Action, target models.Stage) error {
	perm, ok := RequiredPermission(action, target)
	if !ok || !a.Can(perm) {
		return fmt.Errorf("%w: %s requires %s", pipeline.ErrPermissionDenied, action, permName(perm, ok))
	}
	if action == pipeline.ActionCreate {
		return nil
	}
	if SelfScoped(a.Role) && (a.Identity == "" || !strings.EqualFold(l.AssignedTo, a.Identity)) {
		return fmt.Errorf("%w: lead is not assigned to you", pipeline.ErrPermissionDenied)
	}
	return nil
}

func permName(p authz.Permission, ok bool) string {
	if !ok {
		return "an unsupported target"
	}
	return string(p)
}
