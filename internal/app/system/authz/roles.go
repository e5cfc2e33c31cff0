// internal/app/system/authz/roles.go
package authz

import "strings"

// Role identifies a staff role. Roles are supplied by the authentication
// layer and never change within a session.
type Role string

const (
	RoleSalesAgent Role = "sales_agent"
	RoleSalesLead  Role = "sales_lead"
	RoleSalesHead  Role = "sales_head"
	RoleSalesAdmin Role = "sales_admin"
	RoleAdmin      Role = "admin"
	RoleLSM        Role = "lsm"
	RoleMentor     Role = "mentor"
	RoleStudent    Role = "student"
)

// Permission is a "<domain>:<action>" token. Permissions are granted to
// roles, never to individual users.
type Permission string

const (
	PermViewLeads       Permission = "sales:view_leads"
	PermViewTeamLeads   Permission = "sales:view_team_leads"
	PermViewDepartment  Permission = "sales:view_department"
	PermViewAssignee    Permission = "sales:view_assignee"
	PermCreateLeads     Permission = "sales:create_leads"
	PermImportLeads     Permission = "sales:import_leads"
	PermEditPreScreen   Permission = "sales:edit_prescreening"
	PermAddCallNotes    Permission = "sales:add_call_notes"
	PermSendAssessment  Permission = "sales:send_assessment"
	PermAssignLeads     Permission = "sales:assign_leads"
	PermBookAssessment  Permission = "sales:book_assessment"
	PermMakeOffer       Permission = "sales:make_offer"
	PermNegotiateDeal   Permission = "sales:negotiate_deal"
	PermClearPayment    Permission = "sales:clear_payment"
	PermOnboard         Permission = "sales:onboard"
	PermDeactivateLeads Permission = "sales:deactivate_leads"
	PermManageTeam      Permission = "sales:manage_team"

	PermViewPrograms     Permission = "programs:view"
	PermManageWorkshops  Permission = "workshops:manage"
	PermViewOnboardedLSM Permission = "lsm:view_onboarded"

	// PermAll is the wildcard. A role holding it passes every check.
	PermAll Permission = "all"
)

// AllPermissions lists the closed permission set, wildcard excluded.
var AllPermissions = []Permission{
	PermViewLeads, PermViewTeamLeads, PermViewDepartment, PermViewAssignee,
	PermCreateLeads, PermImportLeads, PermEditPreScreen, PermAddCallNotes,
	PermSendAssessment, PermAssignLeads, PermBookAssessment, PermMakeOffer,
	PermNegotiateDeal, PermClearPayment, PermOnboard, PermDeactivateLeads,
	PermManageTeam, PermViewPrograms, PermManageWorkshops, PermViewOnboardedLSM,
}

// agentPerms is the lowest sales tier: own leads only.
var agentPerms = []Permission{
	PermViewLeads,
	PermEditPreScreen,
	PermAddCallNotes,
	PermSendAssessment,
	PermViewPrograms,
}

// leadPerms adds team visibility and the assessment/offer steps.
var leadPerms = append(append([]Permission{}, agentPerms...),
	PermViewTeamLeads,
	PermViewAssignee,
	PermCreateLeads,
	PermAssignLeads,
	PermBookAssessment,
	PermMakeOffer,
	PermManageTeam,
)

// headPerms adds the department view and the closing steps.
var headPerms = append(append([]Permission{}, leadPerms...),
	PermViewDepartment,
	PermImportLeads,
	PermNegotiateDeal,
	PermClearPayment,
	PermOnboard,
	PermDeactivateLeads,
)

// table is the Permission Table. Roles missing from it hold nothing.
var table = map[Role]map[Permission]struct{}{
	RoleSalesAgent: setOf(agentPerms...),
	RoleSalesLead:  setOf(leadPerms...),
	RoleSalesHead:  setOf(headPerms...),
	RoleSalesAdmin: setOf(headPerms...),
	RoleAdmin:      setOf(PermAll),
	RoleLSM:        setOf(PermViewOnboardedLSM, PermViewPrograms),
	RoleMentor:     setOf(PermViewPrograms, PermManageWorkshops),
	RoleStudent:    setOf(PermViewPrograms),
}

func setOf(perms ...Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

// ParseRole normalizes a role string (case and surrounding space). The bool
// is false when the role is not in the table.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := table[r]
	return r, ok
}

// Roles lists every known role.
func Roles() []Role {
	return []Role{
		RoleSalesAgent, RoleSalesLead, RoleSalesHead, RoleSalesAdmin,
		RoleAdmin, RoleLSM, RoleMentor, RoleStudent,
	}
}

// PermissionsOf returns the permissions granted to role, in AllPermissions
// order. The admin wildcard expands to every permission.
func PermissionsOf(role Role) []Permission {
	var out []Permission
	for _, p := range AllPermissions {
		if Has(role, p) {
			out = append(out, p)
		}
	}
	return out
}
