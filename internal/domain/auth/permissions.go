package auth

const (
	PermEmployeesRead      = "org.employees.read"
	PermEmployeesWrite     = "org.employees.write"
	PermPeriodsRead        = "periods.read"
	PermPeriodsWrite       = "periods.write"
	PermPeriodsAdvance     = "periods.advance"
	PermProjectsRead       = "projects.read"
	PermProjectsWrite      = "projects.write"
	PermEvaluationsRead    = "evaluations.read"
	PermEvaluationsWrite   = "evaluations.write"
	PermEvaluationsApprove = "evaluations.approve"
	PermRevisionsRespond   = "revisions.respond"
	PermNotificationsRead  = "notifications.read"
	PermReportsRead        = "reports.read"
	PermAuditRead          = "audit.read"
	PermSystemAdmin        = "admin.system"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermPeriodsRead,
		PermProjectsRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermRevisionsRespond,
		PermNotificationsRead,
		PermReportsRead,
	},
	RoleEvaluator: {
		PermEmployeesRead,
		PermPeriodsRead,
		PermProjectsRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsApprove,
		PermRevisionsRespond,
		PermNotificationsRead,
		PermReportsRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermPeriodsRead,
		PermPeriodsWrite,
		PermPeriodsAdvance,
		PermProjectsRead,
		PermProjectsWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsApprove,
		PermRevisionsRespond,
		PermNotificationsRead,
		PermReportsRead,
		PermAuditRead,
	},
	RoleAdmin: {
		PermSystemAdmin,
	},
}

// HasPermission resolves a role's static grant. Admin passes every check.
func HasPermission(role, permission string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, granted := range RolePermissions[role] {
		if granted == permission {
			return true
		}
	}
	return false
}
