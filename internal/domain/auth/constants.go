package auth

const (
	RoleAdmin     = "admin"
	RoleHR        = "hr"
	RoleEvaluator = "evaluator"
	RoleEmployee  = "employee"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleHR, RoleEvaluator, RoleEmployee:
		return true
	}
	return false
}
