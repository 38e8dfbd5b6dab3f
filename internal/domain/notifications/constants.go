package notifications

const (
	TypeRevisionRequested = "revision_requested"
	TypeRevisionCompleted = "revision_completed"
	TypeStageApproved     = "stage_approved"
	TypePhaseAdvanced     = "phase_advanced"
	TypeEvaluatorAssigned = "evaluator_assigned"
)
