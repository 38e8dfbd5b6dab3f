package evaluation

import "appraisal/internal/domain/workflow"

// Kind names one evaluation content store. Criteria, self and the two
// downward kinds are gated by the step approval workflow; peer and final
// records are persisted through the same coordinator but carry no gate.
type Kind string

const (
	KindCriteria  Kind = "criteria"
	KindSelf      Kind = "self"
	KindPeer      Kind = "peer"
	KindPrimary   Kind = "primary"
	KindSecondary Kind = "secondary"
	KindFinal     Kind = "final"
)

var contentTables = map[Kind]string{
	KindCriteria:  "criteria_sheets",
	KindSelf:      "self_evaluations",
	KindPeer:      "peer_evaluations",
	KindPrimary:   "downward_evaluations",
	KindSecondary: "downward_evaluations",
	KindFinal:     "final_evaluations",
}

func (k Kind) Valid() bool {
	_, ok := contentTables[k]
	return ok
}

func (k Kind) RequiresEvaluator() bool {
	switch k {
	case KindPeer, KindPrimary, KindSecondary, KindFinal:
		return true
	}
	return false
}

func (k Kind) AllowsProject() bool {
	return k == KindPeer
}

// GateStage maps a content kind to its workflow stage. Peer and final
// evaluations have no approval gate.
func (k Kind) GateStage() (workflow.Stage, bool) {
	switch k {
	case KindCriteria:
		return workflow.StageCriteria, true
	case KindSelf:
		return workflow.StageSelf, true
	case KindPrimary:
		return workflow.StagePrimary, true
	case KindSecondary:
		return workflow.StageSecondary, true
	}
	return "", false
}

// KindForStage is the inverse of GateStage for the four gated stages.
func KindForStage(stage workflow.Stage) (Kind, bool) {
	switch stage {
	case workflow.StageCriteria:
		return KindCriteria, true
	case workflow.StageSelf:
		return KindSelf, true
	case workflow.StagePrimary:
		return KindPrimary, true
	case workflow.StageSecondary:
		return KindSecondary, true
	}
	return "", false
}
