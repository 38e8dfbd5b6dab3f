package workflow

// Stage is one of the four sequential evaluation gates. Primary and
// secondary downward stages carry an evaluator discriminator because one
// employee can be evaluated by several evaluators in the same period.
type Stage string

const (
	StageCriteria  Stage = "criteria"
	StageSelf      Stage = "self"
	StagePrimary   Stage = "primary"
	StageSecondary Stage = "secondary"
)

var stageOrder = map[Stage]int{
	StageCriteria:  0,
	StageSelf:      1,
	StagePrimary:   2,
	StageSecondary: 3,
}

func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

func (s Stage) Order() int {
	return stageOrder[s]
}

func (s Stage) RequiresEvaluator() bool {
	return s == StagePrimary || s == StageSecondary
}

// DownstreamOf returns the stages strictly after s in stage order.
func DownstreamOf(s Stage) []Stage {
	var out []Stage
	for _, candidate := range []Stage{StageCriteria, StageSelf, StagePrimary, StageSecondary} {
		if candidate.Order() > s.Order() {
			out = append(out, candidate)
		}
	}
	return out
}

type Status string

const (
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusRevisionRequested Status = "revision_requested"
	StatusRevisionCompleted Status = "revision_completed"
)

// allowedTransitions covers the externally requestable edges. The
// revision_requested -> revision_completed edge is applied only by the
// revision completion hook and is deliberately absent here.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusApproved:          true,
		StatusRevisionRequested: true,
	},
	StatusApproved: {
		StatusRevisionRequested: true,
	},
	StatusRevisionCompleted: {
		StatusApproved:          true,
		StatusRevisionRequested: true,
	},
}

func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

type RecipientType string

const (
	RecipientEvaluatee RecipientType = "evaluatee"
	RecipientEvaluator RecipientType = "evaluator"
)
