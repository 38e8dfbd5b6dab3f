package period

// Phase is the lifecycle position of an evaluation period. Phases advance
// strictly forward; a closed period never reopens.
type Phase string

const (
	PhaseSetup     Phase = "SETUP"
	PhaseCriteria  Phase = "CRITERIA"
	PhaseSelf      Phase = "SELF"
	PhasePrimary   Phase = "PRIMARY"
	PhaseSecondary Phase = "SECONDARY"
	PhaseFinal     Phase = "FINAL"
	PhaseClosed    Phase = "CLOSED"
)

var phaseOrder = map[Phase]int{
	PhaseSetup:     0,
	PhaseCriteria:  1,
	PhaseSelf:      2,
	PhasePrimary:   3,
	PhaseSecondary: 4,
	PhaseFinal:     5,
	PhaseClosed:    6,
}

var phaseSequence = []Phase{
	PhaseSetup,
	PhaseCriteria,
	PhaseSelf,
	PhasePrimary,
	PhaseSecondary,
	PhaseFinal,
	PhaseClosed,
}

func (p Phase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

func (p Phase) Order() int {
	return phaseOrder[p]
}

// NextPhase returns the phase that follows p, or false when p is terminal
// or unknown.
func NextPhase(p Phase) (Phase, bool) {
	order, ok := phaseOrder[p]
	if !ok || p == PhaseClosed {
		return "", false
	}
	return phaseSequence[order+1], true
}
