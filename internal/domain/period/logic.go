package period

import "time"

// DueForAdvance reports whether p's current phase deadline has passed at
// now. Setup and closed periods never auto-advance, and a phase without a
// deadline waits for a manual advance.
func DueForAdvance(p Period, now time.Time) bool {
	if p.Phase == PhaseSetup || p.Phase == PhaseClosed {
		return false
	}
	deadline := p.Deadlines.For(p.Phase)
	if deadline == nil {
		return false
	}
	return !now.Before(*deadline)
}

// AdvanceTarget resolves the phase a due period should move to, skipping
// over phases whose own deadline has also already passed. The result is
// never beyond CLOSED and always strictly after the current phase.
func AdvanceTarget(p Period, now time.Time) (Phase, bool) {
	if !DueForAdvance(p, now) {
		return "", false
	}
	target, ok := NextPhase(p.Phase)
	if !ok {
		return "", false
	}
	for target != PhaseClosed {
		deadline := p.Deadlines.For(target)
		if deadline == nil || now.Before(*deadline) {
			break
		}
		next, ok := NextPhase(target)
		if !ok {
			break
		}
		target = next
	}
	return target, true
}
