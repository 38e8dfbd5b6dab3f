package period

import (
	"fmt"
	"strings"
	"time"
)

// Period is one evaluation cycle. Each non-terminal phase may carry a
// deadline; the scheduler advances a period whose current phase deadline
// has passed.
type Period struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Phase     Phase      `json:"phase"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	Deadlines Deadlines  `json:"deadlines"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Deadlines holds the cut-off for each intermediate phase. A nil entry
// means the phase only advances manually.
type Deadlines struct {
	Criteria  *time.Time `json:"criteria,omitempty"`
	Self      *time.Time `json:"self,omitempty"`
	Primary   *time.Time `json:"primary,omitempty"`
	Secondary *time.Time `json:"secondary,omitempty"`
	Final     *time.Time `json:"final,omitempty"`
}

// For returns the deadline that applies while the period sits in p.
func (d Deadlines) For(p Phase) *time.Time {
	switch p {
	case PhaseCriteria:
		return d.Criteria
	case PhaseSelf:
		return d.Self
	case PhasePrimary:
		return d.Primary
	case PhaseSecondary:
		return d.Secondary
	case PhaseFinal:
		return d.Final
	}
	return nil
}

type CreateInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Deadlines Deadlines `json:"deadlines"`
}

func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	if !in.EndDate.After(in.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	return nil
}

type UpdateInput struct {
	Name      *string    `json:"name,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Deadlines *Deadlines `json:"deadlines,omitempty"`
}
