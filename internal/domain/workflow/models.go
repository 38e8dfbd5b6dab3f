package workflow

import (
	"fmt"
	"strings"
	"time"
)

// StepKey identifies one step approval gate. EvaluatorID is required for
// primary/secondary stages and must be empty otherwise. An empty EvaluatorID
// on a downward stage is also used internally for the evaluatee's
// acknowledgement record resolved by revision completion.
type StepKey struct {
	PeriodID    string `json:"periodId"`
	EmployeeID  string `json:"employeeId"`
	Stage       Stage  `json:"stage"`
	EvaluatorID string `json:"evaluatorId,omitempty"`
}

func (k StepKey) Validate() error {
	if strings.TrimSpace(k.PeriodID) == "" {
		return fmt.Errorf("%w: period id is required", ErrValidation)
	}
	if strings.TrimSpace(k.EmployeeID) == "" {
		return fmt.Errorf("%w: employee id is required", ErrValidation)
	}
	if !k.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrValidation, k.Stage)
	}
	if k.Stage.RequiresEvaluator() && strings.TrimSpace(k.EvaluatorID) == "" {
		return fmt.Errorf("%w: evaluator id is required for stage %s", ErrValidation, k.Stage)
	}
	if !k.Stage.RequiresEvaluator() && k.EvaluatorID != "" {
		return fmt.Errorf("%w: stage %s does not take an evaluator id", ErrValidation, k.Stage)
	}
	return nil
}

type StepApproval struct {
	ID              string    `json:"id"`
	Key             StepKey   `json:"key"`
	Status          Status    `json:"status"`
	RevisionComment string    `json:"revisionComment,omitempty"`
	Version         int       `json:"version"`
	UpdatedBy       string    `json:"updatedBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type RevisionRequest struct {
	ID          string    `json:"id"`
	PeriodID    string    `json:"periodId"`
	EmployeeID  string    `json:"employeeId"`
	Stage       Stage     `json:"stage"`
	Comment     string    `json:"comment"`
	RequestedBy string    `json:"requestedBy"`
	RequestedAt time.Time `json:"requestedAt"`
}

type RevisionRequestRecipient struct {
	RequestID       string        `json:"requestId"`
	RecipientID     string        `json:"recipientId"`
	RecipientType   RecipientType `json:"recipientType"`
	IsRead          bool          `json:"isRead"`
	ReadAt          *time.Time    `json:"readAt,omitempty"`
	IsCompleted     bool          `json:"isCompleted"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
	ResponseComment string        `json:"responseComment,omitempty"`
}

// RevisionInboxItem is the read-model row for a recipient's inbox.
type RevisionInboxItem struct {
	Request   RevisionRequest          `json:"request"`
	Recipient RevisionRequestRecipient `json:"recipient"`
}

type RevisionFilters struct {
	PeriodID   string
	EmployeeID string
	Stage      Stage
	OnlyOpen   bool
}

type TransitionInput struct {
	Key     StepKey
	Target  Status
	Comment string
	ActorID string
	Cascade bool
	// ExpectedVersion enables optimistic concurrency: when > 0 the
	// transition fails with ErrConcurrentModification unless the stored
	// record still carries this version.
	ExpectedVersion int
}
