package evaluation

import (
	"fmt"
	"strings"
	"time"
)

// ContentKey is the stable composite business key the upsert coordinator
// resolves to at most one live content row.
type ContentKey struct {
	PeriodID    string `json:"periodId"`
	EmployeeID  string `json:"employeeId"`
	Kind        Kind   `json:"kind"`
	ProjectID   string `json:"projectId,omitempty"`
	EvaluatorID string `json:"evaluatorId,omitempty"`
}

func (k ContentKey) Validate() error {
	if strings.TrimSpace(k.PeriodID) == "" {
		return fmt.Errorf("%w: period id is required", ErrValidation)
	}
	if strings.TrimSpace(k.EmployeeID) == "" {
		return fmt.Errorf("%w: employee id is required", ErrValidation)
	}
	if !k.Kind.Valid() {
		return fmt.Errorf("%w: unknown evaluation kind %q", ErrValidation, k.Kind)
	}
	if k.Kind.RequiresEvaluator() && strings.TrimSpace(k.EvaluatorID) == "" {
		return fmt.Errorf("%w: evaluator id is required for %s evaluations", ErrValidation, k.Kind)
	}
	if k.ProjectID != "" && !k.Kind.AllowsProject() {
		return fmt.Errorf("%w: %s evaluations are not project-scoped", ErrValidation, k.Kind)
	}
	return nil
}

// Content is one evaluation record. IsCompleted is the submission flag and
// is independent of the workflow gate status.
type Content struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Content     string     `json:"content"`
	Score       *float64   `json:"score,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StageMapping binds a content key to its content row. Editable is the
// derived override: approval locks the mapping, a revision request unlocks
// it again.
type StageMapping struct {
	ID        string     `json:"id"`
	Key       ContentKey `json:"key"`
	ContentID string     `json:"contentId,omitempty"`
	Editable  bool       `json:"editable"`
	CreatedAt time.Time  `json:"createdAt"`
}
