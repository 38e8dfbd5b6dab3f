package project

import (
	"fmt"
	"strings"
	"time"
)

type Project struct {
	ID          string    `json:"id"`
	PeriodID    string    `json:"periodId"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProjectInput struct {
	PeriodID    string `json:"periodId"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (in ProjectInput) Validate() error {
	if strings.TrimSpace(in.PeriodID) == "" {
		return fmt.Errorf("%w: period id is required", ErrValidation)
	}
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: code and name are required", ErrValidation)
	}
	return nil
}

// Deliverable is a WBS line item under a project.
type Deliverable struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	WBSCode     string    `json:"wbsCode"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Weight      float64   `json:"weight"`
	CreatedAt   time.Time `json:"createdAt"`
}

type DeliverableInput struct {
	WBSCode     string  `json:"wbsCode"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
}

func (in DeliverableInput) Validate() error {
	if strings.TrimSpace(in.WBSCode) == "" {
		return fmt.Errorf("%w: wbs code is required", ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.Weight < 0 || in.Weight > 100 {
		return fmt.Errorf("%w: weight must be between 0 and 100", ErrValidation)
	}
	return nil
}

// Assignment binds an evaluator to a target employee on a project. Role
// distinguishes peer pairings from downward pairings.
type Assignment struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	EvaluatorID string    `json:"evaluatorId"`
	TargetID    string    `json:"targetId"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AssignmentInput struct {
	EvaluatorID string `json:"evaluatorId"`
	TargetID    string `json:"targetId"`
	Role        string `json:"role"`
}

func (in AssignmentInput) Validate() error {
	if strings.TrimSpace(in.EvaluatorID) == "" || strings.TrimSpace(in.TargetID) == "" {
		return fmt.Errorf("%w: evaluator and target are required", ErrValidation)
	}
	if in.EvaluatorID == in.TargetID {
		return fmt.Errorf("%w: an employee cannot evaluate themselves", ErrValidation)
	}
	switch in.Role {
	case RolePeer, RolePrimary, RoleSecondary:
		return nil
	}
	return fmt.Errorf("%w: unknown assignment role %q", ErrValidation, in.Role)
}
