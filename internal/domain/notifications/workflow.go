package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/workflow"
)

// RegisterWorkflowHandlers fans gate transitions out to employee inboxes.
// Rows are written through the transition's transaction; email mirroring
// happens only for notifications that actually commit, so the hook keeps
// to in-app rows.
func (s *Service) RegisterWorkflowHandlers(dispatcher *workflow.Dispatcher) {
	dispatcher.Register(s.handleTransition)
}

func (s *Service) handleTransition(ctx context.Context, tx pgx.Tx, evt workflow.TransitionEvent) error {
	switch evt.To {
	case workflow.StatusRevisionRequested:
		title := fmt.Sprintf("Revision requested: %s", evt.Key.Stage)
		body := evt.Comment
		if err := s.createTx(ctx, tx, evt.Key.EmployeeID, TypeRevisionRequested, title, body); err != nil {
			return err
		}
		if evt.Key.EvaluatorID != "" && evt.Key.EvaluatorID != evt.Key.EmployeeID {
			return s.createTx(ctx, tx, evt.Key.EvaluatorID, TypeRevisionRequested, title, body)
		}
		return nil
	case workflow.StatusApproved:
		title := fmt.Sprintf("Stage approved: %s", evt.Key.Stage)
		return s.createTx(ctx, tx, evt.Key.EmployeeID, TypeStageApproved, title, "")
	case workflow.StatusRevisionCompleted:
		title := fmt.Sprintf("Revision completed: %s", evt.Key.Stage)
		if err := s.createTx(ctx, tx, evt.Key.EmployeeID, TypeRevisionCompleted, title, evt.Comment); err != nil {
			return err
		}
		requesterID, err := s.requesterEmployeeTx(ctx, tx, evt.Key)
		if err != nil {
			return err
		}
		if requesterID != "" && requesterID != evt.Key.EmployeeID {
			return s.createTx(ctx, tx, requesterID, TypeRevisionCompleted, title, evt.Comment)
		}
		return nil
	}
	return nil
}

// requesterEmployeeTx resolves the employee behind the account that opened
// the latest revision request for this gate. Accounts without an employee
// link produce no notification.
func (s *Service) requesterEmployeeTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey) (string, error) {
	var employeeID string
	err := tx.QueryRow(ctx, `
    SELECT COALESCE(u.employee_id::text, '')
    FROM revision_requests r
    JOIN users u ON u.id = r.requested_by
    WHERE r.period_id = $1 AND r.employee_id = $2 AND r.stage = $3
    ORDER BY r.requested_at DESC
    LIMIT 1
  `, key.PeriodID, key.EmployeeID, key.Stage).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return employeeID, nil
}

func (s *Service) createTx(ctx context.Context, tx pgx.Tx, employeeID, ntype, title, body string) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO notifications (employee_id, type, title, body)
    VALUES ($1, $2, $3, $4)
  `, employeeID, ntype, title, body)
	return err
}
