package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) PendingApprovals(ctx context.Context, periodID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM step_approvals
    WHERE period_id = $1 AND status IN ('pending', 'revision_completed')
  `, periodID).Scan(&total)
	return total, err
}

func (s *Store) OpenRevisions(ctx context.Context, periodID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM revision_request_recipients p
    JOIN revision_requests r ON p.request_id = r.id
    WHERE r.period_id = $1 AND p.is_completed = false
  `, periodID).Scan(&total)
	return total, err
}

func (s *Store) ApprovedSteps(ctx context.Context, periodID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM step_approvals WHERE period_id = $1 AND status = 'approved'
  `, periodID).Scan(&total)
	return total, err
}

func (s *Store) EmployeesInPeriod(ctx context.Context, periodID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT employee_id) FROM stage_mappings WHERE period_id = $1
  `, periodID).Scan(&total)
	return total, err
}

type sheetRow struct {
	Stage       string
	Status      string
	EvaluatorID string
	UpdatedAt   string
}

func (s *Store) stepRows(ctx context.Context, periodID, employeeID string) ([]sheetRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT stage, status, COALESCE(evaluator_id::text, ''), to_char(updated_at, 'YYYY-MM-DD')
    FROM step_approvals
    WHERE period_id = $1 AND employee_id = $2
    ORDER BY stage, evaluator_id NULLS FIRST
  `, periodID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sheetRow
	for rows.Next() {
		var r sheetRow
		if err := rows.Scan(&r.Stage, &r.Status, &r.EvaluatorID, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
