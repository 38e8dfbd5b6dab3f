package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const stepColumns = `id, period_id, employee_id, stage, COALESCE(evaluator_id::text, ''), status, COALESCE(revision_comment, ''), version, updated_by, created_at, updated_at`

func scanStep(row pgx.Row) (StepApproval, error) {
	var record StepApproval
	err := row.Scan(
		&record.ID,
		&record.Key.PeriodID,
		&record.Key.EmployeeID,
		&record.Key.Stage,
		&record.Key.EvaluatorID,
		&record.Status,
		&record.RevisionComment,
		&record.Version,
		&record.UpdatedBy,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	return record, err
}

func (s *Store) GetStepForUpdateTx(ctx context.Context, tx pgx.Tx, key StepKey) (StepApproval, bool, error) {
	record, err := scanStep(tx.QueryRow(ctx, `
    SELECT `+stepColumns+`
    FROM step_approvals
    WHERE period_id = $1 AND employee_id = $2 AND stage = $3 AND COALESCE(evaluator_id::text, '') = $4
    FOR UPDATE
  `, key.PeriodID, key.EmployeeID, key.Stage, key.EvaluatorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return StepApproval{}, false, nil
	}
	if err != nil {
		return StepApproval{}, false, err
	}
	return record, true, nil
}

func (s *Store) GetStep(ctx context.Context, key StepKey) (StepApproval, bool, error) {
	record, err := scanStep(s.DB.QueryRow(ctx, `
    SELECT `+stepColumns+`
    FROM step_approvals
    WHERE period_id = $1 AND employee_id = $2 AND stage = $3 AND COALESCE(evaluator_id::text, '') = $4
  `, key.PeriodID, key.EmployeeID, key.Stage, key.EvaluatorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return StepApproval{}, false, nil
	}
	if err != nil {
		return StepApproval{}, false, err
	}
	return record, true, nil
}

func (s *Store) InsertStepTx(ctx context.Context, tx pgx.Tx, key StepKey, status Status, actorID string) (StepApproval, error) {
	return scanStep(tx.QueryRow(ctx, `
    INSERT INTO step_approvals (period_id, employee_id, stage, evaluator_id, status, version, updated_by)
    VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, 1, $6)
    RETURNING `+stepColumns+`
  `, key.PeriodID, key.EmployeeID, key.Stage, key.EvaluatorID, status, actorID))
}

func (s *Store) UpdateStepTx(ctx context.Context, tx pgx.Tx, key StepKey, status Status, comment, actorID string, version int) (StepApproval, error) {
	return scanStep(tx.QueryRow(ctx, `
    UPDATE step_approvals
    SET status = $5, revision_comment = NULLIF($6, ''), updated_by = $7, version = $8, updated_at = now()
    WHERE period_id = $1 AND employee_id = $2 AND stage = $3 AND COALESCE(evaluator_id::text, '') = $4
    RETURNING `+stepColumns+`
  `, key.PeriodID, key.EmployeeID, key.Stage, key.EvaluatorID, status, comment, actorID, version))
}

// ListStepKeysTx returns every known downstream gate key for the employee in
// the period: existing step approval rows plus keys implied by stage
// mappings that have not been transitioned yet.
func (s *Store) ListStepKeysTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stages []Stage) ([]StepKey, error) {
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, string(stage))
	}

	rows, err := tx.Query(ctx, `
    SELECT stage, COALESCE(evaluator_id::text, '')
    FROM step_approvals
    WHERE period_id = $1 AND employee_id = $2 AND stage = ANY($3)
    UNION
    SELECT kind, COALESCE(evaluator_id::text, '')
    FROM stage_mappings
    WHERE period_id = $1 AND employee_id = $2 AND kind = ANY($3) AND project_id IS NULL
  `, periodID, employeeID, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []StepKey
	for rows.Next() {
		key := StepKey{PeriodID: periodID, EmployeeID: employeeID}
		if err := rows.Scan(&key.Stage, &key.EvaluatorID); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *Store) ListStepsForEmployee(ctx context.Context, periodID, employeeID string) ([]StepApproval, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+stepColumns+`
    FROM step_approvals
    WHERE period_id = $1 AND employee_id = $2
    ORDER BY created_at
  `, periodID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StepApproval
	for rows.Next() {
		record, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) CreateRevisionRequestTx(ctx context.Context, tx pgx.Tx, req RevisionRequest, recipients []RevisionRequestRecipient) (string, error) {
	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO revision_requests (period_id, employee_id, stage, comment, requested_by)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, req.PeriodID, req.EmployeeID, req.Stage, req.Comment, req.RequestedBy).Scan(&id); err != nil {
		return "", err
	}

	for _, recipient := range recipients {
		if _, err := tx.Exec(ctx, `
      INSERT INTO revision_request_recipients (request_id, recipient_id, recipient_type)
      VALUES ($1, $2, $3)
    `, id, recipient.RecipientID, recipient.RecipientType); err != nil {
			return "", err
		}
	}
	return id, nil
}

const recipientJoinColumns = `
    r.id, r.period_id, r.employee_id, r.stage, r.comment, r.requested_by, r.requested_at,
    p.request_id, p.recipient_id, p.recipient_type, p.is_read, p.read_at, p.is_completed, p.completed_at, COALESCE(p.response_comment, '')`

func scanRecipientJoin(row pgx.Row) (RevisionRequest, RevisionRequestRecipient, error) {
	var req RevisionRequest
	var recipient RevisionRequestRecipient
	err := row.Scan(
		&req.ID,
		&req.PeriodID,
		&req.EmployeeID,
		&req.Stage,
		&req.Comment,
		&req.RequestedBy,
		&req.RequestedAt,
		&recipient.RequestID,
		&recipient.RecipientID,
		&recipient.RecipientType,
		&recipient.IsRead,
		&recipient.ReadAt,
		&recipient.IsCompleted,
		&recipient.CompletedAt,
		&recipient.ResponseComment,
	)
	return req, recipient, err
}

func (s *Store) OpenRecipientTx(ctx context.Context, tx pgx.Tx, requestID, recipientID string) (RevisionRequest, RevisionRequestRecipient, bool, error) {
	req, recipient, err := scanRecipientJoin(tx.QueryRow(ctx, `
    SELECT `+recipientJoinColumns+`
    FROM revision_request_recipients p
    JOIN revision_requests r ON r.id = p.request_id
    WHERE p.request_id = $1 AND p.recipient_id = $2 AND p.is_completed = false
    FOR UPDATE OF p
  `, requestID, recipientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return RevisionRequest{}, RevisionRequestRecipient{}, false, nil
	}
	if err != nil {
		return RevisionRequest{}, RevisionRequestRecipient{}, false, err
	}
	return req, recipient, true, nil
}

func (s *Store) OpenRecipientForStepTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stage Stage, recipientID string, recipientType RecipientType) (RevisionRequest, RevisionRequestRecipient, bool, error) {
	query := `
    SELECT ` + recipientJoinColumns + `
    FROM revision_request_recipients p
    JOIN revision_requests r ON r.id = p.request_id
    WHERE r.period_id = $1 AND r.employee_id = $2 AND r.stage = $3
      AND p.recipient_id = $4 AND p.is_completed = false
  `
	args := []any{periodID, employeeID, stage, recipientID}
	if recipientType != "" {
		query += fmt.Sprintf(" AND p.recipient_type = $%d", len(args)+1)
		args = append(args, recipientType)
	}
	query += " ORDER BY r.requested_at DESC LIMIT 1 FOR UPDATE OF p"

	req, recipient, err := scanRecipientJoin(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return RevisionRequest{}, RevisionRequestRecipient{}, false, nil
	}
	if err != nil {
		return RevisionRequest{}, RevisionRequestRecipient{}, false, err
	}
	return req, recipient, true, nil
}

func (s *Store) CompleteRecipientTx(ctx context.Context, tx pgx.Tx, requestID, recipientID, responseComment string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE revision_request_recipients
    SET is_completed = true, completed_at = now(), response_comment = $3
    WHERE request_id = $1 AND recipient_id = $2 AND is_completed = false
  `, requestID, recipientID, responseComment)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: revision recipient already completed", ErrNotFound)
	}
	return nil
}

func (s *Store) MarkRecipientRead(ctx context.Context, requestID, recipientID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE revision_request_recipients
    SET is_read = true, read_at = now()
    WHERE request_id = $1 AND recipient_id = $2 AND is_read = false
  `, requestID, recipientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RecipientExists(ctx context.Context, requestID, recipientID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM revision_request_recipients
    WHERE request_id = $1 AND recipient_id = $2
  `, requestID, recipientID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM revision_request_recipients
    WHERE recipient_id = $1 AND is_read = false
  `, recipientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ListForRecipient(ctx context.Context, recipientID string, filters RevisionFilters) ([]RevisionInboxItem, error) {
	query := `
    SELECT ` + recipientJoinColumns + `
    FROM revision_request_recipients p
    JOIN revision_requests r ON r.id = p.request_id
    WHERE p.recipient_id = $1
  `
	args := []any{recipientID}
	if filters.PeriodID != "" {
		query += fmt.Sprintf(" AND r.period_id = $%d", len(args)+1)
		args = append(args, filters.PeriodID)
	}
	if filters.Stage != "" {
		query += fmt.Sprintf(" AND r.stage = $%d", len(args)+1)
		args = append(args, filters.Stage)
	}
	if filters.OnlyOpen {
		query += " AND p.is_completed = false"
	}
	query += " ORDER BY r.requested_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RevisionInboxItem
	for rows.Next() {
		req, recipient, err := scanRecipientJoin(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, RevisionInboxItem{Request: req, Recipient: recipient})
	}
	return items, rows.Err()
}

func (s *Store) ListAll(ctx context.Context, filters RevisionFilters) ([]RevisionRequest, error) {
	query := `
    SELECT id, period_id, employee_id, stage, comment, requested_by, requested_at
    FROM revision_requests
    WHERE 1 = 1
  `
	args := []any{}
	if filters.PeriodID != "" {
		query += fmt.Sprintf(" AND period_id = $%d", len(args)+1)
		args = append(args, filters.PeriodID)
	}
	if filters.EmployeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, filters.EmployeeID)
	}
	if filters.Stage != "" {
		query += fmt.Sprintf(" AND stage = $%d", len(args)+1)
		args = append(args, filters.Stage)
	}
	if filters.OnlyOpen {
		query += ` AND EXISTS (
      SELECT 1 FROM revision_request_recipients p
      WHERE p.request_id = revision_requests.id AND p.is_completed = false
    )`
	}
	query += " ORDER BY requested_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []RevisionRequest
	for rows.Next() {
		var req RevisionRequest
		if err := rows.Scan(&req.ID, &req.PeriodID, &req.EmployeeID, &req.Stage, &req.Comment, &req.RequestedBy, &req.RequestedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
