package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/workflow"
)

const mappingColumns = `id, period_id, employee_id, kind, COALESCE(project_id::text, ''), COALESCE(evaluator_id::text, ''), COALESCE(content_id::text, ''), editable, created_at`

func scanMapping(row pgx.Row) (StageMapping, error) {
	var mapping StageMapping
	err := row.Scan(
		&mapping.ID,
		&mapping.Key.PeriodID,
		&mapping.Key.EmployeeID,
		&mapping.Key.Kind,
		&mapping.Key.ProjectID,
		&mapping.Key.EvaluatorID,
		&mapping.ContentID,
		&mapping.Editable,
		&mapping.CreatedAt,
	)
	return mapping, err
}

func (s *Store) GetMappingForUpdateTx(ctx context.Context, tx pgx.Tx, key ContentKey) (StageMapping, bool, error) {
	mapping, err := scanMapping(tx.QueryRow(ctx, `
    SELECT `+mappingColumns+`
    FROM stage_mappings
    WHERE period_id = $1 AND employee_id = $2 AND kind = $3
      AND COALESCE(project_id::text, '') = $4 AND COALESCE(evaluator_id::text, '') = $5
    FOR UPDATE
  `, key.PeriodID, key.EmployeeID, key.Kind, key.ProjectID, key.EvaluatorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return StageMapping{}, false, nil
	}
	if err != nil {
		return StageMapping{}, false, err
	}
	return mapping, true, nil
}

func (s *Store) GetMapping(ctx context.Context, key ContentKey) (StageMapping, bool, error) {
	mapping, err := scanMapping(s.DB.QueryRow(ctx, `
    SELECT `+mappingColumns+`
    FROM stage_mappings
    WHERE period_id = $1 AND employee_id = $2 AND kind = $3
      AND COALESCE(project_id::text, '') = $4 AND COALESCE(evaluator_id::text, '') = $5
  `, key.PeriodID, key.EmployeeID, key.Kind, key.ProjectID, key.EvaluatorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return StageMapping{}, false, nil
	}
	if err != nil {
		return StageMapping{}, false, err
	}
	return mapping, true, nil
}

func (s *Store) GetMappingByContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string) (StageMapping, bool, error) {
	mapping, err := scanMapping(tx.QueryRow(ctx, `
    SELECT `+mappingColumns+`
    FROM stage_mappings
    WHERE kind = $1 AND content_id = $2
    FOR UPDATE
  `, kind, contentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return StageMapping{}, false, nil
	}
	if err != nil {
		return StageMapping{}, false, err
	}
	return mapping, true, nil
}

// InsertMappingTx enforces the at-most-one-active-mapping invariant with an
// explicit check; the unique index on the same columns backs it up.
func (s *Store) InsertMappingTx(ctx context.Context, tx pgx.Tx, key ContentKey) (StageMapping, error) {
	var count int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM stage_mappings
    WHERE period_id = $1 AND employee_id = $2 AND kind = $3
      AND COALESCE(project_id::text, '') = $4 AND COALESCE(evaluator_id::text, '') = $5
  `, key.PeriodID, key.EmployeeID, key.Kind, key.ProjectID, key.EvaluatorID).Scan(&count); err != nil {
		return StageMapping{}, err
	}
	if count > 0 {
		return StageMapping{}, fmt.Errorf("%w: %s/%s/%s", ErrDuplicateMapping, key.PeriodID, key.EmployeeID, key.Kind)
	}

	return scanMapping(tx.QueryRow(ctx, `
    INSERT INTO stage_mappings (period_id, employee_id, kind, project_id, evaluator_id, editable)
    VALUES ($1, $2, $3, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, true)
    RETURNING `+mappingColumns+`
  `, key.PeriodID, key.EmployeeID, key.Kind, key.ProjectID, key.EvaluatorID))
}

func (s *Store) LinkContentTx(ctx context.Context, tx pgx.Tx, mappingID, contentID string) error {
	_, err := tx.Exec(ctx, `
    UPDATE stage_mappings SET content_id = $2 WHERE id = $1
  `, mappingID, contentID)
	return err
}

func (s *Store) SetMappingEditableTx(ctx context.Context, tx pgx.Tx, mappingID string, editable bool) error {
	_, err := tx.Exec(ctx, `
    UPDATE stage_mappings SET editable = $2 WHERE id = $1
  `, mappingID, editable)
	return err
}

func (s *Store) ListMappingsForEmployee(ctx context.Context, periodID, employeeID string) ([]StageMapping, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+mappingColumns+`
    FROM stage_mappings
    WHERE period_id = $1 AND employee_id = $2
    ORDER BY created_at
  `, periodID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []StageMapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, mapping)
	}
	return mappings, rows.Err()
}

const contentColumns = `id, content, score, is_completed, completed_at, created_at, updated_at`

func scanContent(row pgx.Row, kind Kind) (Content, error) {
	content := Content{Kind: kind}
	err := row.Scan(
		&content.ID,
		&content.Content,
		&content.Score,
		&content.IsCompleted,
		&content.CompletedAt,
		&content.CreatedAt,
		&content.UpdatedAt,
	)
	return content, err
}

func (s *Store) InsertContentTx(ctx context.Context, tx pgx.Tx, kind Kind, content string, score *float64) (string, error) {
	table := contentTables[kind]
	var id string
	if kind == KindPrimary || kind == KindSecondary {
		err := tx.QueryRow(ctx, `
      INSERT INTO downward_evaluations (tier, content, score)
      VALUES ($1, $2, $3)
      RETURNING id
    `, kind, content, score).Scan(&id)
		return id, err
	}
	err := tx.QueryRow(ctx,
		fmt.Sprintf("INSERT INTO %s (content, score) VALUES ($1, $2) RETURNING id", table),
		content, score).Scan(&id)
	return id, err
}

func (s *Store) UpdateContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID, content string, score *float64) error {
	table := contentTables[kind]
	_, err := tx.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET content = $2, score = $3, updated_at = now() WHERE id = $1", table),
		contentID, content, score)
	return err
}

func (s *Store) SetContentCompletedTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string, completed bool) error {
	table := contentTables[kind]
	_, err := tx.Exec(ctx,
		fmt.Sprintf(`
      UPDATE %s
      SET is_completed = $2,
          completed_at = CASE WHEN $2 THEN now() ELSE NULL END,
          updated_at = now()
      WHERE id = $1
    `, table),
		contentID, completed)
	return err
}

func (s *Store) GetContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string) (Content, bool, error) {
	table := contentTables[kind]
	content, err := scanContent(tx.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", contentColumns, table),
		contentID), kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return Content{}, false, nil
	}
	if err != nil {
		return Content{}, false, err
	}
	return content, true, nil
}

func (s *Store) GetContent(ctx context.Context, kind Kind, contentID string) (Content, bool, error) {
	table := contentTables[kind]
	content, err := scanContent(s.DB.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", contentColumns, table),
		contentID), kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return Content{}, false, nil
	}
	if err != nil {
		return Content{}, false, err
	}
	return content, true, nil
}

func (s *Store) GetStepStatusTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey) (workflow.Status, bool, error) {
	var status workflow.Status
	err := tx.QueryRow(ctx, `
    SELECT status
    FROM step_approvals
    WHERE period_id = $1 AND employee_id = $2 AND stage = $3 AND COALESCE(evaluator_id::text, '') = $4
  `, key.PeriodID, key.EmployeeID, key.Stage, key.EvaluatorID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}
