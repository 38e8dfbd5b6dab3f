package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const projectColumns = `id, period_id, code, name, COALESCE(description, ''), created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.PeriodID, &p.Code, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) InsertProject(ctx context.Context, in ProjectInput) (Project, error) {
	return scanProject(s.DB.QueryRow(ctx, `
    INSERT INTO projects (period_id, code, name, description)
    VALUES ($1, $2, $3, NULLIF($4, ''))
    RETURNING `+projectColumns+`
  `, in.PeriodID, in.Code, in.Name, in.Description))
}

func (s *Store) GetProject(ctx context.Context, id string) (Project, bool, error) {
	p, err := scanProject(s.DB.QueryRow(ctx, `
    SELECT `+projectColumns+` FROM projects WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, err
	}
	return p, true, nil
}

func (s *Store) ListProjects(ctx context.Context, periodID string) ([]Project, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+projectColumns+` FROM projects WHERE period_id = $1 ORDER BY code
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, id string, in ProjectInput) (Project, bool, error) {
	p, err := scanProject(s.DB.QueryRow(ctx, `
    UPDATE projects
    SET code = $2, name = $3, description = NULLIF($4, ''), updated_at = now()
    WHERE id = $1
    RETURNING `+projectColumns+`
  `, id, in.Code, in.Name, in.Description))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, err
	}
	return p, true, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const deliverableColumns = `id, project_id, wbs_code, title, COALESCE(description, ''), weight, created_at`

func scanDeliverable(row pgx.Row) (Deliverable, error) {
	var d Deliverable
	err := row.Scan(&d.ID, &d.ProjectID, &d.WBSCode, &d.Title, &d.Description, &d.Weight, &d.CreatedAt)
	return d, err
}

func (s *Store) InsertDeliverable(ctx context.Context, projectID string, in DeliverableInput) (Deliverable, error) {
	return scanDeliverable(s.DB.QueryRow(ctx, `
    INSERT INTO wbs_deliverables (project_id, wbs_code, title, description, weight)
    VALUES ($1, $2, $3, NULLIF($4, ''), $5)
    RETURNING `+deliverableColumns+`
  `, projectID, in.WBSCode, in.Title, in.Description, in.Weight))
}

func (s *Store) DeleteDeliverable(ctx context.Context, projectID, deliverableID string) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		"DELETE FROM wbs_deliverables WHERE id = $1 AND project_id = $2",
		deliverableID, projectID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListDeliverables(ctx context.Context, projectID string) ([]Deliverable, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+deliverableColumns+` FROM wbs_deliverables WHERE project_id = $1 ORDER BY wbs_code
  `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliverables []Deliverable
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		deliverables = append(deliverables, d)
	}
	return deliverables, rows.Err()
}

const assignmentColumns = `id, project_id, evaluator_id, target_id, role, created_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.ProjectID, &a.EvaluatorID, &a.TargetID, &a.Role, &a.CreatedAt)
	return a, err
}

func (s *Store) InsertAssignment(ctx context.Context, projectID string, in AssignmentInput) (Assignment, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM project_assignments
    WHERE project_id = $1 AND evaluator_id = $2 AND target_id = $3 AND role = $4
  `, projectID, in.EvaluatorID, in.TargetID, in.Role).Scan(&count); err != nil {
		return Assignment{}, err
	}
	if count > 0 {
		return Assignment{}, fmt.Errorf("%w: %s -> %s (%s)", ErrDuplicateAssignment, in.EvaluatorID, in.TargetID, in.Role)
	}

	return scanAssignment(s.DB.QueryRow(ctx, `
    INSERT INTO project_assignments (project_id, evaluator_id, target_id, role)
    VALUES ($1, $2, $3, $4)
    RETURNING `+assignmentColumns+`
  `, projectID, in.EvaluatorID, in.TargetID, in.Role))
}

func (s *Store) DeleteAssignment(ctx context.Context, projectID, assignmentID string) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		"DELETE FROM project_assignments WHERE id = $1 AND project_id = $2",
		assignmentID, projectID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListAssignments(ctx context.Context, projectID string) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+assignmentColumns+` FROM project_assignments WHERE project_id = $1 ORDER BY created_at
  `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *Store) ListAssignmentsForEvaluator(ctx context.Context, periodID, evaluatorID string) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.id, a.project_id, a.evaluator_id, a.target_id, a.role, a.created_at
    FROM project_assignments a
    JOIN projects p ON a.project_id = p.id
    WHERE p.period_id = $1 AND a.evaluator_id = $2
    ORDER BY a.created_at
  `, periodID, evaluatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
