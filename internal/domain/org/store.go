package org

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

const employeeColumns = `id, employee_no, first_name, last_name, email, department, position, COALESCE(manager_id::text, ''), status, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(
		&e.ID,
		&e.EmployeeNo,
		&e.FirstName,
		&e.LastName,
		&e.Email,
		&e.Department,
		&e.Position,
		&e.ManagerID,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (s *Store) Insert(ctx context.Context, in EmployeeInput) (Employee, error) {
	var count int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM employees WHERE email = $1 OR employee_no = $2",
		in.Email, in.EmployeeNo).Scan(&count); err != nil {
		return Employee{}, err
	}
	if count > 0 {
		return Employee{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
	}

	return scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (employee_no, first_name, last_name, email, department, position, manager_id, status)
    VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, 'active')
    RETURNING `+employeeColumns+`
  `, in.EmployeeNo, in.FirstName, in.LastName, in.Email, in.Department, in.Position, in.ManagerID))
}

func (s *Store) Get(ctx context.Context, id string) (Employee, bool, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+` FROM employees WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, false, nil
	}
	if err != nil {
		return Employee{}, false, err
	}
	return e, true, nil
}

func (s *Store) Update(ctx context.Context, id string, in EmployeeInput) (Employee, bool, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET employee_no = $2, first_name = $3, last_name = $4, email = $5,
        department = $6, position = $7, manager_id = NULLIF($8, '')::uuid,
        updated_at = now()
    WHERE id = $1
    RETURNING `+employeeColumns+`
  `, id, in.EmployeeNo, in.FirstName, in.LastName, in.Email, in.Department, in.Position, in.ManagerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, false, nil
	}
	if err != nil {
		return Employee{}, false, err
	}
	return e, true, nil
}

func (s *Store) SetStatus(ctx context.Context, id, status string) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		"UPDATE employees SET status = $2, updated_at = now() WHERE id = $1",
		id, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) List(ctx context.Context, filters ListFilters) ([]Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE 1=1"
	args := []any{}

	if filters.Department != "" {
		args = append(args, filters.Department)
		query += fmt.Sprintf(" AND department = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.ManagerID != "" {
		args = append(args, filters.ManagerID)
		query += fmt.Sprintf(" AND manager_id = $%d", len(args))
	}
	query += " ORDER BY employee_no"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}
