package notifications

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateNotification(ctx context.Context, employeeID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (employee_id, type, title, body)
    VALUES ($1, $2, $3, $4)
  `, employeeID, ntype, title, body)
	return err
}

func (s *Store) EmployeeEmail(ctx context.Context, employeeID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM employees WHERE id = $1", employeeID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.EmployeeID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
	return n, err
}

func (s *Store) ListNotifications(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, type, title, body, read_at, created_at
    FROM notifications
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, employeeID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM notifications WHERE employee_id = $1 AND read_at IS NULL",
		employeeID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, employeeID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE employee_id = $1 AND id = $2 AND read_at IS NULL
  `, employeeID, notificationID)
	return err
}
