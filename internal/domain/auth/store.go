package auth

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

type AuthUser struct {
	ID         string
	Email      string
	EmployeeID string
	Role       string
	Password   string
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, COALESCE(employee_id::text, ''), role, password_hash
    FROM users
    WHERE email = $1 AND status = $2
  `, email, StatusActive).Scan(&out.ID, &out.Email, &out.EmployeeID, &out.Role, &out.Password)
	return out, err
}

func (s *Store) GetUser(ctx context.Context, id string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, COALESCE(employee_id::text, ''), role, password_hash
    FROM users
    WHERE id = $1
  `, id).Scan(&out.ID, &out.Email, &out.EmployeeID, &out.Role, &out.Password)
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, userID)
	return err
}
