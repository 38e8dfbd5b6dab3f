package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	platformauth "appraisal/internal/auth"
	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/config"
)

// Seed provisions the bootstrap admin account and, outside production, a
// demo evaluation period. It is idempotent and skips the admin silently when
// no seed credentials are configured.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}
	if cfg.Environment != "production" {
		return ensureDemoPeriod(ctx, pool)
	}
	return nil
}

func ensureDemoPeriod(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM evaluation_periods").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := pool.Exec(ctx, `
    INSERT INTO evaluation_periods (name, phase, start_date, end_date)
    VALUES ('Demo Period', 'SETUP', now(), now() + interval '90 days')
  `)
	return err
}

// seedQuerier is the slice of the pool the admin bootstrap needs.
type seedQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func ensureAdminUser(ctx context.Context, pool seedQuerier, email, password string) error {
	var existing string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := platformauth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role, status)
    VALUES ($1, $2, $3, $4)
  `, email, hash, auth.RoleAdmin, auth.StatusActive)
	return err
}
