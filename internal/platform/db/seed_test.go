package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	id  string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 1 {
		if p, ok := dest[0].(*string); ok {
			*p = r.id
		}
	}
	return nil
}

type fakeQuerier struct {
	row      fakeRow
	inserted bool
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.row
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.inserted = true
	return pgconn.CommandTag{}, nil
}

func TestEnsureAdminUserSkipsExisting(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{id: "u1"}}
	if err := ensureAdminUser(context.Background(), q, "admin@corp.test", "secret"); err != nil {
		t.Fatalf("ensureAdminUser: %v", err)
	}
	if q.inserted {
		t.Fatal("existing admin must not be re-inserted")
	}
}

func TestEnsureAdminUserCreatesWhenMissing(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	if err := ensureAdminUser(context.Background(), q, "admin@corp.test", "secret"); err != nil {
		t.Fatalf("ensureAdminUser: %v", err)
	}
	if !q.inserted {
		t.Fatal("missing admin must be inserted")
	}
}

func TestEnsureAdminUserSurfacesLookupFailure(t *testing.T) {
	lookupErr := errors.New("connection reset")
	q := &fakeQuerier{row: fakeRow{err: lookupErr}}

	err := ensureAdminUser(context.Background(), q, "admin@corp.test", "secret")
	if !errors.Is(err, lookupErr) {
		t.Fatalf("err = %v, want the lookup failure", err)
	}
	if q.inserted {
		t.Fatal("a failed lookup must not fall through to insert")
	}
}
