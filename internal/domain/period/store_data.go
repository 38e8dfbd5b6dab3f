package period

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const periodColumns = `id, name, phase, start_date, end_date,
  criteria_deadline, self_deadline, primary_deadline, secondary_deadline, final_deadline,
  closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Phase,
		&p.StartDate,
		&p.EndDate,
		&p.Deadlines.Criteria,
		&p.Deadlines.Self,
		&p.Deadlines.Primary,
		&p.Deadlines.Secondary,
		&p.Deadlines.Final,
		&p.ClosedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (s *Store) Insert(ctx context.Context, in CreateInput) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_periods
      (name, phase, start_date, end_date,
       criteria_deadline, self_deadline, primary_deadline, secondary_deadline, final_deadline)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING `+periodColumns+`
  `, in.Name, PhaseSetup, in.StartDate, in.EndDate,
		in.Deadlines.Criteria, in.Deadlines.Self, in.Deadlines.Primary, in.Deadlines.Secondary, in.Deadlines.Final))
}

func (s *Store) Get(ctx context.Context, id string) (Period, bool, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, `
    SELECT `+periodColumns+` FROM evaluation_periods WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, false, nil
	}
	if err != nil {
		return Period{}, false, err
	}
	return p, true, nil
}

func (s *Store) List(ctx context.Context) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+periodColumns+` FROM evaluation_periods ORDER BY start_date DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (Period, bool, error) {
	current, found, err := s.Get(ctx, id)
	if err != nil || !found {
		return Period{}, found, err
	}
	if in.Name != nil {
		current.Name = *in.Name
	}
	if in.EndDate != nil {
		current.EndDate = *in.EndDate
	}
	if in.Deadlines != nil {
		current.Deadlines = *in.Deadlines
	}

	p, err := scanPeriod(s.DB.QueryRow(ctx, `
    UPDATE evaluation_periods
    SET name = $2, end_date = $3,
        criteria_deadline = $4, self_deadline = $5, primary_deadline = $6,
        secondary_deadline = $7, final_deadline = $8,
        updated_at = now()
    WHERE id = $1
    RETURNING `+periodColumns+`
  `, id, current.Name, current.EndDate,
		current.Deadlines.Criteria, current.Deadlines.Self, current.Deadlines.Primary,
		current.Deadlines.Secondary, current.Deadlines.Final))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, false, nil
	}
	if err != nil {
		return Period{}, false, err
	}
	return p, true, nil
}

func (s *Store) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (Period, bool, error) {
	p, err := scanPeriod(tx.QueryRow(ctx, `
    SELECT `+periodColumns+` FROM evaluation_periods WHERE id = $1 FOR UPDATE
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, false, nil
	}
	if err != nil {
		return Period{}, false, err
	}
	return p, true, nil
}

func (s *Store) SetPhaseTx(ctx context.Context, tx pgx.Tx, id string, phase Phase) error {
	_, err := tx.Exec(ctx, `
    UPDATE evaluation_periods
    SET phase = $2,
        closed_at = CASE WHEN $2 = 'CLOSED' THEN now() ELSE closed_at END,
        updated_at = now()
    WHERE id = $1
  `, id, phase)
	return err
}

// ListDueTx locks the candidate rows so two concurrent sweeps cannot
// advance the same period twice.
func (s *Store) ListDueTx(ctx context.Context, tx pgx.Tx) ([]Period, error) {
	rows, err := tx.Query(ctx, `
    SELECT `+periodColumns+`
    FROM evaluation_periods
    WHERE phase NOT IN ('SETUP', 'CLOSED')
    ORDER BY start_date
    FOR UPDATE
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}
