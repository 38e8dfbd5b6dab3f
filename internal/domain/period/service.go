package period

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Service struct {
	store StoreAPI
	log   *slog.Logger
}

func NewService(store StoreAPI, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID string) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	if strings.TrimSpace(actorID) == "" {
		return Period{}, fmt.Errorf("%w: actor id is required", ErrValidation)
	}
	return s.store.Insert(ctx, in)
}

func (s *Service) Get(ctx context.Context, id string) (Period, error) {
	p, found, err := s.store.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if !found {
		return Period{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.store.List(ctx)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput, actorID string) (Period, error) {
	if strings.TrimSpace(actorID) == "" {
		return Period{}, fmt.Errorf("%w: actor id is required", ErrValidation)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return Period{}, fmt.Errorf("%w: name cannot be blank", ErrValidation)
	}
	p, found, err := s.store.Update(ctx, id, in)
	if err != nil {
		return Period{}, err
	}
	if !found {
		return Period{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Advance moves a period to target manually. Only strictly forward moves
// are allowed, and a closed period stays closed.
func (s *Service) Advance(ctx context.Context, id string, target Phase, actorID string) (Period, error) {
	if !target.Valid() {
		return Period{}, fmt.Errorf("%w: unknown phase %q", ErrValidation, target)
	}
	if strings.TrimSpace(actorID) == "" {
		return Period{}, fmt.Errorf("%w: actor id is required", ErrValidation)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Period{}, err
	}
	defer tx.Rollback(ctx)

	p, found, err := s.store.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return Period{}, err
	}
	if !found {
		return Period{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if p.Phase == PhaseClosed {
		return Period{}, fmt.Errorf("%w: %s", ErrPeriodClosed, id)
	}
	if target.Order() <= p.Phase.Order() {
		return Period{}, fmt.Errorf("%w: %s -> %s", ErrInvalidPhaseOrder, p.Phase, target)
	}

	if err := s.store.SetPhaseTx(ctx, tx, id, target); err != nil {
		return Period{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Period{}, err
	}

	s.log.Info("period phase advanced", "periodId", id, "from", p.Phase, "to", target, "actorId", actorID)
	p.Phase = target
	return p, nil
}

// AdvanceDuePhases is the scheduler sweep. It advances every period whose
// current phase deadline has passed and is idempotent: a second sweep at
// the same instant finds nothing due.
func (s *Service) AdvanceDuePhases(ctx context.Context, now time.Time) (int, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	due, err := s.store.ListDueTx(ctx, tx)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, p := range due {
		target, ok := AdvanceTarget(p, now)
		if !ok {
			continue
		}
		if err := s.store.SetPhaseTx(ctx, tx, p.ID, target); err != nil {
			return 0, err
		}
		s.log.Info("period phase auto-advanced", "periodId", p.ID, "from", p.Phase, "to", target)
		advanced++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return advanced, nil
}
