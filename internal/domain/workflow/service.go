package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Service owns the step approval state machine and the revision request
// registry. Every mutating operation requires an explicit actor id and runs
// inside one transaction; registered transition handlers run inside that
// same transaction.
type Service struct {
	store      StoreAPI
	dispatcher *Dispatcher
}

func NewService(store StoreAPI, dispatcher *Dispatcher) *Service {
	if dispatcher == nil {
		dispatcher = NewDispatcher()
	}
	return &Service{store: store, dispatcher: dispatcher}
}

func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Transition applies one externally requested status change to the gate
// identified by in.Key, creating the gate record lazily on first use.
func (s *Service) Transition(ctx context.Context, in TransitionInput) (StepApproval, error) {
	if err := in.Key.Validate(); err != nil {
		return StepApproval{}, err
	}
	if strings.TrimSpace(in.ActorID) == "" {
		return StepApproval{}, fmt.Errorf("%w: actor id is required", ErrValidation)
	}
	switch in.Target {
	case StatusApproved:
	case StatusRevisionRequested:
		if strings.TrimSpace(in.Comment) == "" {
			return StepApproval{}, fmt.Errorf("%w: revision comment is required", ErrValidation)
		}
	case StatusRevisionCompleted:
		return StepApproval{}, fmt.Errorf("%w: revision_completed is only reachable through revision completion", ErrInvalidTransition)
	default:
		return StepApproval{}, fmt.Errorf("%w: unknown target status %q", ErrInvalidTransition, in.Target)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return StepApproval{}, err
	}
	defer tx.Rollback(ctx)

	record, found, err := s.store.GetStepForUpdateTx(ctx, tx, in.Key)
	if err != nil {
		return StepApproval{}, err
	}
	if !found {
		record, err = s.store.InsertStepTx(ctx, tx, in.Key, StatusPending, in.ActorID)
		if err != nil {
			return StepApproval{}, err
		}
	}

	if in.ExpectedVersion > 0 && record.Version != in.ExpectedVersion {
		return StepApproval{}, fmt.Errorf("%w: expected version %d, stored version %d", ErrConcurrentModification, in.ExpectedVersion, record.Version)
	}
	if !CanTransition(record.Status, in.Target) {
		return StepApproval{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, record.Status, in.Target)
	}

	comment := ""
	if in.Target == StatusRevisionRequested {
		comment = strings.TrimSpace(in.Comment)
		req := RevisionRequest{
			PeriodID:    in.Key.PeriodID,
			EmployeeID:  in.Key.EmployeeID,
			Stage:       in.Key.Stage,
			Comment:     comment,
			RequestedBy: in.ActorID,
		}
		if _, err := s.store.CreateRevisionRequestTx(ctx, tx, req, recipientsFor(in.Key)); err != nil {
			return StepApproval{}, err
		}
	}

	updated, err := s.store.UpdateStepTx(ctx, tx, in.Key, in.Target, comment, in.ActorID, record.Version+1)
	if err != nil {
		return StepApproval{}, err
	}

	evt := TransitionEvent{
		Key:        in.Key,
		From:       record.Status,
		To:         in.Target,
		Comment:    comment,
		ActorID:    in.ActorID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.dispatcher.Dispatch(ctx, tx, evt); err != nil {
		return StepApproval{}, err
	}

	if in.Target == StatusApproved && in.Cascade {
		if err := s.cascadeApproveTx(ctx, tx, in.Key, in.ActorID); err != nil {
			return StepApproval{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return StepApproval{}, err
	}
	return updated, nil
}

// cascadeApproveTx approves every gate strictly downstream of key that is
// currently pending or revision-completed. Gates under an open revision are
// never touched: a cascade must not silently clear a revision request.
func (s *Service) cascadeApproveTx(ctx context.Context, tx pgx.Tx, key StepKey, actorID string) error {
	downstream := DownstreamOf(key.Stage)
	if len(downstream) == 0 {
		return nil
	}

	keys, err := s.store.ListStepKeysTx(ctx, tx, key.PeriodID, key.EmployeeID, downstream)
	if err != nil {
		return err
	}

	for _, k := range keys {
		record, found, err := s.store.GetStepForUpdateTx(ctx, tx, k)
		if err != nil {
			return err
		}
		if !found {
			record, err = s.store.InsertStepTx(ctx, tx, k, StatusPending, actorID)
			if err != nil {
				return err
			}
		}
		if record.Status != StatusPending && record.Status != StatusRevisionCompleted {
			continue
		}
		if _, err := s.store.UpdateStepTx(ctx, tx, k, StatusApproved, "", actorID, record.Version+1); err != nil {
			return err
		}
		evt := TransitionEvent{
			Key:        k,
			From:       record.Status,
			To:         StatusApproved,
			ActorID:    actorID,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.dispatcher.Dispatch(ctx, tx, evt); err != nil {
			return err
		}
	}
	return nil
}

// recipientsFor fans a revision request out to the parties that must respond:
// the evaluatee always, plus the evaluator for downward stages.
func recipientsFor(key StepKey) []RevisionRequestRecipient {
	recipients := []RevisionRequestRecipient{
		{RecipientID: key.EmployeeID, RecipientType: RecipientEvaluatee},
	}
	if key.Stage.RequiresEvaluator() {
		recipients = append(recipients, RevisionRequestRecipient{
			RecipientID:   key.EvaluatorID,
			RecipientType: RecipientEvaluator,
		})
	}
	return recipients
}

func (s *Service) GetStep(ctx context.Context, key StepKey) (StepApproval, error) {
	record, found, err := s.store.GetStep(ctx, key)
	if err != nil {
		return StepApproval{}, err
	}
	if !found {
		return StepApproval{}, fmt.Errorf("%w: no step approval for key", ErrNotFound)
	}
	return record, nil
}

func (s *Service) ListStepsForEmployee(ctx context.Context, periodID, employeeID string) ([]StepApproval, error) {
	return s.store.ListStepsForEmployee(ctx, periodID, employeeID)
}
