package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// MarkRead flags a recipient row as read. Already-read rows are left
// untouched, so the recorded readAt never moves.
func (s *Service) MarkRead(ctx context.Context, requestID, recipientID string) error {
	updated, err := s.store.MarkRecipientRead(ctx, requestID, recipientID)
	if err != nil {
		return err
	}
	if updated {
		return nil
	}
	exists, err := s.store.RecipientExists(ctx, requestID, recipientID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: revision recipient not found", ErrNotFound)
	}
	return nil
}

// Complete records a recipient's response and resolves that recipient's own
// step approval gate to revision_completed, all in one transaction.
func (s *Service) Complete(ctx context.Context, requestID, recipientID, responseComment, actorID string) error {
	if err := validateCompletion(responseComment, actorID); err != nil {
		return err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	req, recipient, found, err := s.store.OpenRecipientTx(ctx, tx, requestID, recipientID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no open revision recipient for request %s", ErrNotFound, requestID)
	}
	if err := s.completeRecipientTx(ctx, tx, req, recipient, responseComment, actorID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CompleteByEvaluatorKey is the lookup-first variant used when the caller
// holds the composite step key instead of the request id.
func (s *Service) CompleteByEvaluatorKey(ctx context.Context, periodID, employeeID, evaluatorID string, stage Stage, responseComment, actorID string) error {
	if err := validateCompletion(responseComment, actorID); err != nil {
		return err
	}
	if !stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrValidation, stage)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	req, recipient, found, err := s.store.OpenRecipientForStepTx(ctx, tx, periodID, employeeID, stage, evaluatorID, RecipientEvaluator)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no open revision recipient for evaluator %s", ErrNotFound, evaluatorID)
	}
	if err := s.completeRecipientTx(ctx, tx, req, recipient, responseComment, actorID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CompleteForStepTx completes the open recipient row matching a step key
// inside a caller-owned transaction. It exists for composed operations such
// as submit-and-complete-revision.
func (s *Service) CompleteForStepTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stage Stage, recipientID, responseComment, actorID string) error {
	if err := validateCompletion(responseComment, actorID); err != nil {
		return err
	}
	req, recipient, found, err := s.store.OpenRecipientForStepTx(ctx, tx, periodID, employeeID, stage, recipientID, "")
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no open revision recipient for %s", ErrNotFound, recipientID)
	}
	return s.completeRecipientTx(ctx, tx, req, recipient, responseComment, actorID)
}

func (s *Service) completeRecipientTx(ctx context.Context, tx pgx.Tx, req RevisionRequest, recipient RevisionRequestRecipient, responseComment, actorID string) error {
	if err := s.store.CompleteRecipientTx(ctx, tx, req.ID, recipient.RecipientID, strings.TrimSpace(responseComment)); err != nil {
		return err
	}
	return s.resolveStepOnCompletionTx(ctx, tx, req, recipient, actorID)
}

// resolveStepOnCompletionTx is the internal-only hook that produces
// revision_completed. Evaluator recipients resolve the per-evaluator gate;
// evaluatee recipients resolve the evaluator-less key, which for downward
// stages is the evaluatee's acknowledgement record and is created lazily.
func (s *Service) resolveStepOnCompletionTx(ctx context.Context, tx pgx.Tx, req RevisionRequest, recipient RevisionRequestRecipient, actorID string) error {
	key := StepKey{PeriodID: req.PeriodID, EmployeeID: req.EmployeeID, Stage: req.Stage}
	if recipient.RecipientType == RecipientEvaluator {
		key.EvaluatorID = recipient.RecipientID
	}

	record, found, err := s.store.GetStepForUpdateTx(ctx, tx, key)
	if err != nil {
		return err
	}
	if !found {
		record, err = s.store.InsertStepTx(ctx, tx, key, StatusPending, actorID)
		if err != nil {
			return err
		}
	}
	if record.Status == StatusRevisionCompleted || record.Status == StatusApproved {
		return nil
	}

	if _, err := s.store.UpdateStepTx(ctx, tx, key, StatusRevisionCompleted, record.RevisionComment, actorID, record.Version+1); err != nil {
		return err
	}
	evt := TransitionEvent{
		Key:        key,
		From:       record.Status,
		To:         StatusRevisionCompleted,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
	return s.dispatcher.Dispatch(ctx, tx, evt)
}

func validateCompletion(responseComment, actorID string) error {
	if strings.TrimSpace(responseComment) == "" {
		return fmt.Errorf("%w: response comment is required", ErrValidation)
	}
	if strings.TrimSpace(actorID) == "" {
		return fmt.Errorf("%w: actor id is required", ErrValidation)
	}
	return nil
}

func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.store.UnreadCount(ctx, recipientID)
}

func (s *Service) ListForRecipient(ctx context.Context, recipientID string, filters RevisionFilters) ([]RevisionInboxItem, error) {
	return s.store.ListForRecipient(ctx, recipientID, filters)
}

func (s *Service) ListAll(ctx context.Context, filters RevisionFilters) ([]RevisionRequest, error) {
	return s.store.ListAll(ctx, filters)
}
