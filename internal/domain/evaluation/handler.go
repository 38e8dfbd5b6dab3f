package evaluation

import (
	"context"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/workflow"
)

// RegisterWorkflowHandlers couples content state to gate transitions: a
// revision request resets the bound record's submission flag and reopens
// editing, an approval locks the mapping. Handlers run inside the
// transition's transaction, so a failure rolls the transition back.
func (s *Service) RegisterWorkflowHandlers(dispatcher *workflow.Dispatcher) {
	dispatcher.Register(s.handleTransition)
}

func (s *Service) handleTransition(ctx context.Context, tx pgx.Tx, evt workflow.TransitionEvent) error {
	switch evt.To {
	case workflow.StatusRevisionRequested:
		return s.resetSubmissionTx(ctx, tx, evt.Key)
	case workflow.StatusApproved:
		return s.setEditableTx(ctx, tx, evt.Key, false)
	case workflow.StatusRevisionCompleted:
		return nil
	}
	return nil
}

func (s *Service) resetSubmissionTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey) error {
	contentKey, ok := contentKeyForStep(key)
	if !ok {
		return nil
	}
	mapping, found, err := s.store.GetMappingForUpdateTx(ctx, tx, contentKey)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if mapping.ContentID != "" {
		if err := s.store.SetContentCompletedTx(ctx, tx, contentKey.Kind, mapping.ContentID, false); err != nil {
			return err
		}
	}
	return s.store.SetMappingEditableTx(ctx, tx, mapping.ID, true)
}

func (s *Service) setEditableTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey, editable bool) error {
	contentKey, ok := contentKeyForStep(key)
	if !ok {
		return nil
	}
	mapping, found, err := s.store.GetMappingForUpdateTx(ctx, tx, contentKey)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return s.store.SetMappingEditableTx(ctx, tx, mapping.ID, editable)
}
