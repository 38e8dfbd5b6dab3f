package evaluation

import (
	"context"
	"fmt"
	"strings"

	"appraisal/internal/domain/workflow"
)

// Service is the evaluation upsert coordinator. It owns the content stores
// and the stage mapping registry; the workflow service owns the gates.
type Service struct {
	store StoreAPI
	flow  *workflow.Service
}

func NewService(store StoreAPI, flow *workflow.Service) *Service {
	return &Service{store: store, flow: flow}
}

// Upsert resolves key to at most one live content row: it creates the
// mapping and content on first save and updates the content in place on
// every later save. The submission flag is never touched here.
func (s *Service) Upsert(ctx context.Context, key ContentKey, content string, score *float64, actorID string) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	if strings.TrimSpace(actorID) == "" {
		return "", fmt.Errorf("%w: actor id is required", ErrValidation)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	mapping, found, err := s.store.GetMappingForUpdateTx(ctx, tx, key)
	if err != nil {
		return "", err
	}

	if !found {
		mapping, err = s.store.InsertMappingTx(ctx, tx, key)
		if err != nil {
			return "", err
		}
		contentID, err := s.store.InsertContentTx(ctx, tx, key.Kind, content, score)
		if err != nil {
			return "", err
		}
		if err := s.store.LinkContentTx(ctx, tx, mapping.ID, contentID); err != nil {
			return "", err
		}
		return contentID, tx.Commit(ctx)
	}

	if !mapping.Editable {
		return "", fmt.Errorf("%w: stage is approved", ErrLocked)
	}

	if mapping.ContentID == "" {
		contentID, err := s.store.InsertContentTx(ctx, tx, key.Kind, content, score)
		if err != nil {
			return "", err
		}
		if err := s.store.LinkContentTx(ctx, tx, mapping.ID, contentID); err != nil {
			return "", err
		}
		return contentID, tx.Commit(ctx)
	}

	if err := s.store.UpdateContentTx(ctx, tx, key.Kind, mapping.ContentID, content, score); err != nil {
		return "", err
	}
	return mapping.ContentID, tx.Commit(ctx)
}

// Submit sets the submission flag on the content bound to key. Submission
// is refused while the key's gate has an open revision; the combined
// SubmitAndCompleteRevision operation is the only way through that gate.
func (s *Service) Submit(ctx context.Context, key ContentKey, actorID string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(actorID) == "" {
		return fmt.Errorf("%w: actor id is required", ErrValidation)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	mapping, found, err := s.store.GetMappingForUpdateTx(ctx, tx, key)
	if err != nil {
		return err
	}
	if !found || mapping.ContentID == "" {
		return fmt.Errorf("%w: nothing to submit for key", ErrNotFound)
	}

	if stage, gated := key.Kind.GateStage(); gated {
		stepKey := workflow.StepKey{PeriodID: key.PeriodID, EmployeeID: key.EmployeeID, Stage: stage}
		if stage.RequiresEvaluator() {
			stepKey.EvaluatorID = key.EvaluatorID
		}
		status, exists, err := s.store.GetStepStatusTx(ctx, tx, stepKey)
		if err != nil {
			return err
		}
		if exists && status == workflow.StatusRevisionRequested {
			return ErrRevisionOpen
		}
	}

	if err := s.store.SetContentCompletedTx(ctx, tx, key.Kind, mapping.ContentID, true); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SubmitAndCompleteRevision lets a recipient resubmit content and close out
// their open revision in one user action and one transaction.
func (s *Service) SubmitAndCompleteRevision(ctx context.Context, kind Kind, evaluationID, recipientID, responseComment, actorID string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown evaluation kind %q", ErrValidation, kind)
	}
	stage, gated := kind.GateStage()
	if !gated {
		return fmt.Errorf("%w: %s evaluations have no revision workflow", ErrValidation, kind)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	mapping, found, err := s.store.GetMappingByContentTx(ctx, tx, kind, evaluationID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: evaluation %s", ErrNotFound, evaluationID)
	}

	if err := s.store.SetContentCompletedTx(ctx, tx, kind, evaluationID, true); err != nil {
		return err
	}
	if err := s.flow.CompleteForStepTx(ctx, tx, mapping.Key.PeriodID, mapping.Key.EmployeeID, stage, recipientID, responseComment, actorID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// BulkSubmit submits each key independently; a blocked or missing item is
// reported without aborting the rest of the batch.
func (s *Service) BulkSubmit(ctx context.Context, keys []ContentKey, actorID string) workflow.BulkResult[ContentKey] {
	return workflow.BulkApply(ctx, keys, func(ctx context.Context, key ContentKey) (string, error) {
		return "", s.Submit(ctx, key, actorID)
	})
}

// ApproveStage applies the stage-specific approve action: content that was
// saved but never submitted is submitted first, then the generic approval
// transition runs.
func (s *Service) ApproveStage(ctx context.Context, key workflow.StepKey, actorID string, cascade bool, expectedVersion int) (workflow.StepApproval, error) {
	if err := key.Validate(); err != nil {
		return workflow.StepApproval{}, err
	}
	if err := s.autoSubmit(ctx, key); err != nil {
		return workflow.StepApproval{}, err
	}
	return s.flow.Transition(ctx, workflow.TransitionInput{
		Key:             key,
		Target:          workflow.StatusApproved,
		ActorID:         actorID,
		Cascade:         cascade,
		ExpectedVersion: expectedVersion,
	})
}

// RequestRevision forwards to the generic transition with the stage's
// revision semantics.
func (s *Service) RequestRevision(ctx context.Context, key workflow.StepKey, comment, actorID string, expectedVersion int) (workflow.StepApproval, error) {
	return s.flow.Transition(ctx, workflow.TransitionInput{
		Key:             key,
		Target:          workflow.StatusRevisionRequested,
		Comment:         comment,
		ActorID:         actorID,
		ExpectedVersion: expectedVersion,
	})
}

func (s *Service) autoSubmit(ctx context.Context, key workflow.StepKey) error {
	contentKey, ok := contentKeyForStep(key)
	if !ok {
		return nil
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Same gate check as Submit: a gate under an open revision refuses the
	// implicit submission, so the approval's own transition failure leaves
	// no trace behind.
	status, exists, err := s.store.GetStepStatusTx(ctx, tx, key)
	if err != nil {
		return err
	}
	if exists && status == workflow.StatusRevisionRequested {
		return nil
	}

	mapping, found, err := s.store.GetMappingForUpdateTx(ctx, tx, contentKey)
	if err != nil {
		return err
	}
	if !found || mapping.ContentID == "" {
		return nil
	}
	content, found, err := s.store.GetContentTx(ctx, tx, contentKey.Kind, mapping.ContentID)
	if err != nil {
		return err
	}
	if !found || content.IsCompleted {
		return nil
	}
	if err := s.store.SetContentCompletedTx(ctx, tx, contentKey.Kind, mapping.ContentID, true); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func contentKeyForStep(key workflow.StepKey) (ContentKey, bool) {
	kind, ok := KindForStage(key.Stage)
	if !ok {
		return ContentKey{}, false
	}
	contentKey := ContentKey{
		PeriodID:   key.PeriodID,
		EmployeeID: key.EmployeeID,
		Kind:       kind,
	}
	if kind.RequiresEvaluator() {
		contentKey.EvaluatorID = key.EvaluatorID
	}
	return contentKey, true
}

func (s *Service) GetMapping(ctx context.Context, key ContentKey) (StageMapping, error) {
	mapping, found, err := s.store.GetMapping(ctx, key)
	if err != nil {
		return StageMapping{}, err
	}
	if !found {
		return StageMapping{}, fmt.Errorf("%w: no stage mapping for key", ErrNotFound)
	}
	return mapping, nil
}

func (s *Service) GetContent(ctx context.Context, kind Kind, contentID string) (Content, error) {
	content, found, err := s.store.GetContent(ctx, kind, contentID)
	if err != nil {
		return Content{}, err
	}
	if !found {
		return Content{}, fmt.Errorf("%w: evaluation %s", ErrNotFound, contentID)
	}
	return content, nil
}

func (s *Service) ListMappingsForEmployee(ctx context.Context, periodID, employeeID string) ([]StageMapping, error) {
	return s.store.ListMappingsForEmployee(ctx, periodID, employeeID)
}
