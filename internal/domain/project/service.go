package project

import (
	"context"
	"fmt"

	"appraisal/internal/domain/workflow"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, in ProjectInput) (Project, error) {
	if err := in.Validate(); err != nil {
		return Project{}, err
	}
	return s.store.InsertProject(ctx, in)
}

func (s *Service) Get(ctx context.Context, id string) (Project, error) {
	p, found, err := s.store.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if !found {
		return Project{}, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, periodID string) ([]Project, error) {
	return s.store.ListProjects(ctx, periodID)
}

func (s *Service) Update(ctx context.Context, id string, in ProjectInput) (Project, error) {
	if err := in.Validate(); err != nil {
		return Project{}, err
	}
	p, found, err := s.store.UpdateProject(ctx, id, in)
	if err != nil {
		return Project{}, err
	}
	if !found {
		return Project{}, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.store.DeleteProject(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return nil
}

// BulkAddDeliverables creates each deliverable independently: one invalid
// line never blocks the rest of the batch.
func (s *Service) BulkAddDeliverables(ctx context.Context, projectID string, items []DeliverableInput) workflow.BulkResult[DeliverableInput] {
	return workflow.BulkApply(ctx, items, func(ctx context.Context, in DeliverableInput) (string, error) {
		if err := in.Validate(); err != nil {
			return "", err
		}
		d, err := s.store.InsertDeliverable(ctx, projectID, in)
		if err != nil {
			return "", err
		}
		return d.ID, nil
	})
}

func (s *Service) BulkRemoveDeliverables(ctx context.Context, projectID string, ids []string) workflow.BulkResult[string] {
	return workflow.BulkApply(ctx, ids, func(ctx context.Context, id string) (string, error) {
		found, err := s.store.DeleteDeliverable(ctx, projectID, id)
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("%w: deliverable %s", ErrNotFound, id)
		}
		return id, nil
	})
}

func (s *Service) ListDeliverables(ctx context.Context, projectID string) ([]Deliverable, error) {
	return s.store.ListDeliverables(ctx, projectID)
}

// BulkAssign pairs evaluators with targets on a project. Duplicates and
// self-assignments fail individually while the rest of the batch lands.
func (s *Service) BulkAssign(ctx context.Context, projectID string, items []AssignmentInput) workflow.BulkResult[AssignmentInput] {
	return workflow.BulkApply(ctx, items, func(ctx context.Context, in AssignmentInput) (string, error) {
		if err := in.Validate(); err != nil {
			return "", err
		}
		a, err := s.store.InsertAssignment(ctx, projectID, in)
		if err != nil {
			return "", err
		}
		return a.ID, nil
	})
}

func (s *Service) BulkUnassign(ctx context.Context, projectID string, ids []string) workflow.BulkResult[string] {
	return workflow.BulkApply(ctx, ids, func(ctx context.Context, id string) (string, error) {
		found, err := s.store.DeleteAssignment(ctx, projectID, id)
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("%w: assignment %s", ErrNotFound, id)
		}
		return id, nil
	})
}

func (s *Service) ListAssignments(ctx context.Context, projectID string) ([]Assignment, error) {
	return s.store.ListAssignments(ctx, projectID)
}

func (s *Service) ListAssignmentsForEvaluator(ctx context.Context, periodID, evaluatorID string) ([]Assignment, error) {
	return s.store.ListAssignmentsForEvaluator(ctx, periodID, evaluatorID)
}
