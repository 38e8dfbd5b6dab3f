package project

import "context"

type StoreAPI interface {
	InsertProject(ctx context.Context, in ProjectInput) (Project, error)
	GetProject(ctx context.Context, id string) (Project, bool, error)
	ListProjects(ctx context.Context, periodID string) ([]Project, error)
	UpdateProject(ctx context.Context, id string, in ProjectInput) (Project, bool, error)
	DeleteProject(ctx context.Context, id string) (bool, error)

	InsertDeliverable(ctx context.Context, projectID string, in DeliverableInput) (Deliverable, error)
	DeleteDeliverable(ctx context.Context, projectID, deliverableID string) (bool, error)
	ListDeliverables(ctx context.Context, projectID string) ([]Deliverable, error)

	InsertAssignment(ctx context.Context, projectID string, in AssignmentInput) (Assignment, error)
	DeleteAssignment(ctx context.Context, projectID, assignmentID string) (bool, error)
	ListAssignments(ctx context.Context, projectID string) ([]Assignment, error)
	ListAssignmentsForEvaluator(ctx context.Context, periodID, evaluatorID string) ([]Assignment, error)
}
