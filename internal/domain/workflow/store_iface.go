package workflow

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type StoreAPI interface {
	Begin(ctx context.Context) (pgx.Tx, error)

	GetStepForUpdateTx(ctx context.Context, tx pgx.Tx, key StepKey) (StepApproval, bool, error)
	InsertStepTx(ctx context.Context, tx pgx.Tx, key StepKey, status Status, actorID string) (StepApproval, error)
	UpdateStepTx(ctx context.Context, tx pgx.Tx, key StepKey, status Status, comment, actorID string, version int) (StepApproval, error)
	ListStepKeysTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stages []Stage) ([]StepKey, error)

	CreateRevisionRequestTx(ctx context.Context, tx pgx.Tx, req RevisionRequest, recipients []RevisionRequestRecipient) (string, error)
	OpenRecipientTx(ctx context.Context, tx pgx.Tx, requestID, recipientID string) (RevisionRequest, RevisionRequestRecipient, bool, error)
	OpenRecipientForStepTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stage Stage, recipientID string, recipientType RecipientType) (RevisionRequest, RevisionRequestRecipient, bool, error)
	CompleteRecipientTx(ctx context.Context, tx pgx.Tx, requestID, recipientID, responseComment string) error

	MarkRecipientRead(ctx context.Context, requestID, recipientID string) (bool, error)
	RecipientExists(ctx context.Context, requestID, recipientID string) (bool, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	ListForRecipient(ctx context.Context, recipientID string, filters RevisionFilters) ([]RevisionInboxItem, error)
	ListAll(ctx context.Context, filters RevisionFilters) ([]RevisionRequest, error)
	GetStep(ctx context.Context, key StepKey) (StepApproval, bool, error)
	ListStepsForEmployee(ctx context.Context, periodID, employeeID string) ([]StepApproval, error)
}
