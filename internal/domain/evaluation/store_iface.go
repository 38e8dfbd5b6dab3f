package evaluation

import (
	"context"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/workflow"
)

type StoreAPI interface {
	Begin(ctx context.Context) (pgx.Tx, error)

	GetMappingForUpdateTx(ctx context.Context, tx pgx.Tx, key ContentKey) (StageMapping, bool, error)
	GetMappingByContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string) (StageMapping, bool, error)
	InsertMappingTx(ctx context.Context, tx pgx.Tx, key ContentKey) (StageMapping, error)
	LinkContentTx(ctx context.Context, tx pgx.Tx, mappingID, contentID string) error
	SetMappingEditableTx(ctx context.Context, tx pgx.Tx, mappingID string, editable bool) error

	InsertContentTx(ctx context.Context, tx pgx.Tx, kind Kind, content string, score *float64) (string, error)
	UpdateContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID, content string, score *float64) error
	SetContentCompletedTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string, completed bool) error
	GetContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string) (Content, bool, error)

	GetStepStatusTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey) (workflow.Status, bool, error)

	GetMapping(ctx context.Context, key ContentKey) (StageMapping, bool, error)
	GetContent(ctx context.Context, kind Kind, contentID string) (Content, bool, error)
	ListMappingsForEmployee(ctx context.Context, periodID, employeeID string) ([]StageMapping, error)
}
