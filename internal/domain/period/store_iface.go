package period

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type StoreAPI interface {
	Begin(ctx context.Context) (pgx.Tx, error)

	Insert(ctx context.Context, in CreateInput) (Period, error)
	Get(ctx context.Context, id string) (Period, bool, error)
	List(ctx context.Context) ([]Period, error)
	Update(ctx context.Context, id string, in UpdateInput) (Period, bool, error)

	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (Period, bool, error)
	SetPhaseTx(ctx context.Context, tx pgx.Tx, id string, phase Phase) error
	ListDueTx(ctx context.Context, tx pgx.Tx) ([]Period, error)
}
