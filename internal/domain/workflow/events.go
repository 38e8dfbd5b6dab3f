package workflow

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// TransitionEvent is the stable record of one step approval transition.
// Handlers run inside the transition's own transaction, so a handler error
// rolls the whole transition back.
type TransitionEvent struct {
	Key        StepKey
	From       Status
	To         Status
	Comment    string
	ActorID    string
	OccurredAt time.Time
}

type TransitionHandler func(ctx context.Context, tx pgx.Tx, evt TransitionEvent) error

type Dispatcher struct {
	handlers []TransitionHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Register(handler TransitionHandler) {
	if handler != nil {
		d.handlers = append(d.handlers, handler)
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, tx pgx.Tx, evt TransitionEvent) error {
	if d == nil {
		return nil
	}
	for _, handler := range d.handlers {
		if err := handler(ctx, tx, evt); err != nil {
			return err
		}
	}
	return nil
}
