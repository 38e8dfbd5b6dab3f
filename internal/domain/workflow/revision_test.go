package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestMarkReadIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.markReadUpdated = false
	store.recipientKnown = true
	svc := NewService(store, nil)

	if err := svc.MarkRead(context.Background(), "req-1", "e1"); err != nil {
		t.Fatalf("MarkRead on already-read row: %v", err)
	}
}

func TestMarkReadUnknownRecipient(t *testing.T) {
	store := newFakeStore()
	store.markReadUpdated = false
	store.recipientKnown = false
	svc := NewService(store, nil)

	if err := svc.MarkRead(context.Background(), "req-1", "stranger"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCompleteValidatesInput(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	if err := svc.Complete(context.Background(), "req-1", "e1", "   ", "e1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank comment: err = %v, want ErrValidation", err)
	}
	if err := svc.Complete(context.Background(), "req-1", "e1", "done", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank actor: err = %v, want ErrValidation", err)
	}
}

func TestCompleteNoOpenRecipient(t *testing.T) {
	store := newFakeStore()
	store.openFound = false
	svc := NewService(store, nil)

	err := svc.Complete(context.Background(), "req-1", "e1", "reworked the summary", "e1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if store.lastTx.committed {
		t.Fatal("missing recipient must not commit")
	}
}

func TestCompleteResolvesEvaluatorGate(t *testing.T) {
	store := newFakeStore()
	gateKey := StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary, EvaluatorID: "ev1"}
	store.steps[gateKey] = StepApproval{ID: "s1", Key: gateKey, Status: StatusRevisionRequested, Version: 2, RevisionComment: "restate goals"}
	store.openReq = RevisionRequest{ID: "req-1", PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary}
	store.openRecipient = RevisionRequestRecipient{RequestID: "req-1", RecipientID: "ev1", RecipientType: RecipientEvaluator}
	store.openFound = true
	svc := NewService(store, nil)

	if err := svc.Complete(context.Background(), "req-1", "ev1", "rewrote section two", "ev1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	record := store.steps[gateKey]
	if record.Status != StatusRevisionCompleted {
		t.Fatalf("status = %s, want revision_completed", record.Status)
	}
	if record.Version != 3 {
		t.Fatalf("version = %d, want 3", record.Version)
	}
	if record.RevisionComment != "restate goals" {
		t.Fatal("completion must keep the original revision comment")
	}
	if len(store.completed) != 1 || store.completed[0] != "req-1/ev1" {
		t.Fatalf("completed recipients = %v", store.completed)
	}
	if !store.lastTx.committed {
		t.Fatal("completion must commit")
	}
}

func TestCompleteEvaluateeResolvesAcknowledgementGate(t *testing.T) {
	store := newFakeStore()
	store.openReq = RevisionRequest{ID: "req-1", PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary}
	store.openRecipient = RevisionRequestRecipient{RequestID: "req-1", RecipientID: "e1", RecipientType: RecipientEvaluatee}
	store.openFound = true
	svc := NewService(store, nil)

	if err := svc.Complete(context.Background(), "req-1", "e1", "acknowledged, self-review updated", "e1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// The evaluatee side resolves the evaluator-less key, created lazily.
	ackKey := StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary}
	record, ok := store.steps[ackKey]
	if !ok {
		t.Fatal("acknowledgement gate was not created")
	}
	if record.Status != StatusRevisionCompleted {
		t.Fatalf("status = %s, want revision_completed", record.Status)
	}
}

func TestCompleteByEvaluatorKeyResolvesGate(t *testing.T) {
	store := newFakeStore()
	gateKey := StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary, EvaluatorID: "ev1"}
	store.steps[gateKey] = StepApproval{ID: "s1", Key: gateKey, Status: StatusRevisionRequested, Version: 2}
	store.openReq = RevisionRequest{ID: "req-1", PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary}
	store.openRecipient = RevisionRequestRecipient{RequestID: "req-1", RecipientID: "ev1", RecipientType: RecipientEvaluator}
	store.openFound = true
	svc := NewService(store, nil)

	if err := svc.CompleteByEvaluatorKey(context.Background(), "p1", "e1", "ev1", StagePrimary, "rescored after the new deliverable", "ev1"); err != nil {
		t.Fatalf("CompleteByEvaluatorKey: %v", err)
	}
	if got := store.steps[gateKey].Status; got != StatusRevisionCompleted {
		t.Fatalf("status = %s, want revision_completed", got)
	}
	if len(store.completed) != 1 || store.completed[0] != "req-1/ev1" {
		t.Fatalf("completed recipients = %v", store.completed)
	}
	if !store.lastTx.committed {
		t.Fatal("completion must commit")
	}
}

func TestCompleteByEvaluatorKeyRejectsUnknownStage(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	err := svc.CompleteByEvaluatorKey(context.Background(), "p1", "e1", "ev1", Stage("midpoint"), "done", "ev1")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCompleteByEvaluatorKeyNoOpenRecipient(t *testing.T) {
	store := newFakeStore()
	store.openFound = false
	svc := NewService(store, nil)

	err := svc.CompleteByEvaluatorKey(context.Background(), "p1", "e1", "ev1", StagePrimary, "done", "ev1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if store.lastTx.committed {
		t.Fatal("missing recipient must not commit")
	}
}

func TestCompleteAlreadyResolvedGateIsStable(t *testing.T) {
	store := newFakeStore()
	gateKey := StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StageSelf}
	store.steps[gateKey] = StepApproval{ID: "s1", Key: gateKey, Status: StatusApproved, Version: 4}
	store.openReq = RevisionRequest{ID: "req-1", PeriodID: "p1", EmployeeID: "e1", Stage: StageSelf}
	store.openRecipient = RevisionRequestRecipient{RequestID: "req-1", RecipientID: "e1", RecipientType: RecipientEvaluatee}
	store.openFound = true
	svc := NewService(store, nil)

	if err := svc.Complete(context.Background(), "req-1", "e1", "done", "e1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := store.steps[gateKey]; got.Status != StatusApproved || got.Version != 4 {
		t.Fatalf("approved gate must not regress, got %+v", got)
	}
}
