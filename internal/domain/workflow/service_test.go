package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeStore struct {
	StoreAPI

	steps      map[StepKey]StepApproval
	nextID     int
	lastTx     *fakeTx
	beginCalls int

	revisions  []RevisionRequest
	recipients map[string][]RevisionRequestRecipient

	markReadUpdated bool
	recipientKnown  bool

	openReq       RevisionRequest
	openRecipient RevisionRequestRecipient
	openFound     bool
	completed     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		steps:      map[StepKey]StepApproval{},
		recipients: map[string][]RevisionRequestRecipient{},
	}
}

func (f *fakeStore) Begin(ctx context.Context) (pgx.Tx, error) {
	f.beginCalls++
	f.lastTx = &fakeTx{}
	return f.lastTx, nil
}

func (f *fakeStore) GetStepForUpdateTx(ctx context.Context, tx pgx.Tx, key StepKey) (StepApproval, bool, error) {
	record, ok := f.steps[key]
	return record, ok, nil
}

func (f *fakeStore) InsertStepTx(ctx context.Context, tx pgx.Tx, key StepKey, status Status, actorID string) (StepApproval, error) {
	f.nextID++
	record := StepApproval{
		ID:        fmt.Sprintf("step-%d", f.nextID),
		Key:       key,
		Status:    status,
		Version:   1,
		UpdatedBy: actorID,
	}
	f.steps[key] = record
	return record, nil
}

func (f *fakeStore) UpdateStepTx(ctx context.Context, tx pgx.Tx, key StepKey, status Status, comment, actorID string, version int) (StepApproval, error) {
	record, ok := f.steps[key]
	if !ok {
		return StepApproval{}, fmt.Errorf("%w: no step approval for key", ErrNotFound)
	}
	record.Status = status
	record.RevisionComment = comment
	record.UpdatedBy = actorID
	record.Version = version
	f.steps[key] = record
	return record, nil
}

func (f *fakeStore) ListStepKeysTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stages []Stage) ([]StepKey, error) {
	wanted := map[Stage]bool{}
	for _, stage := range stages {
		wanted[stage] = true
	}
	var out []StepKey
	for key := range f.steps {
		if key.PeriodID == periodID && key.EmployeeID == employeeID && wanted[key.Stage] {
			out = append(out, key)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateRevisionRequestTx(ctx context.Context, tx pgx.Tx, req RevisionRequest, recipients []RevisionRequestRecipient) (string, error) {
	f.nextID++
	req.ID = fmt.Sprintf("req-%d", f.nextID)
	f.revisions = append(f.revisions, req)
	f.recipients[req.ID] = recipients
	return req.ID, nil
}

func (f *fakeStore) OpenRecipientTx(ctx context.Context, tx pgx.Tx, requestID, recipientID string) (RevisionRequest, RevisionRequestRecipient, bool, error) {
	return f.openReq, f.openRecipient, f.openFound, nil
}

func (f *fakeStore) OpenRecipientForStepTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stage Stage, recipientID string, recipientType RecipientType) (RevisionRequest, RevisionRequestRecipient, bool, error) {
	return f.openReq, f.openRecipient, f.openFound, nil
}

func (f *fakeStore) CompleteRecipientTx(ctx context.Context, tx pgx.Tx, requestID, recipientID, responseComment string) error {
	f.completed = append(f.completed, requestID+"/"+recipientID)
	return nil
}

func (f *fakeStore) MarkRecipientRead(ctx context.Context, requestID, recipientID string) (bool, error) {
	return f.markReadUpdated, nil
}

func (f *fakeStore) RecipientExists(ctx context.Context, requestID, recipientID string) (bool, error) {
	return f.recipientKnown, nil
}

func (f *fakeStore) GetStep(ctx context.Context, key StepKey) (StepApproval, bool, error) {
	record, ok := f.steps[key]
	return record, ok, nil
}

func criteriaKey() StepKey {
	return StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StageCriteria}
}

func TestTransitionApprovesLazilyCreatedGate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	record, err := svc.Transition(context.Background(), TransitionInput{
		Key:     criteriaKey(),
		Target:  StatusApproved,
		ActorID: "hr1",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if record.Status != StatusApproved {
		t.Fatalf("status = %s, want %s", record.Status, StatusApproved)
	}
	if record.Version != 2 {
		t.Fatalf("version = %d, want 2", record.Version)
	}
	if !store.lastTx.committed {
		t.Fatal("transaction was not committed")
	}
}

func TestTransitionValidatesInput(t *testing.T) {
	tests := []struct {
		name string
		in   TransitionInput
		want error
	}{
		{
			name: "missing actor",
			in:   TransitionInput{Key: criteriaKey(), Target: StatusApproved},
			want: ErrValidation,
		},
		{
			name: "revision without comment",
			in:   TransitionInput{Key: criteriaKey(), Target: StatusRevisionRequested, ActorID: "hr1"},
			want: ErrValidation,
		},
		{
			name: "direct revision_completed",
			in:   TransitionInput{Key: criteriaKey(), Target: StatusRevisionCompleted, ActorID: "hr1"},
			want: ErrInvalidTransition,
		},
		{
			name: "evaluator on self stage",
			in: TransitionInput{
				Key:     StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StageSelf, EvaluatorID: "ev1"},
				Target:  StatusApproved,
				ActorID: "hr1",
			},
			want: ErrValidation,
		},
		{
			name: "downward stage without evaluator",
			in: TransitionInput{
				Key:     StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary},
				Target:  StatusApproved,
				ActorID: "hr1",
			},
			want: ErrValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store, nil)
			if _, err := svc.Transition(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if store.beginCalls != 0 {
				t.Fatal("validation failure should not open a transaction")
			}
		})
	}
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	store := newFakeStore()
	store.steps[criteriaKey()] = StepApproval{ID: "step-1", Key: criteriaKey(), Status: StatusApproved, Version: 2}
	svc := NewService(store, nil)

	_, err := svc.Transition(context.Background(), TransitionInput{
		Key:     criteriaKey(),
		Target:  StatusApproved,
		ActorID: "hr1",
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if store.lastTx.committed {
		t.Fatal("failed transition must not commit")
	}
	if store.steps[criteriaKey()].Version != 2 {
		t.Fatal("failed transition must not touch the record")
	}
}

func TestTransitionVersionConflict(t *testing.T) {
	store := newFakeStore()
	store.steps[criteriaKey()] = StepApproval{ID: "step-1", Key: criteriaKey(), Status: StatusPending, Version: 3}
	svc := NewService(store, nil)

	_, err := svc.Transition(context.Background(), TransitionInput{
		Key:             criteriaKey(),
		Target:          StatusApproved,
		ActorID:         "hr1",
		ExpectedVersion: 2,
	})
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("err = %v, want ErrConcurrentModification", err)
	}
	if store.steps[criteriaKey()].Status != StatusPending {
		t.Fatal("stale write must leave the record untouched")
	}
}

func TestTransitionRevisionRequestFansOutRecipients(t *testing.T) {
	store := newFakeStore()
	key := StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary, EvaluatorID: "ev1"}
	svc := NewService(store, nil)

	record, err := svc.Transition(context.Background(), TransitionInput{
		Key:     key,
		Target:  StatusRevisionRequested,
		Comment: "  please restate the Q3 deliverable  ",
		ActorID: "hr1",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if record.Status != StatusRevisionRequested {
		t.Fatalf("status = %s, want %s", record.Status, StatusRevisionRequested)
	}
	if record.RevisionComment != "please restate the Q3 deliverable" {
		t.Fatalf("comment = %q, want trimmed comment", record.RevisionComment)
	}
	if len(store.revisions) != 1 {
		t.Fatalf("revision requests = %d, want 1", len(store.revisions))
	}
	recipients := store.recipients[store.revisions[0].ID]
	if len(recipients) != 2 {
		t.Fatalf("recipients = %d, want evaluatee and evaluator", len(recipients))
	}
	if recipients[0].RecipientType != RecipientEvaluatee || recipients[0].RecipientID != "e1" {
		t.Fatalf("first recipient = %+v, want evaluatee e1", recipients[0])
	}
	if recipients[1].RecipientType != RecipientEvaluator || recipients[1].RecipientID != "ev1" {
		t.Fatalf("second recipient = %+v, want evaluator ev1", recipients[1])
	}
}

func TestTransitionRevisionRequestSelfStageSingleRecipient(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	_, err := svc.Transition(context.Background(), TransitionInput{
		Key:     StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StageSelf},
		Target:  StatusRevisionRequested,
		Comment: "missing evidence for goal 2",
		ActorID: "hr1",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	recipients := store.recipients[store.revisions[0].ID]
	if len(recipients) != 1 || recipients[0].RecipientType != RecipientEvaluatee {
		t.Fatalf("recipients = %+v, want only the evaluatee", recipients)
	}
}

func TestTransitionCascadeApprovesDownstream(t *testing.T) {
	store := newFakeStore()
	selfKey := StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StageSelf}
	primaryKey := StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StagePrimary, EvaluatorID: "ev1"}
	secondaryKey := StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: StageSecondary, EvaluatorID: "ev2"}
	store.steps[selfKey] = StepApproval{ID: "s1", Key: selfKey, Status: StatusPending, Version: 1}
	store.steps[primaryKey] = StepApproval{ID: "s2", Key: primaryKey, Status: StatusRevisionRequested, Version: 2}
	store.steps[secondaryKey] = StepApproval{ID: "s3", Key: secondaryKey, Status: StatusRevisionCompleted, Version: 3}

	var events []TransitionEvent
	dispatcher := NewDispatcher()
	dispatcher.Register(func(ctx context.Context, tx pgx.Tx, evt TransitionEvent) error {
		events = append(events, evt)
		return nil
	})
	svc := NewService(store, dispatcher)

	_, err := svc.Transition(context.Background(), TransitionInput{
		Key:     criteriaKey(),
		Target:  StatusApproved,
		ActorID: "hr1",
		Cascade: true,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if got := store.steps[selfKey].Status; got != StatusApproved {
		t.Fatalf("self status = %s, want approved", got)
	}
	if got := store.steps[secondaryKey].Status; got != StatusApproved {
		t.Fatalf("secondary status = %s, want approved", got)
	}
	if got := store.steps[primaryKey].Status; got != StatusRevisionRequested {
		t.Fatalf("primary status = %s, cascade must not clear an open revision", got)
	}
	// One event for the requested gate plus one per cascaded gate.
	if len(events) != 3 {
		t.Fatalf("dispatched events = %d, want 3", len(events))
	}
}

func TestTransitionHandlerErrorAbortsCommit(t *testing.T) {
	store := newFakeStore()
	dispatcher := NewDispatcher()
	handlerErr := errors.New("inbox write failed")
	dispatcher.Register(func(ctx context.Context, tx pgx.Tx, evt TransitionEvent) error {
		return handlerErr
	})
	svc := NewService(store, dispatcher)

	_, err := svc.Transition(context.Background(), TransitionInput{
		Key:     criteriaKey(),
		Target:  StatusApproved,
		ActorID: "hr1",
	})
	if !errors.Is(err, handlerErr) {
		t.Fatalf("err = %v, want handler error", err)
	}
	if store.lastTx.committed {
		t.Fatal("handler failure must roll the transition back")
	}
}

func TestGetStepNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	_, err := svc.GetStep(context.Background(), criteriaKey())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
