package evaluation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/workflow"
)

type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	return nil
}

type fakeStore struct {
	StoreAPI

	mappings map[ContentKey]StageMapping
	contents map[string]Content
	statuses map[workflow.StepKey]workflow.Status
	nextID   int
	lastTx   *fakeTx
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mappings: map[ContentKey]StageMapping{},
		contents: map[string]Content{},
		statuses: map[workflow.StepKey]workflow.Status{},
	}
}

func (f *fakeStore) Begin(ctx context.Context) (pgx.Tx, error) {
	f.lastTx = &fakeTx{}
	return f.lastTx, nil
}

func (f *fakeStore) GetMappingForUpdateTx(ctx context.Context, tx pgx.Tx, key ContentKey) (StageMapping, bool, error) {
	mapping, ok := f.mappings[key]
	return mapping, ok, nil
}

func (f *fakeStore) GetMappingByContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string) (StageMapping, bool, error) {
	for _, mapping := range f.mappings {
		if mapping.Key.Kind == kind && mapping.ContentID == contentID {
			return mapping, true, nil
		}
	}
	return StageMapping{}, false, nil
}

func (f *fakeStore) InsertMappingTx(ctx context.Context, tx pgx.Tx, key ContentKey) (StageMapping, error) {
	if _, ok := f.mappings[key]; ok {
		return StageMapping{}, fmt.Errorf("%w: duplicate", ErrDuplicateMapping)
	}
	f.nextID++
	mapping := StageMapping{ID: fmt.Sprintf("map-%d", f.nextID), Key: key, Editable: true}
	f.mappings[key] = mapping
	return mapping, nil
}

func (f *fakeStore) LinkContentTx(ctx context.Context, tx pgx.Tx, mappingID, contentID string) error {
	for key, mapping := range f.mappings {
		if mapping.ID == mappingID {
			mapping.ContentID = contentID
			f.mappings[key] = mapping
			return nil
		}
	}
	return fmt.Errorf("%w: mapping %s", ErrNotFound, mappingID)
}

func (f *fakeStore) SetMappingEditableTx(ctx context.Context, tx pgx.Tx, mappingID string, editable bool) error {
	for key, mapping := range f.mappings {
		if mapping.ID == mappingID {
			mapping.Editable = editable
			f.mappings[key] = mapping
			return nil
		}
	}
	return fmt.Errorf("%w: mapping %s", ErrNotFound, mappingID)
}

func (f *fakeStore) InsertContentTx(ctx context.Context, tx pgx.Tx, kind Kind, content string, score *float64) (string, error) {
	f.nextID++
	id := fmt.Sprintf("content-%d", f.nextID)
	f.contents[id] = Content{ID: id, Kind: kind, Content: content, Score: score}
	return id, nil
}

func (f *fakeStore) UpdateContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID, content string, score *float64) error {
	record, ok := f.contents[contentID]
	if !ok {
		return fmt.Errorf("%w: content %s", ErrNotFound, contentID)
	}
	record.Content = content
	record.Score = score
	f.contents[contentID] = record
	return nil
}

func (f *fakeStore) SetContentCompletedTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string, completed bool) error {
	record, ok := f.contents[contentID]
	if !ok {
		return fmt.Errorf("%w: content %s", ErrNotFound, contentID)
	}
	record.IsCompleted = completed
	f.contents[contentID] = record
	return nil
}

func (f *fakeStore) GetContentTx(ctx context.Context, tx pgx.Tx, kind Kind, contentID string) (Content, bool, error) {
	record, ok := f.contents[contentID]
	return record, ok, nil
}

func (f *fakeStore) GetStepStatusTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey) (workflow.Status, bool, error) {
	status, ok := f.statuses[key]
	return status, ok, nil
}

// flowStore backs the workflow service the coordinator composes with.
type flowStore struct {
	workflow.StoreAPI

	steps  map[workflow.StepKey]workflow.StepApproval
	nextID int

	openReq       workflow.RevisionRequest
	openRecipient workflow.RevisionRequestRecipient
	openFound     bool
	completed     []string
}

func newFlowStore() *flowStore {
	return &flowStore{steps: map[workflow.StepKey]workflow.StepApproval{}}
}

func (f *flowStore) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{}, nil
}

func (f *flowStore) GetStepForUpdateTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey) (workflow.StepApproval, bool, error) {
	record, ok := f.steps[key]
	return record, ok, nil
}

func (f *flowStore) InsertStepTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey, status workflow.Status, actorID string) (workflow.StepApproval, error) {
	f.nextID++
	record := workflow.StepApproval{ID: fmt.Sprintf("step-%d", f.nextID), Key: key, Status: status, Version: 1, UpdatedBy: actorID}
	f.steps[key] = record
	return record, nil
}

func (f *flowStore) UpdateStepTx(ctx context.Context, tx pgx.Tx, key workflow.StepKey, status workflow.Status, comment, actorID string, version int) (workflow.StepApproval, error) {
	record := f.steps[key]
	record.Status = status
	record.RevisionComment = comment
	record.UpdatedBy = actorID
	record.Version = version
	f.steps[key] = record
	return record, nil
}

func (f *flowStore) ListStepKeysTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stages []workflow.Stage) ([]workflow.StepKey, error) {
	return nil, nil
}

func (f *flowStore) CreateRevisionRequestTx(ctx context.Context, tx pgx.Tx, req workflow.RevisionRequest, recipients []workflow.RevisionRequestRecipient) (string, error) {
	f.nextID++
	return fmt.Sprintf("req-%d", f.nextID), nil
}

func (f *flowStore) OpenRecipientForStepTx(ctx context.Context, tx pgx.Tx, periodID, employeeID string, stage workflow.Stage, recipientID string, recipientType workflow.RecipientType) (workflow.RevisionRequest, workflow.RevisionRequestRecipient, bool, error) {
	return f.openReq, f.openRecipient, f.openFound, nil
}

func (f *flowStore) CompleteRecipientTx(ctx context.Context, tx pgx.Tx, requestID, recipientID, responseComment string) error {
	f.completed = append(f.completed, requestID+"/"+recipientID)
	return nil
}

func selfKey() ContentKey {
	return ContentKey{PeriodID: "p1", EmployeeID: "e1", Kind: KindSelf}
}

func newTestService(store *fakeStore, flow *flowStore) *Service {
	return NewService(store, workflow.NewService(flow, nil))
}

func TestUpsertCreatesMappingAndContent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFlowStore())

	score := 4.5
	id, err := svc.Upsert(context.Background(), selfKey(), "drafted goals", &score, "e1")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	mapping := store.mappings[selfKey()]
	if mapping.ContentID != id {
		t.Fatalf("mapping content = %q, want %q", mapping.ContentID, id)
	}
	if !mapping.Editable {
		t.Fatal("new mapping must start editable")
	}
	if store.contents[id].IsCompleted {
		t.Fatal("saving must not submit")
	}
	if !store.lastTx.committed {
		t.Fatal("upsert must commit")
	}
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFlowStore())

	first, err := svc.Upsert(context.Background(), selfKey(), "draft one", nil, "e1")
	if err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	second, err := svc.Upsert(context.Background(), selfKey(), "draft two", nil, "e1")
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if first != second {
		t.Fatalf("second save created a new row: %s vs %s", first, second)
	}
	if store.contents[first].Content != "draft two" {
		t.Fatalf("content = %q, want updated draft", store.contents[first].Content)
	}
	if len(store.contents) != 1 {
		t.Fatalf("content rows = %d, want 1", len(store.contents))
	}
}

func TestUpsertRejectsLockedMapping(t *testing.T) {
	store := newFakeStore()
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), ContentID: "content-1", Editable: false}
	store.contents["content-1"] = Content{ID: "content-1", Kind: KindSelf}
	svc := newTestService(store, newFlowStore())

	_, err := svc.Upsert(context.Background(), selfKey(), "late edit", nil, "e1")
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
}

func TestUpsertRelinksOrphanMapping(t *testing.T) {
	store := newFakeStore()
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), Editable: true}
	svc := newTestService(store, newFlowStore())

	id, err := svc.Upsert(context.Background(), selfKey(), "recovered draft", nil, "e1")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if store.mappings[selfKey()].ContentID != id {
		t.Fatal("orphan mapping was not relinked")
	}
}

func TestUpsertValidatesKey(t *testing.T) {
	svc := newTestService(newFakeStore(), newFlowStore())

	tests := []struct {
		name string
		key  ContentKey
	}{
		{"missing evaluator on downward kind", ContentKey{PeriodID: "p1", EmployeeID: "e1", Kind: KindPrimary}},
		{"project on non-peer kind", ContentKey{PeriodID: "p1", EmployeeID: "e1", Kind: KindSelf, ProjectID: "proj1"}},
		{"unknown kind", ContentKey{PeriodID: "p1", EmployeeID: "e1", Kind: "upward"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Upsert(context.Background(), tc.key, "x", nil, "e1"); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSubmitWithoutContent(t *testing.T) {
	svc := newTestService(newFakeStore(), newFlowStore())
	if err := svc.Submit(context.Background(), selfKey(), "e1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitBlockedByOpenRevision(t *testing.T) {
	store := newFakeStore()
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), ContentID: "content-1", Editable: true}
	store.contents["content-1"] = Content{ID: "content-1", Kind: KindSelf}
	store.statuses[workflow.StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: workflow.StageSelf}] = workflow.StatusRevisionRequested
	svc := newTestService(store, newFlowStore())

	if err := svc.Submit(context.Background(), selfKey(), "e1"); !errors.Is(err, ErrRevisionOpen) {
		t.Fatalf("err = %v, want ErrRevisionOpen", err)
	}
	if store.contents["content-1"].IsCompleted {
		t.Fatal("blocked submit must not flag the content")
	}
}

func TestSubmitSetsCompletion(t *testing.T) {
	store := newFakeStore()
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), ContentID: "content-1", Editable: true}
	store.contents["content-1"] = Content{ID: "content-1", Kind: KindSelf}
	svc := newTestService(store, newFlowStore())

	if err := svc.Submit(context.Background(), selfKey(), "e1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !store.contents["content-1"].IsCompleted {
		t.Fatal("submit must flag the content")
	}
}

func TestSubmitAndCompleteRevision(t *testing.T) {
	store := newFakeStore()
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), ContentID: "content-1", Editable: true}
	store.contents["content-1"] = Content{ID: "content-1", Kind: KindSelf}

	flow := newFlowStore()
	gateKey := workflow.StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: workflow.StageSelf}
	flow.steps[gateKey] = workflow.StepApproval{ID: "s1", Key: gateKey, Status: workflow.StatusRevisionRequested, Version: 2}
	flow.openReq = workflow.RevisionRequest{ID: "req-1", PeriodID: "p1", EmployeeID: "e1", Stage: workflow.StageSelf}
	flow.openRecipient = workflow.RevisionRequestRecipient{RequestID: "req-1", RecipientID: "e1", RecipientType: workflow.RecipientEvaluatee}
	flow.openFound = true

	svc := newTestService(store, flow)
	err := svc.SubmitAndCompleteRevision(context.Background(), KindSelf, "content-1", "e1", "reworked per comments", "e1")
	if err != nil {
		t.Fatalf("SubmitAndCompleteRevision: %v", err)
	}
	if !store.contents["content-1"].IsCompleted {
		t.Fatal("content was not submitted")
	}
	if got := flow.steps[gateKey].Status; got != workflow.StatusRevisionCompleted {
		t.Fatalf("gate status = %s, want revision_completed", got)
	}
	if len(flow.completed) != 1 {
		t.Fatalf("completed recipients = %v", flow.completed)
	}
}

func TestSubmitAndCompleteRevisionUngatedKind(t *testing.T) {
	svc := newTestService(newFakeStore(), newFlowStore())
	err := svc.SubmitAndCompleteRevision(context.Background(), KindPeer, "content-1", "e1", "done", "e1")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestApproveStageUnderOpenRevisionLeavesContentUntouched(t *testing.T) {
	store := newFakeStore()
	gateKey := workflow.StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: workflow.StageSelf}
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), ContentID: "content-1", Editable: true}
	store.contents["content-1"] = Content{ID: "content-1", Kind: KindSelf}
	store.statuses[gateKey] = workflow.StatusRevisionRequested

	flow := newFlowStore()
	flow.steps[gateKey] = workflow.StepApproval{ID: "s1", Key: gateKey, Status: workflow.StatusRevisionRequested, Version: 2}
	svc := newTestService(store, flow)

	_, err := svc.ApproveStage(context.Background(), gateKey, "hr1", false, 0)
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if store.contents["content-1"].IsCompleted {
		t.Fatal("failed approval must not leave content submitted")
	}
	if got := flow.steps[gateKey].Status; got != workflow.StatusRevisionRequested {
		t.Fatalf("gate status = %s, must stay revision_requested", got)
	}
}

func newWiredService(store *fakeStore, flow *flowStore) *Service {
	dispatcher := workflow.NewDispatcher()
	svc := NewService(store, workflow.NewService(flow, dispatcher))
	svc.RegisterWorkflowHandlers(dispatcher)
	return svc
}

func TestRevisionRequestResetsSubmission(t *testing.T) {
	store := newFakeStore()
	gateKey := workflow.StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: workflow.StageSelf}
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), ContentID: "content-1", Editable: false}
	store.contents["content-1"] = Content{ID: "content-1", Kind: KindSelf, IsCompleted: true}

	flow := newFlowStore()
	flow.steps[gateKey] = workflow.StepApproval{ID: "s1", Key: gateKey, Status: workflow.StatusApproved, Version: 2}
	svc := newWiredService(store, flow)

	if _, err := svc.RequestRevision(context.Background(), gateKey, "please revisit goal 3", "hr1", 0); err != nil {
		t.Fatalf("RequestRevision: %v", err)
	}
	if store.contents["content-1"].IsCompleted {
		t.Fatal("revision request must reset the submission flag")
	}
	if !store.mappings[selfKey()].Editable {
		t.Fatal("revision request must reopen editing")
	}
}

func TestApprovalLocksMapping(t *testing.T) {
	store := newFakeStore()
	gateKey := workflow.StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: workflow.StageSelf}
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), ContentID: "content-1", Editable: true}
	store.contents["content-1"] = Content{ID: "content-1", Kind: KindSelf, IsCompleted: true}
	svc := newWiredService(store, newFlowStore())

	if _, err := svc.ApproveStage(context.Background(), gateKey, "hr1", false, 0); err != nil {
		t.Fatalf("ApproveStage: %v", err)
	}
	if store.mappings[selfKey()].Editable {
		t.Fatal("approval must lock the mapping")
	}
}

func TestApproveStageAutoSubmits(t *testing.T) {
	store := newFakeStore()
	store.mappings[selfKey()] = StageMapping{ID: "map-1", Key: selfKey(), ContentID: "content-1", Editable: true}
	store.contents["content-1"] = Content{ID: "content-1", Kind: KindSelf}
	flow := newFlowStore()
	svc := newTestService(store, flow)

	gateKey := workflow.StepKey{PeriodID: "p1", EmployeeID: "e1", Stage: workflow.StageSelf}
	record, err := svc.ApproveStage(context.Background(), gateKey, "hr1", false, 0)
	if err != nil {
		t.Fatalf("ApproveStage: %v", err)
	}
	if record.Status != workflow.StatusApproved {
		t.Fatalf("status = %s, want approved", record.Status)
	}
	if !store.contents["content-1"].IsCompleted {
		t.Fatal("approval must submit saved-but-unsubmitted content first")
	}
}
