package project

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeStore struct {
	StoreAPI

	deliverables []Deliverable
	assignments  []Assignment
	nextID       int
	failOn       map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{failOn: map[string]error{}}
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) InsertDeliverable(_ context.Context, projectID string, in DeliverableInput) (Deliverable, error) {
	if err := f.failOn[in.WBSCode]; err != nil {
		return Deliverable{}, err
	}
	d := Deliverable{ID: f.id(), ProjectID: projectID, WBSCode: in.WBSCode, Title: in.Title, Weight: in.Weight}
	f.deliverables = append(f.deliverables, d)
	return d, nil
}

func (f *fakeStore) DeleteDeliverable(_ context.Context, projectID, deliverableID string) (bool, error) {
	for i, d := range f.deliverables {
		if d.ID == deliverableID && d.ProjectID == projectID {
			f.deliverables = append(f.deliverables[:i], f.deliverables[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertAssignment(_ context.Context, projectID string, in AssignmentInput) (Assignment, error) {
	for _, a := range f.assignments {
		if a.ProjectID == projectID && a.EvaluatorID == in.EvaluatorID && a.TargetID == in.TargetID && a.Role == in.Role {
			return Assignment{}, fmt.Errorf("%w: %s -> %s", ErrDuplicateAssignment, in.EvaluatorID, in.TargetID)
		}
	}
	a := Assignment{ID: f.id(), ProjectID: projectID, EvaluatorID: in.EvaluatorID, TargetID: in.TargetID, Role: in.Role}
	f.assignments = append(f.assignments, a)
	return a, nil
}

func TestBulkAddDeliverablesPartialFailure(t *testing.T) {
	store := newFakeStore()
	store.failOn["1.3"] = errors.New("db down")
	svc := NewService(store)

	result := svc.BulkAddDeliverables(context.Background(), "p1", []DeliverableInput{
		{WBSCode: "1.1", Title: "Design", Weight: 30},
		{WBSCode: "1.2", Title: "", Weight: 30},
		{WBSCode: "1.3", Title: "Build", Weight: 40},
		{WBSCode: "1.4", Title: "Test", Weight: 0},
	})

	if result.SuccessCount != 2 || result.FailedCount != 2 {
		t.Fatalf("counts = %d/%d; want 2/2", result.SuccessCount, result.FailedCount)
	}
	if len(result.SuccessIDs) != 2 {
		t.Fatalf("successIDs = %v", result.SuccessIDs)
	}
	if result.FailedItems[0].Item.WBSCode != "1.2" || result.FailedItems[1].Item.WBSCode != "1.3" {
		t.Errorf("failures out of input order: %+v", result.FailedItems)
	}
	if len(store.deliverables) != 2 {
		t.Errorf("store holds %d deliverables; want 2", len(store.deliverables))
	}
}

func TestBulkAssignRejectsDuplicatesAndSelf(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	result := svc.BulkAssign(context.Background(), "p1", []AssignmentInput{
		{EvaluatorID: "e1", TargetID: "e2", Role: RolePeer},
		{EvaluatorID: "e1", TargetID: "e2", Role: RolePeer},
		{EvaluatorID: "e3", TargetID: "e3", Role: RolePeer},
		{EvaluatorID: "e1", TargetID: "e2", Role: RolePrimary},
	})

	if result.SuccessCount != 2 || result.FailedCount != 2 {
		t.Fatalf("counts = %d/%d; want 2/2", result.SuccessCount, result.FailedCount)
	}
	if !errors.Is(result.FailedItems[0].Reason, ErrDuplicateAssignment) {
		t.Errorf("first failure = %v; want duplicate", result.FailedItems[0].Reason)
	}
	if !errors.Is(result.FailedItems[1].Reason, ErrValidation) {
		t.Errorf("second failure = %v; want validation", result.FailedItems[1].Reason)
	}
}

func TestBulkRemoveDeliverablesMissingRow(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	created := svc.BulkAddDeliverables(context.Background(), "p1", []DeliverableInput{
		{WBSCode: "1.1", Title: "Design", Weight: 50},
	})
	if created.SuccessCount != 1 {
		t.Fatalf("setup failed: %+v", created)
	}

	result := svc.BulkRemoveDeliverables(context.Background(), "p1", []string{created.SuccessIDs[0], "missing"})
	if result.SuccessCount != 1 || result.FailedCount != 1 {
		t.Fatalf("counts = %d/%d; want 1/1", result.SuccessCount, result.FailedCount)
	}
	if !errors.Is(result.FailedItems[0].Reason, ErrNotFound) {
		t.Errorf("failure = %v; want not found", result.FailedItems[0].Reason)
	}
}
