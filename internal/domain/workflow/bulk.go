package workflow

import "context"

type BulkFailure[T any] struct {
	Item   T      `json:"item"`
	Reason string `json:"reason"`
}

type BulkResult[T any] struct {
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	SuccessIDs   []string         `json:"successIds"`
	FailedItems  []BulkFailure[T] `json:"failedItems"`
}

// BulkApply runs op over each item independently. A failed item is reported
// in FailedItems without aborting the batch or rolling back earlier items:
// each op is transactional on its own, the batch deliberately is not.
// FailedItems follows input order; SuccessIDs follows creation order.
func BulkApply[T any](ctx context.Context, items []T, op func(context.Context, T) (string, error)) BulkResult[T] {
	result := BulkResult[T]{
		SuccessIDs:  []string{},
		FailedItems: []BulkFailure[T]{},
	}
	for _, item := range items {
		id, err := op(ctx, item)
		if err != nil {
			result.FailedCount++
			result.FailedItems = append(result.FailedItems, BulkFailure[T]{Item: item, Reason: err.Error()})
			continue
		}
		result.SuccessCount++
		if id != "" {
			result.SuccessIDs = append(result.SuccessIDs, id)
		}
	}
	return result
}
