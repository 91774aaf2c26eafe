package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/shed/store"
)

const (
	// batchWriteMax is the BatchWriteItem request limit.
	batchWriteMax = 25

	// maxBatchAttempts bounds resubmission of UnprocessedItems.
	maxBatchAttempts = 5
)

// Clear deletes every record in the table and returns how many were deleted.
//
// Keys are collected with a segmented scan and removed with unconditional
// BatchWriteItem deletes. Records inserted while Clear runs may survive.
func (s *Store) Clear(ctx context.Context) (int, error) {
	recs, err := s.engine.Collect(ctx)
	if err != nil {
		return 0, err
	}
	s.opts.Logger.InfoContext(ctx, "clearing table", "table", s.table, "records", len(recs))

	cleared := 0
	for start := 0; start < len(recs); start += batchWriteMax {
		end := min(start+batchWriteMax, len(recs))

		reqs := make([]types.WriteRequest, 0, end-start)
		for _, r := range recs[start:end] {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: encodeKey(r.ID)},
			})
		}

		if err := s.batchDelete(ctx, reqs); err != nil {
			return cleared, err
		}
		cleared += len(reqs)
	}

	s.opts.Logger.InfoContext(ctx, "table cleared", "table", s.table, "cleared", cleared)
	return cleared, nil
}

// batchDelete submits reqs, resubmitting whatever DynamoDB reports unprocessed.
func (s *Store) batchDelete(ctx context.Context, reqs []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.table: reqs}

	for attempt := 1; attempt <= maxBatchAttempts; attempt++ {
		if err := s.opts.Controller.AcquireRequest(ctx); err != nil {
			return err
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return s.backendError(ctx, "BatchWriteItem", err)
		}
		if len(out.UnprocessedItems[s.table]) == 0 {
			return nil
		}

		pending = map[string][]types.WriteRequest{s.table: out.UnprocessedItems[s.table]}
		s.opts.Logger.DebugContext(ctx, "unprocessed deletes",
			"attempt", attempt,
			"remaining", len(pending[s.table]),
		)
	}

	err := fmt.Errorf("%d deletes still unprocessed after %d attempts", len(pending[s.table]), maxBatchAttempts)
	s.opts.Logger.ErrorContext(ctx, "dynamodb batch delete incomplete", "table", s.table, "error", err)
	return store.NewStorageError("BatchWriteItem", "", "unprocessed items", err)
}
