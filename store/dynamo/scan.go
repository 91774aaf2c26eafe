package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/scan"
	"github.com/hupe1980/shed/store"
)

// ApproxCount implements scan.Source using the DescribeTable item count.
func (s *Store) ApproxCount(ctx context.Context) (uint64, error) {
	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return 0, s.backendError(ctx, "DescribeTable", err)
	}
	if out.Table == nil {
		return 0, s.backendError(ctx, "DescribeTable", errors.New("response carries no table description"))
	}

	n := aws.ToInt64(out.Table.ItemCount)
	if n < 0 {
		n = 0
	}
	s.opts.Logger.InfoContext(ctx, "approximate table size", "table", s.table, "item_count", n)
	return uint64(n), nil
}

// ScanSegment implements scan.Source with one paginated Scan request.
// The cursor is the LastEvaluatedKey of the previous page.
func (s *Store) ScanSegment(ctx context.Context, seg scan.Segment, cursor scan.Cursor, mode scan.Mode) (scan.Page, error) {
	in := &dynamodb.ScanInput{
		TableName:     aws.String(s.table),
		Segment:       aws.Int32(int32(seg.Index)),
		TotalSegments: aws.Int32(int32(seg.Total)),
		Select:        types.SelectAllAttributes,
	}
	if mode == scan.ModeCount {
		in.Select = types.SelectCount
	}
	if cursor != nil {
		key, ok := cursor.(map[string]types.AttributeValue)
		if !ok {
			return scan.Page{}, store.NewStorageError("Scan", "", fmt.Sprintf("cursor of type %T is not a dynamodb key", cursor), nil)
		}
		in.ExclusiveStartKey = key
	}
	if s.opts.PageLimit > 0 {
		in.Limit = aws.Int32(s.opts.PageLimit)
	}

	out, err := s.client.Scan(ctx, in)
	if err != nil {
		return scan.Page{}, s.backendError(ctx, "Scan", err)
	}

	page := scan.Page{Count: int(out.Count)}
	if mode == scan.ModeFull {
		page.Records = make([]model.Record, 0, len(out.Items))
		for _, item := range out.Items {
			rec, err := decodeRecord(item)
			if err != nil {
				return scan.Page{}, s.malformed(ctx, "Scan", err)
			}
			page.Records = append(page.Records, rec)
		}
	}
	if len(out.LastEvaluatedKey) > 0 {
		page.Next = out.LastEvaluatedKey
	}
	return page, nil
}

// malformed reports an item that does not decode into a record.
func (s *Store) malformed(ctx context.Context, op string, err error) error {
	s.opts.Logger.ErrorContext(ctx, "malformed dynamodb item",
		"op", op,
		"table", s.table,
		"error", err,
	)
	return store.NewStorageError(op, "", "malformed item", err)
}
