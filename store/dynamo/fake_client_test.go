package dynamo

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// fakeClient is an in-memory table that honors the conditional writes,
// parallel scan segmentation and pagination the store relies on.
type fakeClient struct {
	mu    sync.Mutex
	items map[uint64]map[string]types.AttributeValue

	// pageSize bounds items per Scan page when the request sets no Limit.
	pageSize int
	// approx overrides the DescribeTable item count when non-nil.
	approx *int64
	// failScan fails every Scan of that segment index when >= 0.
	failScan int
	// unprocessed is how many BatchWriteItem calls leave their last request unprocessed.
	unprocessed int

	scans  int
	writes int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		items:    make(map[uint64]map[string]types.AttributeValue),
		pageSize: 3,
		failScan: -1,
	}
}

func opError(op string, err error) error {
	return &smithy.OperationError{ServiceID: "DynamoDB", OperationName: op, Err: err}
}

func keyOf(item map[string]types.AttributeValue) uint64 {
	n := item[AttrID].(*types.AttributeValueMemberN)
	v, _ := strconv.ParseUint(n.Value, 10, 64)
	return v
}

func (f *fakeClient) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := int64(len(f.items))
	if f.approx != nil {
		n = *f.approx
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: in.TableName, ItemCount: aws.Int64(n)},
	}, nil
}

func (f *fakeClient) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	if err := ctx.Err(); err != nil {
		return nil, opError("Scan", err)
	}

	seg, total := uint64(aws.ToInt32(in.Segment)), uint64(aws.ToInt32(in.TotalSegments))
	if total == 0 {
		total = 1
	}
	if f.failScan >= 0 && seg == uint64(f.failScan) {
		return nil, opError("Scan", &smithy.GenericAPIError{Code: "InternalServerError", Message: "segment unavailable"})
	}

	var ids []uint64
	for id := range f.items {
		if id%total == seg {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	if in.ExclusiveStartKey != nil {
		start := keyOf(in.ExclusiveStartKey)
		i, _ := slices.BinarySearch(ids, start+1)
		ids = ids[i:]
	}

	limit := f.pageSize
	if in.Limit != nil {
		limit = int(*in.Limit)
	}

	out := &dynamodb.ScanOutput{}
	page := ids
	if len(ids) > limit {
		page = ids[:limit]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			AttrID: &types.AttributeValueMemberN{Value: strconv.FormatUint(page[len(page)-1], 10)},
		}
	}
	out.Count = int32(len(page))
	if in.Select != types.SelectCount {
		for _, id := range page {
			out.Items = append(out.Items, f.items[id])
		}
	}
	return out, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++

	id := keyOf(in.Item)
	if _, ok := f.items[id]; ok && aws.ToString(in.ConditionExpression) == condAbsent {
		return nil, opError("PutItem", &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")})
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++

	id := keyOf(in.Key)
	old, ok := f.items[id]
	if !ok && aws.ToString(in.ConditionExpression) == condPresent {
		return nil, opError("DeleteItem", &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")})
	}
	delete(f.items, id)

	out := &dynamodb.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

func (f *fakeClient) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++

	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		if len(reqs) > batchWriteMax {
			return nil, opError("BatchWriteItem", errors.New("too many items in batch"))
		}
		for i, req := range reqs {
			if req.DeleteRequest == nil {
				continue
			}
			if f.unprocessed > 0 && i == len(reqs)-1 {
				f.unprocessed--
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], req)
				continue
			}
			delete(f.items, keyOf(req.DeleteRequest.Key))
		}
	}
	return out, nil
}
