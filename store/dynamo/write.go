package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/store"
)

const (
	condAbsent  = "attribute_not_exists(#id)"
	condPresent = "attribute_exists(#id)"
)

var idName = map[string]string{"#id": AttrID}

// Insert writes rec conditioned on its id being absent.
func (s *Store) Insert(ctx context.Context, rec model.Record) error {
	s.opts.Logger.InfoContext(ctx, "insert", "record", rec.String())

	if err := s.opts.Controller.AcquireRequest(ctx); err != nil {
		return err
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     encodeRecord(rec),
		ConditionExpression:      aws.String(condAbsent),
		ExpressionAttributeNames: idName,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return &store.DuplicateKeyError{ID: rec.ID}
		}
		return s.backendError(ctx, "PutItem", err)
	}

	s.opts.Logger.DebugContext(ctx, "insert completed", "id", uint64(rec.ID))
	return nil
}

// Remove deletes the record with id conditioned on it being present and
// returns the deleted value as reported by DynamoDB.
func (s *Store) Remove(ctx context.Context, id model.ID) (model.Record, error) {
	s.opts.Logger.InfoContext(ctx, "remove", "id", uint64(id))

	if err := s.opts.Controller.AcquireRequest(ctx); err != nil {
		return model.Record{}, err
	}

	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      encodeKey(id),
		ConditionExpression:      aws.String(condPresent),
		ExpressionAttributeNames: idName,
		ReturnValues:             types.ReturnValueAllOld,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return model.Record{}, &store.NotFoundError{ID: id}
		}
		return model.Record{}, s.backendError(ctx, "DeleteItem", err)
	}

	if len(out.Attributes) == 0 {
		return model.Record{}, s.malformed(ctx, "DeleteItem", errors.New("no previous value returned"))
	}
	rec, err := decodeRecord(out.Attributes)
	if err != nil {
		return model.Record{}, s.malformed(ctx, "DeleteItem", err)
	}

	s.opts.Logger.DebugContext(ctx, "remove completed", "record", rec.String())
	return rec, nil
}
