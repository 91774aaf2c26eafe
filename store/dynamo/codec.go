package dynamo

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/shed/model"
)

const (
	// AttrID is the partition key attribute.
	AttrID = "id"
	// AttrWeight holds the weight in micrograms.
	AttrWeight = "weight"
)

func encodeKey(id model.ID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrID: &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(id), 10)},
	}
}

func encodeRecord(rec model.Record) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrID:     &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(rec.ID), 10)},
		AttrWeight: &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(rec.Weight), 10)},
	}
}

func decodeRecord(item map[string]types.AttributeValue) (model.Record, error) {
	id, err := decodeUint(item, AttrID)
	if err != nil {
		return model.Record{}, err
	}
	weight, err := decodeUint(item, AttrWeight)
	if err != nil {
		return model.Record{}, err
	}
	return model.Record{ID: model.ID(id), Weight: model.Weight(weight)}, nil
}

func decodeUint(item map[string]types.AttributeValue, name string) (uint64, error) {
	attr, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid %s attribute in DynamoDB item", name)
	}
	v, err := strconv.ParseUint(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return v, nil
}
