// Package dynamo provides an Amazon DynamoDB implementation of store.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	st := dynamo.New(dynamodb.NewFromConfig(cfg), "records",
//	    func(o *dynamo.Options) { o.Logger = logger },
//	)
//
// # Table schema
//
//   - Partition key: id (number)
//   - Attribute: weight (number, micrograms)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name records \
//	  --attribute-definitions AttributeName=id,AttributeType=N \
//	  --key-schema AttributeName=id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// # Semantics
//
//   - Insert is a PutItem conditioned on attribute_not_exists(id)
//   - Remove is a DeleteItem conditioned on attribute_exists(id), returning ALL_OLD
//   - Count and Iterate are parallel segmented Scans sized from the
//     DescribeTable item count (refreshed by DynamoDB roughly every six hours)
//
// Only ConditionalCheckFailedException is translated to a domain error; any
// other failure is logged with its service code and message and returned as a
// *store.StorageError. Nothing is retried here beyond what the SDK's own
// retryer does.
package dynamo
