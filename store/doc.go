// Package store defines the record table abstraction and its error taxonomy.
//
// # Contract
//
//	type Store interface {
//	    Insert(ctx, rec) error                 // test-and-set: fails with *DuplicateKeyError
//	    Remove(ctx, id) (model.Record, error)  // test-and-delete: fails with *NotFoundError
//	    Count(ctx) (int, error)
//	    Iterate(ctx) (iter.Seq[model.Record], error)
//	}
//
// Any other backend failure is a *StorageError. Match error classes with
// errors.Is against ErrDuplicateKey, ErrNotFound and ErrStorage.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and local runs
//   - dynamo.Store: Amazon DynamoDB with segmented parallel scans
//
// Both implementations scan through the same segmented engine, so counting
// and iteration behave identically. The storetest package holds the shared
// conformance suite.
package store
