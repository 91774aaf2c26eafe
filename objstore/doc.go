// Package objstore provides a small object storage abstraction used to
// persist the event journal.
//
// Objects are immutable byte blobs addressed by slash-separated names.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests
//   - LocalStore: a directory on the local file system
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible storage
package objstore
