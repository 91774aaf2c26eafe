// Package s3 provides an objstore.Store on Amazon S3.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	st := s3.NewStore(s3sdk.NewFromConfig(cfg), "my-bucket", "shed/")
//
// Objects are written with a single PutObject; journal entries are small.
package s3
