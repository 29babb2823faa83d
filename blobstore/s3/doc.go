// Package s3 stores index snapshots in Amazon S3.
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("indexes/products"))
//	if err != nil { ... }
//	err = persistence.Save(ctx, store, "index.vmn", idx)
//
// Snapshots are streamed with multipart uploads and read back with ranged
// GETs. S3 offers no compare-and-swap, so concurrent writers that share a
// prefix should wrap the Store in a DDBCommitStore, which keeps the
// CURRENT pointer in DynamoDB behind a conditional write.
package s3
