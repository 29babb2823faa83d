// Package blobstore abstracts where index snapshots live.
//
// A BlobStore holds immutable, named blobs. Snapshots are written once
// through Create and read back through Open; the small CURRENT pointer
// blob is replaced with Put to commit a new snapshot version.
//
// # Implementations
//
//   - LocalStore: a directory on the local file system, read through mmap
//   - MemoryStore: process memory, for tests and ephemeral indexes
//   - CachingStore: an LRU block cache in front of any other store
//   - s3.Store and s3.DDBCommitStore: Amazon S3, optionally with DynamoDB
//     conditional writes guarding CURRENT
//   - minio.Store: MinIO and other S3-compatible servers
//
// Remote backends should serve partial reads through ReadRange; blobs that
// are already in memory can implement Mappable so that ReadAll returns
// their content without a copy.
package blobstore
