// Package blobstore provides read and write access to the immutable files a
// benchmark run consumes (dataset vectors and ground truth) and produces
// (reports).
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads are memory-mapped
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//   - CachingStore: keeps a local copy of every blob read from a remote store
//
// Implementations must be safe for concurrent use.
package blobstore
