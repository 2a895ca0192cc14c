// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "ann-datasets",
//	    s3.WithPrefix("sift-128-euclidean/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	ds, err := dataset.Load(ctx, store, dataset.Files{...})
//
// # Features
//
//   - Range reads for partial fetches, whole-object streams for decoding
//   - Multipart uploads for large reports
//   - Automatic pagination for listing
//   - Custom endpoints for S3-compatible services
package s3
