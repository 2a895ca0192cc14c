// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems (Ceph, SeaweedFS,
// Garage) without pulling in the AWS SDK, which makes it the usual choice for
// air-gapped benchmark labs that host their ANN datasets on-premises.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "ann-datasets",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("glove-100-angular/"),
//	)
package minio
