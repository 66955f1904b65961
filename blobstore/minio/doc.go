// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client and works with other S3-compatible services such
// as Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	store, err := minio.Dial("localhost:9000", "minioadmin", "minioadmin", false,
//	    "my-bucket", "backups/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	info, err := st.Backup(ctx, store, "nightly")
package minio
