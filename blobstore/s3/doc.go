// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("linguastore/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	info, err := st.Backup(ctx, store, "nightly")
//
// # Features
//
//   - Range reads for restores
//   - Multipart streaming uploads with CRC32C checksums
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
