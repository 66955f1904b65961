package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/linguastore/blobstore"
	miniostore "github.com/hupe1980/linguastore/blobstore/minio"
	s3store "github.com/hupe1980/linguastore/blobstore/s3"
)

// openTarget resolves a backup target.
//
//	/some/dir, file:///some/dir        local directory
//	s3://bucket/prefix                 AWS S3; S3_ENDPOINT overrides the endpoint
//	minio://host:port/bucket/prefix    MinIO; MINIO_ACCESS_KEY, MINIO_SECRET_KEY,
//	                                   ?secure=true for TLS
func openTarget(ctx context.Context, target string) (blobstore.BlobStore, error) {
	if !strings.Contains(target, "://") {
		return blobstore.NewLocalStore(target), nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: target %q: %v", errUsage, target, err)
	}

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(filepath.FromSlash(u.Host + u.Path)), nil

	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("%w: target %q has no bucket", errUsage, target)
		}
		opts := []s3store.Option{s3store.WithPrefix(strings.Trim(u.Path, "/"))}
		if ep := os.Getenv("S3_ENDPOINT"); ep != "" {
			opts = append(opts, s3store.WithEndpoint(ep))
		}
		return s3store.New(ctx, u.Host, opts...)

	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("%w: target %q needs host and bucket", errUsage, target)
		}
		return miniostore.Dial(u.Host,
			os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"),
			u.Query().Get("secure") == "true",
			bucket, strings.Trim(prefix, "/"))

	default:
		return nil, fmt.Errorf("%w: unsupported target scheme %q", errUsage, u.Scheme)
	}
}
