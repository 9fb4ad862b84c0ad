package gateway

import (
	"context"
	"io"
	"time"
)

// ListParams is a single ListObjectsV2-style request.
type ListParams struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string
	MaxKeys           int32
}

// ListResult is a single listing page as returned by the store.
type ListResult struct {
	NextContinuationToken string
	Objects               []Object
	CommonPrefixes        []string
	IsTruncated           bool
}

// PutParams is a single object write.
type PutParams struct {
	Body        io.Reader
	Key         string
	ContentType string
	Size        int64
}

// ObjectStore is the external object store, bound to one bucket.
//
// Implementations report failures with errors matching the tenancy taxonomy:
// tenancy.ErrNotFound for missing keys and unknown upload IDs, and
// tenancy.ErrUpstreamUnavailable for everything else. Anything else is treated
// as an upstream failure by the Service.
type ObjectStore interface {
	List(ctx context.Context, p ListParams) (*ListResult, error)
	Put(ctx context.Context, p PutParams) (etag string, err error)
	Delete(ctx context.Context, key string) error
	DeleteBatch(ctx context.Context, keys []string) (*DeleteResult, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Head(ctx context.Context, key string) (*ObjectMetadata, error)
	ListVersions(ctx context.Context, prefix string) ([]ObjectVersion, error)

	CreateMultipart(ctx context.Context, key, contentType string) (uploadID string, err error)
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) (etag string, err error)
	AbortMultipart(ctx context.Context, key, uploadID string) error
	ListMultipart(ctx context.Context, prefix string) ([]MultipartUpload, error)
}
