package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dmitrymomot/bucketgate/pkg/gateway"
)

// MinioStore implements gateway.ObjectStore using minio-go.
// Listing and multipart calls go through minio.Core to keep S3 paging semantics.
type MinioStore struct {
	client *minio.Client
	core   *minio.Core
	cfg    Config
}

// MinioAuth holds the region and static credentials for NewMinio.
type MinioAuth struct {
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// NewMinio creates a MinioStore.
// Empty credentials fall back to the environment and IAM chain.
func NewMinio(cfg Config, auth MinioAuth) (*MinioStore, error) {
	cfg.applyDefaults()
	cfg.Driver = DriverMinio
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	endpoint, secure, err := splitEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	var creds *credentials.Credentials
	if auth.AccessKey != "" {
		creds = credentials.NewStaticV4(auth.AccessKey, auth.SecretKey, auth.SessionToken)
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{},
		})
	}

	options := &minio.Options{
		Creds:  creds,
		Secure: secure,
		Region: auth.Region,
	}
	if cfg.PathStyle {
		options.BucketLookup = minio.BucketLookupPath
	}

	core, err := minio.NewCore(endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("%w: create minio client: %v", ErrInvalidConfig, err)
	}

	return &MinioStore{client: core.Client, core: core, cfg: cfg}, nil
}

// splitEndpoint turns "http://host:9000" into ("host:9000", false).
// An endpoint without scheme is treated as https.
func splitEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), true, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", false, fmt.Errorf("%w: invalid endpoint %q", ErrInvalidConfig, endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func (s *MinioStore) List(ctx context.Context, p gateway.ListParams) (*gateway.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	output, err := s.core.ListObjectsV2(s.cfg.Bucket, p.Prefix, "", p.ContinuationToken, p.Delimiter, int(p.MaxKeys))
	if err != nil {
		return nil, wrapMinioError(err)
	}

	res := &gateway.ListResult{
		NextContinuationToken: output.NextContinuationToken,
		IsTruncated:           output.IsTruncated,
		Objects:               make([]gateway.Object, 0, len(output.Contents)),
		CommonPrefixes:        make([]string, 0, len(output.CommonPrefixes)),
	}
	for _, cp := range output.CommonPrefixes {
		res.CommonPrefixes = append(res.CommonPrefixes, cp.Prefix)
	}
	for _, obj := range output.Contents {
		res.Objects = append(res.Objects, gateway.Object{
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         stripETag(obj.ETag),
			StorageClass: storageClass(obj.StorageClass),
			LastModified: obj.LastModified,
		})
	}
	return res, nil
}

func (s *MinioStore) Put(ctx context.Context, p gateway.PutParams) (string, error) {
	size := p.Size
	if size < 0 {
		size = -1
	}
	info, err := s.client.PutObject(ctx, s.cfg.Bucket, p.Key, p.Body, size, minio.PutObjectOptions{
		ContentType: p.ContentType,
		PartSize:    uint64(s.cfg.PartSize),
		NumThreads:  uint(s.cfg.UploadConcurrency),
	})
	if err != nil {
		return "", wrapMinioError(err)
	}
	return stripETag(info.ETag), nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	return wrapMinioError(s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}))
}

func (s *MinioStore) DeleteBatch(ctx context.Context, keys []string) (*gateway.DeleteResult, error) {
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}
	close(objects)

	failed := make(map[string]gateway.DeleteError)
	for e := range s.client.RemoveObjects(ctx, s.cfg.Bucket, objects, minio.RemoveObjectsOptions{}) {
		resp := minio.ToErrorResponse(e.Err)
		code := resp.Code
		if code == "" {
			code = "InternalError"
		}
		failed[e.ObjectName] = gateway.DeleteError{Key: e.ObjectName, Code: code, Message: e.Err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &gateway.DeleteResult{
		Deleted: make([]string, 0, len(keys)),
		Errors:  make([]gateway.DeleteError, 0, len(failed)),
	}
	for _, k := range keys {
		if e, ok := failed[k]; ok {
			res.Errors = append(res.Errors, e)
			continue
		}
		res.Deleted = append(res.Deleted, k)
	}
	return res, nil
}

func (s *MinioStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, ttl, nil)
	if err != nil {
		return "", wrapMinioError(err)
	}
	return u.String(), nil
}

func (s *MinioStore) Head(ctx context.Context, key string) (*gateway.ObjectMetadata, error) {
	info, err := s.client.StatObject(ctx, s.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, wrapMinioError(err)
	}

	var metadata map[string]string
	if len(info.UserMetadata) > 0 {
		metadata = make(map[string]string, len(info.UserMetadata))
		for k, v := range info.UserMetadata {
			metadata[strings.ToLower(k)] = v
		}
	}

	return &gateway.ObjectMetadata{
		Key:           key,
		ContentType:   info.ContentType,
		ContentLength: info.Size,
		ETag:          stripETag(info.ETag),
		LastModified:  info.LastModified,
		VersionID:     info.VersionID,
		StorageClass:  storageClass(info.StorageClass),
		Metadata:      metadata,
	}, nil
}

func (s *MinioStore) ListVersions(ctx context.Context, prefix string) ([]gateway.ObjectVersion, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var versions []gateway.ObjectVersion
	for obj := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithVersions: true,
	}) {
		if obj.Err != nil {
			return nil, wrapMinioError(obj.Err)
		}
		versions = append(versions, gateway.ObjectVersion{
			Key:            obj.Key,
			VersionID:      obj.VersionID,
			ETag:           stripETag(obj.ETag),
			Size:           obj.Size,
			IsLatest:       obj.IsLatest,
			IsDeleteMarker: obj.IsDeleteMarker,
			LastModified:   obj.LastModified,
		})
	}
	return versions, nil
}

func (s *MinioStore) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	uploadID, err := s.core.NewMultipartUpload(ctx, s.cfg.Bucket, key, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", wrapMinioError(err)
	}
	return uploadID, nil
}

func (s *MinioStore) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error) {
	params := url.Values{}
	params.Set("uploadId", uploadID)
	params.Set("partNumber", strconv.Itoa(int(partNumber)))

	u, err := s.client.Presign(ctx, http.MethodPut, s.cfg.Bucket, key, ttl, params)
	if err != nil {
		return "", wrapMinioError(err)
	}
	return u.String(), nil
}

func (s *MinioStore) CompleteMultipart(ctx context.Context, key, uploadID string, parts []gateway.CompletedPart) (string, error) {
	completed := make([]minio.CompletePart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, minio.CompletePart{PartNumber: int(p.PartNumber), ETag: stripETag(p.ETag)})
	}

	info, err := s.core.CompleteMultipartUpload(ctx, s.cfg.Bucket, key, uploadID, completed, minio.PutObjectOptions{})
	if err != nil {
		return "", wrapMinioError(err)
	}
	return stripETag(info.ETag), nil
}

func (s *MinioStore) AbortMultipart(ctx context.Context, key, uploadID string) error {
	return wrapMinioError(s.core.AbortMultipartUpload(ctx, s.cfg.Bucket, key, uploadID))
}

func (s *MinioStore) ListMultipart(ctx context.Context, prefix string) ([]gateway.MultipartUpload, error) {
	var (
		uploads        []gateway.MultipartUpload
		keyMarker      string
		uploadIDMarker string
	)
	for {
		output, err := s.core.ListMultipartUploads(ctx, s.cfg.Bucket, prefix, keyMarker, uploadIDMarker, "", 1000)
		if err != nil {
			return nil, wrapMinioError(err)
		}
		for _, u := range output.Uploads {
			uploads = append(uploads, gateway.MultipartUpload{
				Key:       u.Key,
				UploadID:  u.UploadID,
				Initiated: u.Initiated,
			})
		}
		if !output.IsTruncated {
			return uploads, nil
		}
		keyMarker = output.NextKeyMarker
		uploadIDMarker = output.NextUploadIDMarker
	}
}

// Ping checks that the bucket exists and is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return wrapMinioError(err)
	}
	if !ok {
		return fmt.Errorf("%w: bucket %q does not exist", ErrUnavailable, s.cfg.Bucket)
	}
	return nil
}

// Ensure MinioStore implements Store.
var _ Store = (*MinioStore)(nil)
