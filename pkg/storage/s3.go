package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrymomot/bucketgate/pkg/gateway"
)

// S3Store implements gateway.ObjectStore using aws-sdk-go-v2.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	cfg       Config
}

// NewS3 creates an S3Store bound to cfg.Bucket.
func NewS3(awsCfg aws.Config, cfg Config) (*S3Store, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Most S3-compatible services reject the SDK's default trailing checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = int64(cfg.PartSize)
		u.Concurrency = cfg.UploadConcurrency
	})

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  uploader,
		cfg:       cfg,
	}, nil
}

// List returns a single ListObjectsV2 page.
func (s *S3Store) List(ctx context.Context, p gateway.ListParams) (*gateway.ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(p.Prefix),
	}
	if p.Delimiter != "" {
		input.Delimiter = aws.String(p.Delimiter)
	}
	if p.ContinuationToken != "" {
		input.ContinuationToken = aws.String(p.ContinuationToken)
	}
	if p.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(p.MaxKeys)
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, wrapS3Error(err)
	}

	res := &gateway.ListResult{
		NextContinuationToken: aws.ToString(output.NextContinuationToken),
		IsTruncated:           aws.ToBool(output.IsTruncated),
		Objects:               make([]gateway.Object, 0, len(output.Contents)),
		CommonPrefixes:        make([]string, 0, len(output.CommonPrefixes)),
	}
	for _, cp := range output.CommonPrefixes {
		res.CommonPrefixes = append(res.CommonPrefixes, aws.ToString(cp.Prefix))
	}
	for _, obj := range output.Contents {
		res.Objects = append(res.Objects, gateway.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         stripETag(aws.ToString(obj.ETag)),
			StorageClass: storageClass(string(obj.StorageClass)),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return res, nil
}

// Put streams p.Body to the bucket, switching to multipart for large bodies.
func (s *S3Store) Put(ctx context.Context, p gateway.PutParams) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(p.Key),
		Body:   p.Body,
	}
	if p.ContentType != "" {
		input.ContentType = aws.String(p.ContentType)
	}

	output, err := s.uploader.Upload(ctx, input)
	if err != nil {
		if errors.Is(err, gateway.ErrUploadTooLarge) {
			return "", err
		}
		return "", wrapS3Error(err)
	}
	return stripETag(aws.ToString(output.ETag)), nil
}

// Delete removes a single object. Deleting a missing key succeeds.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	return wrapS3Error(err)
}

// DeleteBatch removes up to 1000 keys in one request.
// Per-key failures are reported in the result with the store's code and message.
func (s *S3Store) DeleteBatch(ctx context.Context, keys []string) (*gateway.DeleteResult, error) {
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
	}

	output, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.cfg.Bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(false),
		},
	})
	if err != nil {
		return nil, wrapS3Error(err)
	}

	res := &gateway.DeleteResult{
		Deleted: make([]string, 0, len(output.Deleted)),
		Errors:  make([]gateway.DeleteError, 0, len(output.Errors)),
	}
	for _, d := range output.Deleted {
		res.Deleted = append(res.Deleted, aws.ToString(d.Key))
	}
	for _, e := range output.Errors {
		res.Errors = append(res.Errors, gateway.DeleteError{
			Key:     aws.ToString(e.Key),
			Code:    aws.ToString(e.Code),
			Message: aws.ToString(e.Message),
		})
	}
	return res, nil
}

// PresignGet generates a pre-signed GET URL valid for ttl.
func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	result, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapS3Error(err)
	}
	return result.URL, nil
}

// Head returns object metadata without downloading the body.
func (s *S3Store) Head(ctx context.Context, key string) (*gateway.ObjectMetadata, error) {
	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err)
	}

	return &gateway.ObjectMetadata{
		Key:           key,
		ContentType:   aws.ToString(output.ContentType),
		ContentLength: aws.ToInt64(output.ContentLength),
		ETag:          stripETag(aws.ToString(output.ETag)),
		LastModified:  aws.ToTime(output.LastModified),
		VersionID:     aws.ToString(output.VersionId),
		StorageClass:  storageClass(string(output.StorageClass)),
		Metadata:      output.Metadata,
	}, nil
}

// ListVersions returns every version and delete marker under prefix, following pagination.
func (s *S3Store) ListVersions(ctx context.Context, prefix string) ([]gateway.ObjectVersion, error) {
	input := &s3.ListObjectVersionsInput{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(prefix),
	}

	var versions []gateway.ObjectVersion
	for {
		output, err := s.client.ListObjectVersions(ctx, input)
		if err != nil {
			return nil, wrapS3Error(err)
		}
		for _, v := range output.Versions {
			versions = append(versions, gateway.ObjectVersion{
				Key:          aws.ToString(v.Key),
				VersionID:    aws.ToString(v.VersionId),
				ETag:         stripETag(aws.ToString(v.ETag)),
				Size:         aws.ToInt64(v.Size),
				IsLatest:     aws.ToBool(v.IsLatest),
				LastModified: aws.ToTime(v.LastModified),
			})
		}
		for _, m := range output.DeleteMarkers {
			versions = append(versions, gateway.ObjectVersion{
				Key:            aws.ToString(m.Key),
				VersionID:      aws.ToString(m.VersionId),
				IsLatest:       aws.ToBool(m.IsLatest),
				IsDeleteMarker: true,
				LastModified:   aws.ToTime(m.LastModified),
			})
		}
		if !aws.ToBool(output.IsTruncated) {
			return versions, nil
		}
		input.KeyMarker = output.NextKeyMarker
		input.VersionIdMarker = output.NextVersionIdMarker
	}
}

// CreateMultipart starts a multipart upload and returns its upload ID.
func (s *S3Store) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	output, err := s.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", wrapS3Error(err)
	}
	return aws.ToString(output.UploadId), nil
}

// PresignUploadPart generates a pre-signed PUT URL for one part.
func (s *S3Store) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error) {
	result, err := s.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(s.cfg.Bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapS3Error(err)
	}
	return result.URL, nil
}

// CompleteMultipart assembles the uploaded parts. The store rejects an upload ID
// that does not belong to key with NoSuchUpload.
func (s *S3Store) CompleteMultipart(ctx context.Context, key, uploadID string, parts []gateway.CompletedPart) (string, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(quoteETag(p.ETag)),
			PartNumber: aws.Int32(p.PartNumber),
		})
	}

	output, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.cfg.Bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return "", wrapS3Error(err)
	}
	return stripETag(aws.ToString(output.ETag)), nil
}

// AbortMultipart discards an upload and its parts.
func (s *S3Store) AbortMultipart(ctx context.Context, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.cfg.Bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	return wrapS3Error(err)
}

// ListMultipart returns in-flight uploads under prefix, following pagination.
func (s *S3Store) ListMultipart(ctx context.Context, prefix string) ([]gateway.MultipartUpload, error) {
	input := &s3.ListMultipartUploadsInput{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(prefix),
	}

	var uploads []gateway.MultipartUpload
	for {
		output, err := s.client.ListMultipartUploads(ctx, input)
		if err != nil {
			return nil, wrapS3Error(err)
		}
		for _, u := range output.Uploads {
			uploads = append(uploads, gateway.MultipartUpload{
				Key:       aws.ToString(u.Key),
				UploadID:  aws.ToString(u.UploadId),
				Initiated: aws.ToTime(u.Initiated),
			})
		}
		if !aws.ToBool(output.IsTruncated) {
			return uploads, nil
		}
		input.KeyMarker = output.NextKeyMarker
		input.UploadIdMarker = output.NextUploadIdMarker
	}
}

// Ping checks that the bucket exists and is reachable.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	return wrapS3Error(err)
}

// stripETag removes the quotes S3 puts around ETags.
func stripETag(etag string) string {
	return strings.Trim(etag, `"`)
}

func quoteETag(etag string) string {
	return `"` + stripETag(etag) + `"`
}

func storageClass(class string) string {
	if class == "" {
		return DefaultStorageClass
	}
	return class
}

// Ensure S3Store implements Store.
var _ Store = (*S3Store)(nil)
