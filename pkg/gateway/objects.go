package gateway

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/dmitrymomot/bucketgate/pkg/audit"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

const (
	delimiter          = tenancy.Separator
	defaultContentType = "application/octet-stream"
)

// ListObjects returns one page of the tenant's objects under in.Prefix.
// An empty prefix lists the namespace root. Nested keys collapse into folder
// entries, and the folder marker equal to the prefix itself is omitted.
func (s *Service) ListObjects(ctx context.Context, tenantID string, in ListInput) (*ListingPage, error) {
	prefix, err := s.resolvePrefix(ctx, tenantID, audit.ActionObjectList, in.Prefix)
	if err != nil {
		return nil, err
	}

	params := ListParams{
		Prefix:            prefix,
		Delimiter:         delimiter,
		ContinuationToken: in.ContinuationToken,
		MaxKeys:           s.pageSize(in.MaxKeys),
	}

	var res *ListResult
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.store.List(ctx, params)
		return err
	})
	if err == nil && res == nil {
		err = ErrEmptyStoreResult
	}
	if err != nil {
		return nil, s.fail(ctx, tenantID, "list", prefix, err)
	}

	objects := make([]Object, 0, len(res.CommonPrefixes)+len(res.Objects))
	for _, cp := range res.CommonPrefixes {
		objects = append(objects, Object{Key: cp, IsFolder: true})
	}
	for _, obj := range res.Objects {
		if obj.Key == prefix {
			continue
		}
		objects = append(objects, obj)
	}

	return &ListingPage{
		Objects:           objects,
		Prefix:            prefix,
		ContinuationToken: res.NextContinuationToken,
		HasMore:           res.IsTruncated,
	}, nil
}

func (s *Service) pageSize(requested int32) int32 {
	if requested <= 0 {
		return s.cfg.DefaultListMaxKeys
	}
	return min(requested, maxListKeys)
}

// UploadObject stores in.Body under in.Key.
// Bodies larger than the configured maximum are rejected, before the call when
// the size is known and mid-stream otherwise.
func (s *Service) UploadObject(ctx context.Context, tenantID string, in UploadInput) (*UploadResult, error) {
	if err := s.authorize(ctx, tenantID, audit.ActionObjectUpload, in.Key); err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: upload body is required"))
	}

	limit := int64(s.cfg.MaxUploadSize)
	if in.Size > limit {
		return nil, ErrUploadTooLarge
	}

	body := in.Body
	var limited *limitedReader
	if in.Size < 0 {
		limited = &limitedReader{r: in.Body, remaining: limit}
		body = limited
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	etag, err := s.store.Put(uploadCtx, PutParams{
		Key:         in.Key,
		Body:        body,
		Size:        in.Size,
		ContentType: in.ContentType,
	})
	if err != nil && (errors.Is(err, ErrUploadTooLarge) || (limited != nil && limited.exceeded)) {
		s.emitResult(ctx, tenantID, audit.ActionObjectUpload, in.Key, ErrUploadTooLarge, nil)
		return nil, ErrUploadTooLarge
	}
	if err != nil {
		err = s.fail(ctx, tenantID, "upload", in.Key, err)
		s.emitResult(ctx, tenantID, audit.ActionObjectUpload, in.Key, err, nil)
		return nil, err
	}

	s.emitResult(ctx, tenantID, audit.ActionObjectUpload, in.Key, nil, map[string]any{
		"size":         in.Size,
		"content_type": in.ContentType,
	})
	return &UploadResult{Key: in.Key, ETag: etag}, nil
}

// DeleteObject removes a single key.
func (s *Service) DeleteObject(ctx context.Context, tenantID, key string) error {
	if err := s.authorize(ctx, tenantID, audit.ActionObjectDelete, key); err != nil {
		return err
	}

	err := s.call(ctx, func(ctx context.Context) error {
		return s.store.Delete(ctx, key)
	})
	if err != nil {
		err = s.fail(ctx, tenantID, "delete", key, err)
	}
	s.emitResult(ctx, tenantID, audit.ActionObjectDelete, key, err, nil)
	return err
}

// DeleteObjects removes keys in one batch. Every key is validated before the
// store is called, so one foreign key aborts the whole batch with no deletes.
// Per-key failures reported by the store are returned in the result, not as an error.
func (s *Service) DeleteObjects(ctx context.Context, tenantID string, keys []string) (*DeleteResult, error) {
	if len(keys) == 0 {
		return nil, errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: no keys to delete"))
	}
	if len(keys) > maxBatchDeleteKeys {
		return nil, ErrTooManyKeys
	}
	if err := s.authorize(ctx, tenantID, audit.ActionObjectDeleteBatch, keys...); err != nil {
		return nil, err
	}

	var res *DeleteResult
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.store.DeleteBatch(ctx, keys)
		return err
	})
	if err == nil && res == nil {
		err = ErrEmptyStoreResult
	}
	if err != nil {
		err = s.fail(ctx, tenantID, "delete_batch", tenancy.DeriveNamespace(tenantID), err)
		s.emitResult(ctx, tenantID, audit.ActionObjectDeleteBatch, tenancy.DeriveNamespace(tenantID), err,
			map[string]any{"requested": len(keys)})
		return nil, err
	}

	if res.Deleted == nil {
		res.Deleted = []string{}
	}
	if res.Errors == nil {
		res.Errors = []DeleteError{}
	}

	outcome := audit.OutcomeSuccess
	if len(res.Errors) > 0 {
		outcome = audit.OutcomeWarning
	}
	s.emit(ctx, audit.New(tenantID, audit.ActionObjectDeleteBatch, tenancy.DeriveNamespace(tenantID), outcome,
		map[string]any{
			"requested": len(keys),
			"deleted":   len(res.Deleted),
			"failed":    len(res.Errors),
		}))
	return res, nil
}

// GetDownloadURL presigns a GET for key. A zero expiresIn uses the configured default.
func (s *Service) GetDownloadURL(ctx context.Context, tenantID, key string, expiresIn time.Duration) (*DownloadURL, error) {
	if err := s.authorize(ctx, tenantID, audit.ActionObjectDownloadURL, key); err != nil {
		return nil, err
	}

	ttl := clampExpiry(expiresIn, s.cfg.DownloadURLExpiry, s.cfg.MaxDownloadURLExpiry)

	var url string
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		url, err = s.store.PresignGet(ctx, key, ttl)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, tenantID, "presign_get", key, err)
	}

	s.emit(ctx, audit.Success(tenantID, audit.ActionObjectDownloadURL, key, map[string]any{
		"expires_in": int64(ttl.Seconds()),
	}))
	return &DownloadURL{URL: url, ExpiresIn: int64(ttl.Seconds())}, nil
}

// GetObjectMetadata returns HEAD metadata for key.
func (s *Service) GetObjectMetadata(ctx context.Context, tenantID, key string) (*ObjectMetadata, error) {
	if err := s.authorize(ctx, tenantID, audit.ActionObjectHead, key); err != nil {
		return nil, err
	}

	var meta *ObjectMetadata
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		meta, err = s.store.Head(ctx, key)
		return err
	})
	if err == nil && meta == nil {
		err = ErrEmptyStoreResult
	}
	if err != nil {
		return nil, s.fail(ctx, tenantID, "head", key, err)
	}

	meta.Key = key
	if meta.ContentType == "" {
		meta.ContentType = defaultContentType
	}
	return meta, nil
}

// ListObjectVersions returns the version history of exactly key.
// Versions of other keys sharing key as a prefix are dropped.
func (s *Service) ListObjectVersions(ctx context.Context, tenantID, key string) ([]ObjectVersion, error) {
	if err := s.authorize(ctx, tenantID, audit.ActionObjectVersions, key); err != nil {
		return nil, err
	}

	var all []ObjectVersion
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		all, err = s.store.ListVersions(ctx, key)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, tenantID, "list_versions", key, err)
	}

	versions := make([]ObjectVersion, 0, len(all))
	for _, v := range all {
		if v.Key == key {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

// CreateFolder writes an empty marker object at prefix, appending "/" first.
// It returns the marker key.
func (s *Service) CreateFolder(ctx context.Context, tenantID, prefix string) (string, error) {
	if prefix == "" {
		return "", errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: folder prefix is required"))
	}
	if !strings.HasSuffix(prefix, delimiter) {
		prefix += delimiter
	}
	if err := s.authorize(ctx, tenantID, audit.ActionFolderCreate, prefix); err != nil {
		return "", err
	}

	err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.store.Put(ctx, PutParams{
			Key:  prefix,
			Body: strings.NewReader(""),
			Size: 0,
		})
		return err
	})
	if err != nil {
		err = s.fail(ctx, tenantID, "create_folder", prefix, err)
	}
	s.emitResult(ctx, tenantID, audit.ActionFolderCreate, prefix, err, nil)
	if err != nil {
		return "", err
	}
	return prefix, nil
}

// SearchObjects lists one store page under prefix (the namespace when empty)
// and keeps keys containing term, compared with Unicode case folding. An
// empty term matches every key on the page. Results are limited to that
// single page; keys beyond it are not searched.
func (s *Service) SearchObjects(ctx context.Context, tenantID, prefix, term string) ([]Object, error) {
	prefix, err := s.resolvePrefix(ctx, tenantID, audit.ActionObjectSearch, prefix)
	if err != nil {
		return nil, err
	}
	var res *ListResult
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.store.List(ctx, ListParams{Prefix: prefix, MaxKeys: maxListKeys})
		return err
	})
	if err == nil && res == nil {
		err = ErrEmptyStoreResult
	}
	if err != nil {
		return nil, s.fail(ctx, tenantID, "search", prefix, err)
	}

	fold := cases.Fold()
	needle := fold.String(term)
	found := make([]Object, 0)
	for _, obj := range res.Objects {
		if obj.Key == prefix {
			continue
		}
		if !strings.Contains(fold.String(obj.Key), needle) {
			continue
		}
		if strings.HasSuffix(obj.Key, delimiter) {
			obj = Object{Key: obj.Key, IsFolder: true}
		}
		found = append(found, obj)
	}
	return found, nil
}

// limitedReader fails with ErrUploadTooLarge once more than remaining bytes are read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, ErrUploadTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, ErrUploadTooLarge
	}
	return n, err
}
