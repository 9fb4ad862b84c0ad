package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrymomot/bucketgate/pkg/audit"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

// Multipart uploads: Initiated -> (parts uploaded directly to the store)* -> Completed | Aborted.
// The store is the system of record for in-flight parts. The gateway checks the
// key at every transition; an upload ID is only valid for the key it was created
// against and the store rejects mismatches, which surface as tenancy.ErrNotFound.

// InitiateMultipartUpload starts an upload for key and returns its upload ID.
func (s *Service) InitiateMultipartUpload(ctx context.Context, tenantID, key, contentType string) (string, error) {
	if err := s.authorize(ctx, tenantID, audit.ActionMultipartInitiate, key); err != nil {
		return "", err
	}

	var uploadID string
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		uploadID, err = s.store.CreateMultipart(ctx, key, contentType)
		return err
	})
	if err != nil {
		err = s.fail(ctx, tenantID, "create_multipart", key, err)
		s.emitResult(ctx, tenantID, audit.ActionMultipartInitiate, key, err, nil)
		return "", err
	}

	s.emitResult(ctx, tenantID, audit.ActionMultipartInitiate, key, nil, map[string]any{"upload_id": uploadID})
	return uploadID, nil
}

// PresignUploadPart returns a URL the client can PUT one part to.
func (s *Service) PresignUploadPart(ctx context.Context, tenantID, key, uploadID string, partNumber int32, expiresIn time.Duration) (*PartURL, error) {
	if err := s.authorize(ctx, tenantID, audit.ActionMultipartPartURL, key); err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, ErrMissingUpload
	}
	if partNumber < 1 || partNumber > maxPartNumber {
		return nil, ErrInvalidParts
	}

	ttl := clampExpiry(expiresIn, s.cfg.DownloadURLExpiry, s.cfg.MaxDownloadURLExpiry)

	var url string
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		url, err = s.store.PresignUploadPart(ctx, key, uploadID, partNumber, ttl)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, tenantID, "presign_part", key, err)
	}
	return &PartURL{URL: url, PartNumber: partNumber, ExpiresIn: int64(ttl.Seconds())}, nil
}

// CompleteMultipartUpload merges the uploaded parts into key.
// Parts must be listed in strictly ascending part-number order.
func (s *Service) CompleteMultipartUpload(ctx context.Context, tenantID, key, uploadID string, parts []CompletedPart) (*UploadResult, error) {
	if err := s.authorize(ctx, tenantID, audit.ActionMultipartComplete, key); err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, ErrMissingUpload
	}
	if err := validateParts(parts); err != nil {
		return nil, err
	}

	var etag string
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		etag, err = s.store.CompleteMultipart(ctx, key, uploadID, parts)
		return err
	})
	if err != nil {
		err = s.fail(ctx, tenantID, "complete_multipart", key, err)
		s.emitResult(ctx, tenantID, audit.ActionMultipartComplete, key, err, map[string]any{"upload_id": uploadID})
		return nil, err
	}

	s.emitResult(ctx, tenantID, audit.ActionMultipartComplete, key, nil, map[string]any{
		"upload_id": uploadID,
		"parts":     len(parts),
	})
	return &UploadResult{Key: key, ETag: etag}, nil
}

// AbortMultipartUpload discards an in-flight upload and its parts.
func (s *Service) AbortMultipartUpload(ctx context.Context, tenantID, key, uploadID string) error {
	if err := s.authorize(ctx, tenantID, audit.ActionMultipartAbort, key); err != nil {
		return err
	}
	if uploadID == "" {
		return ErrMissingUpload
	}

	err := s.call(ctx, func(ctx context.Context) error {
		return s.store.AbortMultipart(ctx, key, uploadID)
	})
	if err != nil {
		err = s.fail(ctx, tenantID, "abort_multipart", key, err)
	}
	s.emitResult(ctx, tenantID, audit.ActionMultipartAbort, key, err, map[string]any{"upload_id": uploadID})
	return err
}

// ListMultipartUploads returns the tenant's in-flight uploads.
func (s *Service) ListMultipartUploads(ctx context.Context, tenantID string) ([]MultipartUpload, error) {
	prefix, err := s.resolvePrefix(ctx, tenantID, audit.ActionMultipartList, "")
	if err != nil {
		return nil, err
	}

	var all []MultipartUpload
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		all, err = s.store.ListMultipart(ctx, prefix)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, tenantID, "list_multipart", prefix, err)
	}

	uploads := make([]MultipartUpload, 0, len(all))
	for _, u := range all {
		if strings.HasPrefix(u.Key, prefix) {
			uploads = append(uploads, u)
		}
	}
	return uploads, nil
}

// AbortStaleUploads aborts every upload under the shared namespace root
// initiated before now-olderThan. It returns how many were aborted; failures
// on individual uploads are joined into the error and do not stop the sweep.
func (s *Service) AbortStaleUploads(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: stale upload age must be positive"))
	}

	var all []MultipartUpload
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		all, err = s.store.ListMultipart(ctx, tenancy.NamespaceRoot)
		return err
	})
	if err != nil {
		return 0, s.fail(ctx, "", "list_multipart", tenancy.NamespaceRoot, err)
	}

	cutoff := time.Now().Add(-olderThan)
	var (
		aborted int
		errs    []error
	)
	for _, u := range all {
		if u.Initiated.IsZero() || !u.Initiated.Before(cutoff) {
			continue
		}

		tenantID, _ := tenancy.TenantFromKey(u.Key)
		err := s.call(ctx, func(ctx context.Context) error {
			return s.store.AbortMultipart(ctx, u.Key, u.UploadID)
		})
		if err != nil && !errors.Is(err, tenancy.ErrNotFound) {
			errs = append(errs, s.fail(ctx, tenantID, "abort_multipart", u.Key, err))
			s.emitResult(ctx, tenantID, audit.ActionMultipartSweep, u.Key, err, map[string]any{"upload_id": u.UploadID})
			continue
		}

		aborted++
		s.emit(ctx, audit.Success(tenantID, audit.ActionMultipartSweep, u.Key, map[string]any{
			"upload_id": u.UploadID,
			"initiated": u.Initiated.UTC().Format(time.RFC3339),
		}))
	}
	return aborted, errors.Join(errs...)
}

func validateParts(parts []CompletedPart) error {
	if len(parts) == 0 {
		return ErrNoParts
	}
	var prev int32
	for _, p := range parts {
		if p.PartNumber < 1 || p.PartNumber > maxPartNumber || p.PartNumber <= prev {
			return ErrInvalidParts
		}
		if p.ETag == "" {
			return errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: part etag is required"))
		}
		prev = p.PartNumber
	}
	return nil
}
