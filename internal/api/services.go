package api

import (
	"context"
	"time"

	"github.com/dmitrymomot/bucketgate/pkg/credentials"
	"github.com/dmitrymomot/bucketgate/pkg/gateway"
)

// ObjectGateway is the subset of *gateway.Service the object routes use.
type ObjectGateway interface {
	Config() gateway.Config
	Namespace(tenantID string) (string, error)
	ListObjects(ctx context.Context, tenantID string, in gateway.ListInput) (*gateway.ListingPage, error)
	UploadObject(ctx context.Context, tenantID string, in gateway.UploadInput) (*gateway.UploadResult, error)
	DeleteObject(ctx context.Context, tenantID, key string) error
	DeleteObjects(ctx context.Context, tenantID string, keys []string) (*gateway.DeleteResult, error)
	GetDownloadURL(ctx context.Context, tenantID, key string, expiresIn time.Duration) (*gateway.DownloadURL, error)
	GetObjectMetadata(ctx context.Context, tenantID, key string) (*gateway.ObjectMetadata, error)
	ListObjectVersions(ctx context.Context, tenantID, key string) ([]gateway.ObjectVersion, error)
	CreateFolder(ctx context.Context, tenantID, prefix string) (string, error)
	SearchObjects(ctx context.Context, tenantID, prefix, term string) ([]gateway.Object, error)
}

// MultipartGateway is the subset of *gateway.Service the multipart routes use.
type MultipartGateway interface {
	InitiateMultipartUpload(ctx context.Context, tenantID, key, contentType string) (string, error)
	PresignUploadPart(ctx context.Context, tenantID, key, uploadID string, partNumber int32, expiresIn time.Duration) (*gateway.PartURL, error)
	CompleteMultipartUpload(ctx context.Context, tenantID, key, uploadID string, parts []gateway.CompletedPart) (*gateway.UploadResult, error)
	AbortMultipartUpload(ctx context.Context, tenantID, key, uploadID string) error
	ListMultipartUploads(ctx context.Context, tenantID string) ([]gateway.MultipartUpload, error)
}

// CredentialIssuer is the subset of *credentials.Issuer the credential routes use.
type CredentialIssuer interface {
	IssueTemporaryCredentials(ctx context.Context, tenantID string, durationSeconds int) (*credentials.TemporaryCredential, error)
	CreateAccessKey(ctx context.Context, tenantID string) (*credentials.AccessKey, error)
	ListAccessKeys(ctx context.Context, tenantID string) ([]credentials.AccessKey, error)
	DeleteAccessKey(ctx context.Context, tenantID, keyID string) error
	SetAccessKeyStatus(ctx context.Context, tenantID, keyID, status string) error
	RotateAccessKey(ctx context.Context, tenantID, oldKeyID string) (*credentials.AccessKey, error)
}

var (
	_ ObjectGateway    = (*gateway.Service)(nil)
	_ MultipartGateway = (*gateway.Service)(nil)
	_ CredentialIssuer = (*credentials.Issuer)(nil)
)
