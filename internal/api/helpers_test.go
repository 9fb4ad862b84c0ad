package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/internal/api"
	"github.com/dmitrymomot/bucketgate/middlewares"
	"github.com/dmitrymomot/bucketgate/pkg/credentials"
	"github.com/dmitrymomot/bucketgate/pkg/gateway"
	"github.com/dmitrymomot/bucketgate/pkg/jwt"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

const testSecret = "test-secret-that-is-at-least-32-bytes!"

// call records one gateway or issuer invocation.
type call struct {
	args   map[string]any
	method string
}

type recorder struct {
	calls []call
	mu    sync.Mutex
}

func (r *recorder) record(method string, args map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{method: method, args: args})
}

func (r *recorder) last(t *testing.T) call {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// fakeGateway returns err for every call when set.
type fakeGateway struct {
	recorder
	err      error
	uploaded []byte
}

func (f *fakeGateway) Config() gateway.Config { return gateway.DefaultConfig() }

func (f *fakeGateway) Namespace(tenantID string) (string, error) {
	f.record("Namespace", map[string]any{"tenant": tenantID})
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return "", err
	}
	return tenancy.DeriveNamespace(tenantID), f.err
}

func (f *fakeGateway) ListObjects(_ context.Context, tenantID string, in gateway.ListInput) (*gateway.ListingPage, error) {
	f.record("ListObjects", map[string]any{"tenant": tenantID, "input": in})
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.ListingPage{
		Prefix:  tenancy.DeriveNamespace(tenantID),
		Objects: []gateway.Object{{Key: tenancy.DeriveNamespace(tenantID) + "a.txt", Size: 3}},
	}, nil
}

func (f *fakeGateway) UploadObject(_ context.Context, tenantID string, in gateway.UploadInput) (*gateway.UploadResult, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.uploaded = body
	f.record("UploadObject", map[string]any{"tenant": tenantID, "key": in.Key, "content_type": in.ContentType, "size": in.Size})
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.UploadResult{Key: in.Key, ETag: `"etag"`}, nil
}

func (f *fakeGateway) DeleteObject(_ context.Context, tenantID, key string) error {
	f.record("DeleteObject", map[string]any{"tenant": tenantID, "key": key})
	return f.err
}

func (f *fakeGateway) DeleteObjects(_ context.Context, tenantID string, keys []string) (*gateway.DeleteResult, error) {
	f.record("DeleteObjects", map[string]any{"tenant": tenantID, "keys": keys})
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.DeleteResult{Deleted: keys, Errors: []gateway.DeleteError{}}, nil
}

func (f *fakeGateway) GetDownloadURL(_ context.Context, tenantID, key string, expiresIn time.Duration) (*gateway.DownloadURL, error) {
	f.record("GetDownloadURL", map[string]any{"tenant": tenantID, "key": key, "expires_in": expiresIn})
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.DownloadURL{URL: "https://store.example.com/" + key, ExpiresIn: 3600}, nil
}

func (f *fakeGateway) GetObjectMetadata(_ context.Context, tenantID, key string) (*gateway.ObjectMetadata, error) {
	f.record("GetObjectMetadata", map[string]any{"tenant": tenantID, "key": key})
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.ObjectMetadata{Key: key, ContentType: "text/plain", ContentLength: 3}, nil
}

func (f *fakeGateway) ListObjectVersions(_ context.Context, tenantID, key string) ([]gateway.ObjectVersion, error) {
	f.record("ListObjectVersions", map[string]any{"tenant": tenantID, "key": key})
	return nil, f.err
}

func (f *fakeGateway) CreateFolder(_ context.Context, tenantID, prefix string) (string, error) {
	f.record("CreateFolder", map[string]any{"tenant": tenantID, "prefix": prefix})
	if f.err != nil {
		return "", f.err
	}
	return strings.TrimSuffix(prefix, "/") + "/", nil
}

func (f *fakeGateway) SearchObjects(_ context.Context, tenantID, prefix, term string) ([]gateway.Object, error) {
	f.record("SearchObjects", map[string]any{"tenant": tenantID, "prefix": prefix, "term": term})
	return nil, f.err
}

func (f *fakeGateway) InitiateMultipartUpload(_ context.Context, tenantID, key, contentType string) (string, error) {
	f.record("InitiateMultipartUpload", map[string]any{"tenant": tenantID, "key": key, "content_type": contentType})
	if f.err != nil {
		return "", f.err
	}
	return "upload-1", nil
}

func (f *fakeGateway) PresignUploadPart(_ context.Context, tenantID, key, uploadID string, partNumber int32, expiresIn time.Duration) (*gateway.PartURL, error) {
	f.record("PresignUploadPart", map[string]any{"tenant": tenantID, "key": key, "upload_id": uploadID, "part": partNumber, "expires_in": expiresIn})
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.PartURL{URL: "https://store.example.com/part", PartNumber: partNumber, ExpiresIn: 3600}, nil
}

func (f *fakeGateway) CompleteMultipartUpload(_ context.Context, tenantID, key, uploadID string, parts []gateway.CompletedPart) (*gateway.UploadResult, error) {
	f.record("CompleteMultipartUpload", map[string]any{"tenant": tenantID, "key": key, "upload_id": uploadID, "parts": parts})
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.UploadResult{Key: key, ETag: `"etag-2"`}, nil
}

func (f *fakeGateway) AbortMultipartUpload(_ context.Context, tenantID, key, uploadID string) error {
	f.record("AbortMultipartUpload", map[string]any{"tenant": tenantID, "key": key, "upload_id": uploadID})
	return f.err
}

func (f *fakeGateway) ListMultipartUploads(_ context.Context, tenantID string) ([]gateway.MultipartUpload, error) {
	f.record("ListMultipartUploads", map[string]any{"tenant": tenantID})
	return nil, f.err
}

type fakeIssuer struct {
	recorder
	err error
}

func (f *fakeIssuer) IssueTemporaryCredentials(_ context.Context, tenantID string, durationSeconds int) (*credentials.TemporaryCredential, error) {
	f.record("IssueTemporaryCredentials", map[string]any{"tenant": tenantID, "duration": durationSeconds})
	if f.err != nil {
		return nil, f.err
	}
	return &credentials.TemporaryCredential{AccessKeyID: "ASIA1", SecretAccessKey: "secret", SessionToken: "token"}, nil
}

func (f *fakeIssuer) CreateAccessKey(_ context.Context, tenantID string) (*credentials.AccessKey, error) {
	f.record("CreateAccessKey", map[string]any{"tenant": tenantID})
	if f.err != nil {
		return nil, f.err
	}
	return &credentials.AccessKey{AccessKeyID: "AKIA1", SecretAccessKey: "secret", Status: credentials.StatusActive}, nil
}

func (f *fakeIssuer) ListAccessKeys(_ context.Context, tenantID string) ([]credentials.AccessKey, error) {
	f.record("ListAccessKeys", map[string]any{"tenant": tenantID})
	if f.err != nil {
		return nil, f.err
	}
	return []credentials.AccessKey{{AccessKeyID: "AKIA1", Status: credentials.StatusActive}}, nil
}

func (f *fakeIssuer) DeleteAccessKey(_ context.Context, tenantID, keyID string) error {
	f.record("DeleteAccessKey", map[string]any{"tenant": tenantID, "key_id": keyID})
	return f.err
}

func (f *fakeIssuer) SetAccessKeyStatus(_ context.Context, tenantID, keyID, status string) error {
	f.record("SetAccessKeyStatus", map[string]any{"tenant": tenantID, "key_id": keyID, "status": status})
	if f.err != nil {
		return f.err
	}
	_, err := credentials.ParseKeyStatus(status)
	return err
}

func (f *fakeIssuer) RotateAccessKey(_ context.Context, tenantID, oldKeyID string) (*credentials.AccessKey, error) {
	f.record("RotateAccessKey", map[string]any{"tenant": tenantID, "old_key_id": oldKeyID})
	if f.err != nil {
		return nil, f.err
	}
	return &credentials.AccessKey{AccessKeyID: "AKIA2", SecretAccessKey: "secret2", Status: credentials.StatusActive}, nil
}

type testServer struct {
	app    *internal.App
	tokens *jwt.Service
}

func newTestServer(t *testing.T, gw api.Gateway, issuer api.CredentialIssuer) *testServer {
	t.Helper()

	tokens, err := jwt.NewFromString(testSecret)
	require.NoError(t, err)

	auth := middlewares.JWT(tokens)
	app := internal.New(
		internal.WithMiddleware(middlewares.RequestID()),
		internal.WithErrorHandler(api.ErrorHandler),
		internal.WithNotFoundHandler(api.NotFound),
		internal.WithMethodNotAllowedHandler(api.MethodNotAllowed),
		internal.WithHandlers(
			api.NewStorage(gw, auth),
			api.NewCredentials(issuer, auth),
		),
	)
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) token(t *testing.T, tenantID string) string {
	t.Helper()
	tok, err := s.tokens.Generate(tenantID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request as tenantID. An empty tenantID sends no token.
func (s *testServer) do(t *testing.T, tenantID, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenantID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, tenantID))
	}
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.app.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorBody {
	t.Helper()
	return decode[api.ErrorResponse](t, rec).Error
}
