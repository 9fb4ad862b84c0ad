package api_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/internal/api"
	"github.com/dmitrymomot/bucketgate/pkg/credentials"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

func TestCredentials_Temporary(t *testing.T) {
	t.Parallel()

	issuer := &fakeIssuer{}
	srv := newTestServer(t, &fakeGateway{}, issuer)

	rec := srv.do(t, "alice", http.MethodPost, "/api/credentials/temporary", map[string]int{"duration_seconds": 7200})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	creds := decode[credentials.TemporaryCredential](t, rec)
	assert.Equal(t, "ASIA1", creds.AccessKeyID)
	assert.Equal(t, "token", creds.SessionToken)

	c := issuer.last(t)
	assert.Equal(t, "alice", c.args["tenant"])
	assert.Equal(t, 7200, c.args["duration"])

	rec = srv.do(t, "alice", http.MethodPost, "/api/credentials/temporary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, issuer.last(t).args["duration"])
}

func TestCredentials_AccessKeys(t *testing.T) {
	t.Parallel()

	issuer := &fakeIssuer{}
	srv := newTestServer(t, &fakeGateway{}, issuer)

	rec := srv.do(t, "alice", http.MethodPost, "/api/credentials/access-key", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	key := decode[credentials.AccessKey](t, rec)
	assert.Equal(t, "AKIA1", key.AccessKeyID)
	assert.Equal(t, "secret", key.SecretAccessKey)

	rec = srv.do(t, "alice", http.MethodGet, "/api/credentials/access-keys", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret_access_key")
	assert.Contains(t, rec.Body.String(), `"access_keys"`)

	rec = srv.do(t, "alice", http.MethodDelete, "/api/credentials/access-key/AKIA1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AKIA1", issuer.last(t).args["key_id"])

	rec = srv.do(t, "alice", http.MethodPut, "/api/credentials/access-key/AKIA1/status", map[string]string{"status": "inactive"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Access key status updated to Inactive", decode[map[string]string](t, rec)["message"])

	rec = srv.do(t, "alice", http.MethodPut, "/api/credentials/access-key/AKIA1/status", map[string]string{"status": "paused"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status must be Active or Inactive", decodeError(t, rec).Message)

	rec = srv.do(t, "alice", http.MethodPost, "/api/credentials/access-key/rotate", map[string]string{"old_access_key_id": "AKIA1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "AKIA2", decode[credentials.AccessKey](t, rec).AccessKeyID)
	assert.Equal(t, "AKIA1", issuer.last(t).args["old_key_id"])
}

func TestCredentials_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		name   string
		code   string
		status int
	}{
		{name: "unknown key", err: credentials.ErrKeyNotFound, status: http.StatusNotFound, code: api.CodeNotFound},
		{name: "key limit", err: credentials.ErrKeyLimit, status: http.StatusBadRequest, code: api.CodeInvalidRequest},
		{name: "iam down", err: errors.Join(tenancy.ErrUpstreamUnavailable, errors.New("throttled")), status: http.StatusBadGateway, code: api.CodeUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, &fakeGateway{}, &fakeIssuer{err: tt.err})
			rec := srv.do(t, "alice", http.MethodDelete, "/api/credentials/access-key/AKIA9", nil)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestCredentials_TenantFromToken(t *testing.T) {
	t.Parallel()

	issuer := &fakeIssuer{}
	srv := newTestServer(t, &fakeGateway{}, issuer)

	rec := srv.do(t, "bob", http.MethodGet, "/api/credentials/access-keys", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", issuer.last(t).args["tenant"])

	rec = srv.do(t, "", http.MethodGet, "/api/credentials/access-keys", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, issuer.count())
}
