package tenancy_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/pkg/audit"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

type recorder struct {
	events []audit.Event
	mu     sync.Mutex
}

func (r *recorder) Emit(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

func TestDeriveNamespace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "users/u-42/", tenancy.DeriveNamespace("u-42"))
	assert.Equal(t, tenancy.DeriveNamespace("abc"), tenancy.DeriveNamespace("abc"))

	ids := []string{"u1", "u2", "u10", "U1", "user", "a-b", "ä"}
	seen := make(map[string]string, len(ids))
	for _, id := range ids {
		ns := tenancy.DeriveNamespace(id)
		assert.True(t, strings.HasPrefix(ns, tenancy.NamespaceRoot))
		assert.True(t, strings.HasSuffix(ns, tenancy.Separator))
		assert.Contains(t, ns, id)
		prev, dup := seen[ns]
		assert.False(t, dup, "namespace collision between %q and %q", prev, id)
		seen[ns] = id
	}
}

func TestTenantFromKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key    string
		tenant string
		ok     bool
	}{
		{key: "users/u-1/a/b.txt", tenant: "u-1", ok: true},
		{key: "users/u-1/", tenant: "u-1", ok: true},
		{key: "users/u-1", ok: false},
		{key: "users//x", ok: false},
		{key: "public/u-1/x", ok: false},
	}
	for _, tt := range tests {
		tenant, ok := tenancy.TenantFromKey(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.tenant, tenant, tt.key)
	}
}

func TestValidator_IsKeyAccessible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tenant string
		key    string
		want   bool
	}{
		{name: "own key", tenant: "u-42", key: "users/u-42/report.pdf", want: true},
		{name: "other tenant", tenant: "u-42", key: "users/u-99/report.pdf", want: false},
		{name: "namespace itself", tenant: "u-42", key: "users/u-42/", want: true},
		{name: "namespace without separator", tenant: "u-42", key: "users/u-42", want: false},
		{name: "tenant id prefix of another", tenant: "u-4", key: "users/u-42/x", want: false},
		{name: "namespace as substring", tenant: "u1", key: "users/u2/x-users/u1/y", want: false},
		{name: "case sensitive", tenant: "u1", key: "Users/u1/x", want: false},
		{name: "case sensitive tenant", tenant: "u1", key: "users/U1/x", want: false},
		{name: "leading slash", tenant: "u1", key: "/users/u1/x", want: false},
		{name: "dot segments are not normalized", tenant: "u1", key: "users/u1/../u2/x", want: true},
		{name: "empty key", tenant: "u1", key: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			v := tenancy.NewValidator(tenancy.WithAuditSink(rec))
			got := v.IsKeyAccessible(context.Background(), tt.tenant, tt.key)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.HasPrefix(tt.key, tenancy.DeriveNamespace(tt.tenant)), got)

			if tt.want {
				assert.Empty(t, rec.all())
				return
			}
			events := rec.all()
			require.Len(t, events, 1)
			assert.Equal(t, audit.ActionAccessDenied, events[0].Action)
			assert.Equal(t, audit.OutcomeDenied, events[0].Outcome)
			assert.Equal(t, tt.tenant, events[0].TenantID)
			assert.Equal(t, tt.key, events[0].Resource)
		})
	}
}

func TestValidator_RejectDotSegments(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	v := tenancy.NewValidator(tenancy.WithAuditSink(rec), tenancy.WithRejectDotSegments())

	assert.False(t, v.IsKeyAccessible(context.Background(), "u1", "users/u1/../u2/x"))
	assert.False(t, v.IsKeyAccessible(context.Background(), "u1", "users/u1/./x"))
	assert.True(t, v.IsKeyAccessible(context.Background(), "u1", "users/u1/..hidden/x"))
	assert.True(t, v.IsKeyAccessible(context.Background(), "u1", "users/u1/a.b/x"))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, "dot_segment", events[0].Details["reason"])
}

func TestValidator_Authorize(t *testing.T) {
	t.Parallel()

	t.Run("all keys in namespace", func(t *testing.T) {
		t.Parallel()
		v := tenancy.NewValidator()
		err := v.Authorize(context.Background(), "u1", "delete", "users/u1/a", "users/u1/b/c")
		require.NoError(t, err)
	})

	t.Run("one foreign key denies the batch", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		v := tenancy.NewValidator(tenancy.WithAuditSink(rec))
		err := v.Authorize(context.Background(), "u1", "delete", "users/u1/a", "users/u2/b")
		require.ErrorIs(t, err, tenancy.ErrAccessDenied)

		events := rec.all()
		require.Len(t, events, 1)
		assert.Equal(t, "delete", events[0].Details["operation"])
	})

	t.Run("empty key is invalid, not denied", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		v := tenancy.NewValidator(tenancy.WithAuditSink(rec))
		err := v.Authorize(context.Background(), "u1", "delete", "users/u1/a", "")
		require.ErrorIs(t, err, tenancy.ErrInvalidRequest)
		assert.NotErrorIs(t, err, tenancy.ErrAccessDenied)
		assert.Empty(t, rec.all())
	})

	t.Run("no keys", func(t *testing.T) {
		t.Parallel()
		err := tenancy.NewValidator().Authorize(context.Background(), "u1", "delete")
		require.ErrorIs(t, err, tenancy.ErrInvalidRequest)
	})

	t.Run("missing tenant", func(t *testing.T) {
		t.Parallel()
		err := tenancy.NewValidator().Authorize(context.Background(), "", "list", "users//x")
		require.ErrorIs(t, err, tenancy.ErrMissingTenant)
		require.ErrorIs(t, err, tenancy.ErrInvalidRequest)
	})

	t.Run("tenant with separator", func(t *testing.T) {
		t.Parallel()
		err := tenancy.NewValidator().Authorize(context.Background(), "a/b", "list", "users/a/b/x")
		require.ErrorIs(t, err, tenancy.ErrInvalidRequest)
	})
}

func TestValidateTenantID(t *testing.T) {
	t.Parallel()

	require.NoError(t, tenancy.ValidateTenantID("4f9c2a1e-0d3b-4f51-9b1a-2b7f0c3d9e11"))
	require.Error(t, tenancy.ValidateTenantID(""))
	require.Error(t, tenancy.ValidateTenantID(".."))
	require.Error(t, tenancy.ValidateTenantID("a\nb"))
}
