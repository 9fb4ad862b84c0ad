package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/bucketgate/pkg/audit"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

// Service runs object operations on behalf of tenants.
// Every key a tenant supplies is checked by the Validator before the store is
// called; a denial never reaches the store. Service holds no per-request state
// and is safe for concurrent use.
type Service struct {
	store     ObjectStore
	validator *tenancy.Validator
	sink      audit.Sink
	logger    *slog.Logger
	cfg       Config
}

// Option configures a Service.
type Option func(*Service)

// WithAuditSink sets the sink for state-changing operations.
func WithAuditSink(s audit.Sink) Option {
	return func(svc *Service) {
		svc.sink = audit.OrNop(s)
	}
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// NewService creates a gateway over store. Zero config fields take defaults.
func NewService(store ObjectStore, validator *tenancy.Validator, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if validator == nil {
		return nil, ErrNilValidator
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	svc := &Service{
		store:     store,
		validator: validator,
		sink:      audit.Nop(),
		logger:    slog.New(slog.DiscardHandler),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Namespace returns the tenant's key prefix.
func (s *Service) Namespace(tenantID string) (string, error) {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return "", err
	}
	return tenancy.DeriveNamespace(tenantID), nil
}

// authorize validates keys for tenantID, deriving nothing: callers resolve defaults first.
func (s *Service) authorize(ctx context.Context, tenantID, action string, keys ...string) error {
	return s.validator.Authorize(ctx, tenantID, action, keys...)
}

// resolvePrefix defaults an empty prefix to the tenant namespace and validates the result.
func (s *Service) resolvePrefix(ctx context.Context, tenantID, action, prefix string) (string, error) {
	if prefix == "" {
		if err := tenancy.ValidateTenantID(tenantID); err != nil {
			return "", err
		}
		return tenancy.DeriveNamespace(tenantID), nil
	}
	if err := s.authorize(ctx, tenantID, action, prefix); err != nil {
		return "", err
	}
	return prefix, nil
}

// call runs fn under the upstream timeout.
func (s *Service) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	defer cancel()
	return fn(ctx)
}

// fail logs the upstream failure with its cause and returns the classified error.
func (s *Service) fail(ctx context.Context, tenantID, op, key string, err error) error {
	wrapped := upstreamError(op, key, err)
	level := slog.LevelError
	if errors.Is(wrapped, tenancy.ErrNotFound) || errors.Is(err, context.Canceled) {
		level = slog.LevelDebug
	}
	s.logger.Log(ctx, level, "storage operation failed",
		slog.String("tenant_id", tenantID),
		slog.String("operation", op),
		slog.String("key", key),
		slog.Any("error", err),
	)
	return wrapped
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	s.sink.Emit(ctx, e)
}

func (s *Service) emitResult(ctx context.Context, tenantID, action, resource string, err error, details map[string]any) {
	if err != nil {
		if details == nil {
			details = map[string]any{}
		}
		details["error_class"] = errorClass(err)
		s.emit(ctx, audit.Failure(tenantID, action, resource, details))
		return
	}
	s.emit(ctx, audit.Success(tenantID, action, resource, details))
}

// errorClass names the taxonomy class of err without exposing upstream text.
func errorClass(err error) string {
	switch {
	case errors.Is(err, tenancy.ErrAccessDenied):
		return "authorization_denied"
	case errors.Is(err, tenancy.ErrNotFound):
		return "not_found"
	case errors.Is(err, tenancy.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "upstream_unavailable"
	}
}

func clampExpiry(requested, def, upper time.Duration) time.Duration {
	if requested <= 0 {
		return def
	}
	return max(min(requested, upper), time.Second)
}
