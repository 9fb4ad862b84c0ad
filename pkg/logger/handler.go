package logger

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// ContextExtractor pulls one request-scoped attribute from ctx.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// Redacted replaces the value of attributes whose key is secret.
const Redacted = "[REDACTED]"

// secretKeys are never written in clear. Credential responses and request
// headers pass through log calls on error paths.
var secretKeys = []string{
	"secret_access_key",
	"session_token",
	"authorization",
	"token",
	"password",
}

func isSecret(key string) bool {
	return slices.Contains(secretKeys, strings.ToLower(key))
}

func redact(a slog.Attr) slog.Attr {
	if isSecret(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() != slog.KindGroup {
		return a
	}
	group := a.Value.Group()
	out := make([]slog.Attr, len(group))
	for i, ga := range group {
		out[i] = redact(ga)
	}
	return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
}

// contextHandler adds extracted attributes to each record and masks secrets
// before handing it on.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func newContextHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	return &contextHandler{
		next:       next,
		extractors: slices.DeleteFunc(slices.Clone(extractors), func(e ContextExtractor) bool { return e == nil }),
	}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})
	for _, ex := range h.extractors {
		if a, ok := ex(ctx); ok {
			out.AddAttrs(a)
		}
	}
	return h.next.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redact(a)
	}
	return &contextHandler{next: h.next.WithAttrs(clean), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	for _, h := range f {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
