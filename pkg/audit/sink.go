package audit

import "context"

// Sink receives audit events.
// Implementations must not block the caller for long and must never panic;
// delivery is fire-and-forget from the emitter's point of view.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event)

// Emit calls f(ctx, e).
func (f SinkFunc) Emit(ctx context.Context, e Event) { f(ctx, e) }

type nopSink struct{}

func (nopSink) Emit(context.Context, Event) {}

// Nop returns a sink that discards every event.
func Nop() Sink { return nopSink{} }

type multiSink []Sink

// Multi fans every event out to all non-nil sinks in order.
func Multi(sinks ...Sink) Sink {
	clean := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			clean = append(clean, s)
		}
	}
	return clean
}

func (m multiSink) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}

// OrNop returns s, or a no-op sink when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop()
	}
	return s
}
