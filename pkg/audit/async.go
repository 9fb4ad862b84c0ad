package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultAsyncBuffer = 1024

type queued struct {
	ctx   context.Context
	event Event
}

// Async decouples emitters from a slow sink.
// Emit never blocks: when the buffer is full the event is dropped and counted.
type Async struct {
	next    Sink
	queue   chan queued
	done    chan struct{}
	dropped atomic.Uint64
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// AsyncOption configures an Async sink.
type AsyncOption func(*asyncOptions)

type asyncOptions struct {
	buffer int
}

// WithBuffer sets the queue capacity. Default: 1024.
func WithBuffer(n int) AsyncOption {
	return func(o *asyncOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// NewAsync starts a background goroutine delivering events to next.
// Call Close to drain and stop it.
func NewAsync(next Sink, opts ...AsyncOption) *Async {
	o := &asyncOptions{buffer: defaultAsyncBuffer}
	for _, opt := range opts {
		opt(o)
	}

	a := &Async{
		next:  OrNop(next),
		queue: make(chan queued, o.buffer),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

// Emit enqueues e. The request context is detached from cancellation so
// delivery survives the end of the request.
func (a *Async) Emit(ctx context.Context, e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return
	}

	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), event: e}:
	default:
		a.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the queue was full or closed.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Close stops accepting events and waits until the queue is drained or ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for q := range a.queue {
		a.deliver(q)
	}
}

// deliver isolates the worker from a panicking sink.
func (a *Async) deliver(q queued) {
	defer func() {
		if r := recover(); r != nil {
			a.dropped.Add(1)
		}
	}()
	a.next.Emit(q.ctx, q.event)
}
