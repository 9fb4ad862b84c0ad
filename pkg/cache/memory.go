package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	expiresAt time.Time
	value     V
	key       string
}

func (it *item[V]) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL time.Duration
	sweepEvery time.Duration
	maxEntries int
}

// WithDefaultTTL sets the expiry used when Set is called with a zero ttl.
// Default: 1 hour.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.defaultTTL = d }
}

// WithSweepInterval sets how often expired entries are dropped in the
// background. Zero disables the sweeper; expired entries are then dropped
// on access only.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.sweepEvery = d }
}

// WithMaxEntries bounds the cache size. The least recently used entry is
// evicted once the bound is reached. Zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) { c.maxEntries = n }
}

// Memory is a process-local LRU cache with per-entry expiry.
type Memory[V any] struct {
	items map[string]*list.Element
	order *list.List // front is most recently used
	cfg   memoryConfig
	done  chan struct{}
	mu    sync.Mutex

	closed bool
}

// NewMemory returns a Memory cache. Call Close to stop the sweeper.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{defaultTTL: time.Hour, sweepEvery: time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Memory[V]{
		items: make(map[string]*list.Element),
		order: list.New(),
		cfg:   cfg,
		done:  make(chan struct{}),
	}
	if cfg.sweepEvery > 0 {
		go m.sweep()
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	it := el.Value.(*item[V])
	if it.expired(time.Now()) {
		m.remove(el)
		return zero, ErrNotFound
	}
	m.order.MoveToFront(el)
	return it.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.cfg.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if el, ok := m.items[key]; ok {
		it := el.Value.(*item[V])
		it.value, it.expiresAt = value, expiresAt
		m.order.MoveToFront(el)
		return nil
	}

	if m.cfg.maxEntries > 0 && len(m.items) >= m.cfg.maxEntries {
		if oldest := m.order.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.order.PushFront(&item[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

// Len reports the number of stored entries, including expired ones not yet
// swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the sweeper. It is safe to call more than once.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *Memory[V]) sweep() {
	t := time.NewTicker(m.cfg.sweepEvery)
	defer t.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-t.C:
			m.dropExpired(now)
		}
	}
}

func (m *Memory[V]) dropExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*item[V]).expired(now) {
			m.remove(el)
		}
		el = prev
	}
}

// caller holds mu
func (m *Memory[V]) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*item[V]).key)
}

var _ Cache[bool] = (*Memory[bool])(nil)
