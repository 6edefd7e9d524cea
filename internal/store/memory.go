package store

import (
	"sort"
	"sync"
	"time"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Views are keyed by mount. Subscribers receive updates via buffered
// channels; if a subscriber's buffer is full, the update is dropped for that
// subscriber to prevent blocking the tick loop.
type MemoryStore struct {
	mu      sync.RWMutex
	views   map[string]View
	version uint64
	health  Health

	subscribers map[chan View]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		views:       make(map[string]View),
		subscribers: make(map[chan View]struct{}),
	}
}

// Put stores view under view.Mount, replacing any previous view for that
// mount, and notifies subscribers. A zero RenderedAt is set to now.
func (m *MemoryStore) Put(view View) View {
	if view.RenderedAt.IsZero() {
		view.RenderedAt = time.Now()
	}

	m.mu.Lock()
	m.version++
	view.Version = m.version
	m.views[view.Mount] = view
	m.mu.Unlock()

	m.notifySubscribers(view)
	return view
}

// Get returns the current view for mount.
func (m *MemoryStore) Get(mount string) (View, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[mount]
	return v, ok
}

// GetAll returns a snapshot of all stored views, sorted by mount.
func (m *MemoryStore) GetAll() []View {
	m.mu.RLock()
	views := make([]View, 0, len(m.views))
	for _, v := range m.views {
		views = append(views, v)
	}
	m.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].Mount < views[j].Mount })
	return views
}

// Subscribe creates a new subscription and returns a channel for receiving
// views as they are stored.
func (m *MemoryStore) Subscribe() <-chan View {
	ch := make(chan View, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan View) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// RecordTick updates the tick counters.
func (m *MemoryStore) RecordTick(at time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.health.Ticks++
	if err == nil {
		m.health.ConsecutiveFailures = 0
		m.health.LastSuccessAt = &at
		return
	}

	msg := err.Error()
	m.health.Failures++
	m.health.ConsecutiveFailures++
	m.health.LastError = &msg
	m.health.LastErrorAt = &at
}

// RecordSkip counts one skipped tick.
func (m *MemoryStore) RecordSkip() {
	m.mu.Lock()
	m.health.Skipped++
	m.mu.Unlock()
}

// Health returns a copy of the tick health.
func (m *MemoryStore) Health() Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// notifySubscribers sends the view to all active subscribers without
// blocking.
func (m *MemoryStore) notifySubscribers(view View) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- view:
		default:
			// subscriber is slow, drop the message
		}
	}
}
