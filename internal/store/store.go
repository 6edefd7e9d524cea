package store

import (
	"encoding/json"
	"time"
)

// View is the latest rendering of one mount point.
type View struct {
	// Mount is the mount point identifier (e.g. "filas-chart").
	Mount string `json:"mount"`

	// Kind is the view type: "column", "pie", "bar" or "table".
	Kind string `json:"kind"`

	// Payload is the JSON encoding of the chart or table.
	Payload json.RawMessage `json:"payload"`

	// RenderedAt is when the view was written.
	RenderedAt time.Time `json:"rendered_at"`

	// Version increases by one on every write to the store, across all mounts.
	Version uint64 `json:"version"`
}

// Health summarises the tick loop.
type Health struct {
	Ticks               uint64     `json:"ticks"`
	Failures            uint64     `json:"failures"`
	ConsecutiveFailures uint64     `json:"consecutive_failures"`
	Skipped             uint64     `json:"skipped"`
	LastSuccessAt       *time.Time `json:"last_success_at"`
	LastError           *string    `json:"last_error"`
	LastErrorAt         *time.Time `json:"last_error_at"`
}

// Store defines the operations the renderer and the server need.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Put stores a view and notifies all subscribers. The stored copy carries
	// the assigned version, which is also returned.
	Put(view View) View

	// Get returns the current view for mount.
	Get(mount string) (View, bool)

	// GetAll returns a snapshot of every view ordered by mount.
	GetAll() []View

	// Subscribe returns a channel that receives every stored view.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan View

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan View)

	// RecordTick records the outcome of one tick; err is nil on success.
	RecordTick(at time.Time, err error)

	// RecordSkip records a tick dropped because the previous one was in flight.
	RecordSkip()

	// Health returns a copy of the current tick health.
	Health() Health
}
