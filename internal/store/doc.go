// Package store keeps the latest rendered view of every mount point.
//
// A view is the declarative chart or table most recently rendered into a
// mount point, serialized as JSON. Each write replaces the previous view for
// that mount (last writer wins) and is published to subscribers so the
// dashboard server can push it to browsers.
//
// The store also tracks tick health: how many ticks ran, failed, or were
// skipped, and when the last successful one finished.
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the tick loop).
package store
