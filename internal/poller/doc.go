// Package poller fetches the triage backend feeds and drives the tick loop.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [FetchAll]: concurrent, all-or-nothing fetch of several JSON feeds
//   - [Scheduler]: immediate-then-periodic tick loop that never overlaps ticks
//
// Users of the triageboard library should not need to interact with this
// package directly. Configuration is done through the main triageboard package.
package poller
