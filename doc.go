// Package triageboard provides a live dashboard for an emergency department
// triage backend.
//
// The dashboard polls three JSON feeds of the backend on a fixed interval:
// the waiting queues per triage level, the completion statistics and the
// doctors roster. Each tick fetches all three concurrently and, only if all
// three succeed, renders four views: a column chart of the queues, a pie chart
// of completions, a bar chart of free and occupied doctors and a table of
// every doctor. A failed tick renders nothing and the previous views stay on
// screen until the next successful tick.
//
// # Quick Start
//
//	db, _ := triageboard.New(triageboard.WithBaseURL("http://er.local:8000"))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	db.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// triageboard uses the functional options pattern for configuration:
//
//	db, err := triageboard.New(
//	    triageboard.WithBaseURL("http://er.local:8000"),
//	    triageboard.WithFeedPath(triageboard.FeedDoctors, "/api/v2/medicos/"),
//	    triageboard.WithPollingInterval(2 * time.Second),
//	    triageboard.WithRequestTimeout(5 * time.Second),
//	    triageboard.WithReportedDoctorSummary(true),
//	    triageboard.WithPort(9090),
//	)
//
// # Rendering
//
// Views are drawn through the [render.Port] interface, addressed by mount
// point ([MountQueues], [MountCompletion], [MountDoctors],
// [MountDoctorTable]). The dashboard always renders into its own view store,
// which the web UI streams; [WithRenderer] adds further ports, such as a
// [render.Recorder] in tests. [Dashboard.Tick] runs one cycle synchronously.
//
// # Architecture
//
// triageboard consists of several internal packages (under internal/):
//
//   - internal/poller: HTTP client, all-or-nothing concurrent fetch and the tick scheduler
//   - internal/store: In-memory view storage with pub/sub and tick health
//   - internal/server: HTTP server with REST API, Server-Sent Events and WebSocket
//   - internal/mockapi: Simulated triage backend for demos and tests
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice. The library is designed for single-binary deployment
// using Go's embed directive for static assets.
package triageboard
