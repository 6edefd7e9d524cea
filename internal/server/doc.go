// Package server provides the HTTP server for the triageboard dashboard.
//
// This package is internal to triageboard and handles all HTTP concerns:
//
//   - Dashboard serving: the embedded HTML page at "/"
//   - REST API: "/api/views" snapshot and "/api/health" tick health
//   - Live updates: Server-Sent Events at "/api/sse" and a WebSocket at "/ws"
//   - Server-side charts: "/charts/{mount}.svg" drawn with go-chart
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
