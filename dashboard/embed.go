// Package dashboard provides the embedded web UI assets for triageboard.
//
// The page lays out the four mount points (filas-chart, taxa-chart,
// medicos-chart and the tabela-medicos table) and subscribes to the server's
// view stream. Each view carries a declarative chart or table which the page
// hands to Highcharts or writes into the table body.
//
// Users of the triageboard library should not need to interact with this
// package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Main dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
