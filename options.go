package triageboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/triageboard/render"
)

// dbConfig holds mutable state during Dashboard construction.
type dbConfig struct {
	title           string
	baseURL         string
	paths           map[Feed]string
	pollingInterval time.Duration
	requestTimeout  time.Duration
	port            int
	reportedSummary bool
	logger          *slog.Logger
	ports           []render.Port
	tickCallbacks   []func(TickResult)
}

// Option is a function that configures a [Dashboard] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
type Option func(*dbConfig) error

// WithBaseURL sets the triage backend the feeds are fetched from.
//
// Feed paths are resolved against it, so "http://er.local:8000" polls
// "http://er.local:8000/api/filas/" and so on. Required.
func WithBaseURL(rawURL string) Option {
	return func(cfg *dbConfig) error {
		if _, err := parseBaseURL(rawURL); err != nil {
			return err
		}
		cfg.baseURL = rawURL
		return nil
	}
}

// WithFeedPath overrides the backend path of one feed.
//
// Example:
//
//	db, err := triageboard.New(
//	    triageboard.WithBaseURL("http://er.local"),
//	    triageboard.WithFeedPath(triageboard.FeedDoctors, "/api/v2/medicos/"),
//	)
//
// Returns an error for an unknown feed or an empty path.
func WithFeedPath(f Feed, path string) Option {
	return func(cfg *dbConfig) error {
		if !f.Valid() {
			return fmt.Errorf("unknown feed %q", f)
		}
		if path == "" {
			return fmt.Errorf("path for feed %s cannot be empty", f)
		}
		cfg.paths[f] = path
		return nil
	}
}

// WithPollingInterval sets the time between ticks. Defaults to 2 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *dbConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout of every feed fetch.
// Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *dbConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *dbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithReportedDoctorSummary selects the doctor counts contract.
//
// By default the free/occupied counts are derived from the doctors list.
// With reported set, the backend's medicos_livres, medicos_ocupados and
// medicos_totais are used instead, and a payload missing any of them fails
// the tick.
func WithReportedDoctorSummary(reported bool) Option {
	return func(cfg *dbConfig) error {
		cfg.reportedSummary = reported
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *dbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRenderer adds a rendering port that receives every chart and table
// next to the dashboard's own view store.
//
// Example:
//
//	rec := &render.Recorder{}
//	db, err := triageboard.New(
//	    triageboard.WithBaseURL(backend),
//	    triageboard.WithRenderer(rec),
//	)
//
// Returns an error if the port is nil.
func WithRenderer(p render.Port) Option {
	return func(cfg *dbConfig) error {
		if p == nil {
			return errors.New("renderer cannot be nil")
		}
		cfg.ports = append(cfg.ports, p)
		return nil
	}
}

// WithTickCallback registers a function called after every tick, successful
// or not. Callbacks run synchronously on the tick goroutine in registration
// order and must not block; a slow callback delays the next tick. Panics are
// recovered and logged.
//
// Nil callbacks are silently ignored.
func WithTickCallback(cb func(TickResult)) Option {
	return func(cfg *dbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.tickCallbacks = append(cfg.tickCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard page title. Defaults to "Urgências".
func WithTitle(title string) Option {
	return func(cfg *dbConfig) error {
		cfg.title = title
		return nil
	}
}
