package triageboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/triageboard/dashboard"
	"github.com/jpalmerr/triageboard/internal/poller"
	"github.com/jpalmerr/triageboard/internal/server"
	"github.com/jpalmerr/triageboard/internal/store"
	"github.com/jpalmerr/triageboard/render"
)

const (
	defaultPollingInterval = 2 * time.Second
	defaultRequestTimeout  = 5 * time.Second
	defaultPort            = 8080
	defaultTitle           = "Urgências"
)

// Dashboard polls the triage backend and renders its feeds.
//
// Every tick fetches the queues, stats and doctors feeds concurrently. If all
// three succeed, the queue chart, completion chart, doctors chart and doctors
// table are rendered; if any fails, nothing is rendered and the previous
// views stay in place until the next successful tick.
//
// The typical lifecycle is:
//
//	db, err := triageboard.New(triageboard.WithBaseURL("http://er.local:8000"))
//	if err != nil {
//	    slog.Error("failed to create dashboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	db.Start(ctx) // blocks until context cancelled
type Dashboard struct {
	title           string
	baseURL         *url.URL
	feedURLs        map[Feed]string
	pollingInterval time.Duration
	requestTimeout  time.Duration
	port            int
	reportedSummary bool
	logger          *slog.Logger
	tickCallbacks   []func(TickResult)

	client   *poller.Client
	store    store.Store
	renderer render.Port
}

// New creates a new [Dashboard] with the given options.
//
// [WithBaseURL] is required. Other options have defaults:
//   - Polling interval: 2 seconds
//   - Request timeout: 5 seconds
//   - Port: 8080
//   - Doctor counts derived from the doctors list
func New(opts ...Option) (*Dashboard, error) {
	cfg := &dbConfig{
		paths:           make(map[Feed]string),
		pollingInterval: defaultPollingInterval,
		requestTimeout:  defaultRequestTimeout,
		port:            defaultPort,
		title:           defaultTitle,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	base, err := parseBaseURL(cfg.baseURL)
	if err != nil {
		return nil, err
	}
	feedURLs, err := resolveFeedURLs(base, cfg.paths)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	st := store.NewMemoryStore()
	ports := append([]render.Port{newStorePort(st)}, cfg.ports...)

	return &Dashboard{
		title:           cfg.title,
		baseURL:         base,
		feedURLs:        feedURLs,
		pollingInterval: cfg.pollingInterval,
		requestTimeout:  cfg.requestTimeout,
		port:            cfg.port,
		reportedSummary: cfg.reportedSummary,
		logger:          logger,
		tickCallbacks:   cfg.tickCallbacks,
		client:          poller.NewClient(),
		store:           st,
		renderer:        render.Multi(ports...),
	}, nil
}

// Start runs the tick loop and serves the dashboard until ctx is cancelled.
//
// The first tick runs immediately, then one tick per polling interval. A tick
// that comes due while the previous one is still running is skipped. The
// dashboard page and its live feeds are served on the configured port.
//
// Returns nil on graceful shutdown, or an error if the HTTP server fails to
// start.
func (d *Dashboard) Start(ctx context.Context) error {
	d.logger.Info("triageboard starting", "backend", d.baseURL.String())
	d.logger.Info("polling configured", "interval", d.pollingInterval.String())
	d.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", d.port))

	if ctx.Err() != nil {
		return nil
	}

	scheduler := poller.NewScheduler(d.pollingInterval, func(ctx context.Context) {
		_ = d.Tick(ctx)
	}, d.store.RecordSkip, d.logger)
	scheduler.Start(ctx)

	cleanup := func() {
		scheduler.Stop()
		d.client.Close()
	}

	httpServer := server.NewServer(d.store, d.port, dashboard.Assets, d.title, d.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	d.logger.Info("triageboard stopped")
	return nil
}

// Tick runs one fetch-and-render cycle synchronously.
//
// It returns a [*TickError] if any feed failed, in which case nothing was
// rendered. Otherwise it returns the joined errors of the renderers that
// rejected their view, or nil. Failures are also logged and recorded in the
// dashboard's health.
//
// A tick cut short because ctx was cancelled is an abort, not a failure: it
// is logged at DEBUG and neither recorded nor passed to the tick callbacks.
func (d *Dashboard) Tick(ctx context.Context) error {
	started := time.Now()

	snap, err := d.fetch(ctx)
	if err != nil && ctx.Err() != nil {
		d.logger.Debug("tick aborted", "error", err.Error())
		return err
	}
	if err != nil {
		attrs := []any{"error", err.Error(), "duration_ms", time.Since(started).Milliseconds()}
		var tickErr *TickError
		if errors.As(err, &tickErr) && tickErr.Feed != "" {
			attrs = append(attrs, "feed", string(tickErr.Feed))
		}
		d.logger.Warn("tick failed", attrs...)
		d.finish(TickResult{Err: err, StartedAt: started, Duration: time.Since(started)})
		return err
	}

	err = d.dispatch(snap)
	if err != nil {
		d.logger.Warn("tick rendered with errors", "error", err.Error())
	} else {
		d.logger.Debug("tick completed",
			"duration_ms", time.Since(started).Milliseconds(),
			"doctors", snap.Summary.Total,
		)
	}
	d.finish(TickResult{Snapshot: snap, Err: err, StartedAt: started, Duration: time.Since(started)})
	return err
}

// fetch retrieves the three feeds and validates the doctors contract.
func (d *Dashboard) fetch(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	err := poller.FetchAll(ctx, d.client, d.requestTimeout,
		poller.Request{Name: string(FeedQueues), URL: d.feedURLs[FeedQueues], Target: &snap.Queues},
		poller.Request{Name: string(FeedStats), URL: d.feedURLs[FeedStats], Target: &snap.Stats},
		poller.Request{Name: string(FeedDoctors), URL: d.feedURLs[FeedDoctors], Target: &snap.Doctors},
	)
	if err != nil {
		var feedErr *poller.FeedError
		if errors.As(err, &feedErr) {
			return nil, &TickError{Feed: Feed(feedErr.Feed), Err: feedErr.Err}
		}
		return nil, &TickError{Err: err}
	}

	if snap.Doctors.Doctors == nil {
		return nil, &TickError{Feed: FeedDoctors, Err: ErrDoctorsMissing}
	}
	summary, err := snap.Doctors.Summary(d.reportedSummary)
	if err != nil {
		return nil, &TickError{Feed: FeedDoctors, Err: err}
	}
	snap.Summary = summary
	snap.FetchedAt = time.Now()

	return snap, nil
}

// dispatch hands each payload to its renderer. A renderer that fails does not
// stop the others.
func (d *Dashboard) dispatch(snap *Snapshot) error {
	renders := []struct {
		mount string
		fn    func() error
	}{
		{MountQueues, func() error { return renderQueues(d.renderer, snap.Queues) }},
		{MountCompletion, func() error { return renderCompletion(d.renderer, snap.Stats) }},
		{MountDoctors, func() error { return renderDoctorChart(d.renderer, snap.Summary) }},
		{MountDoctorTable, func() error { return renderDoctorTable(d.renderer, snap.Doctors.Doctors) }},
	}

	var errs []error
	for _, r := range renders {
		if err := d.safeRender(r.mount, r.fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// safeRender calls fn with panic recovery. A panic is logged with its stack
// and a correlation ID and returned as an error carrying the same ID.
func (d *Dashboard) safeRender(mount string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			d.logger.Error("renderer panic",
				"correlation_id", correlationID,
				"mount", mount,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("renderer panic on %s (correlation_id: %s)", mount, correlationID)
		}
	}()
	return fn()
}

// finish records the tick in the store and runs the tick callbacks.
func (d *Dashboard) finish(result TickResult) {
	d.store.RecordTick(result.StartedAt, result.Err)
	for _, cb := range d.tickCallbacks {
		invokeCallbackSafe(cb, result, d.logger)
	}
}

// invokeCallbackSafe calls a tick callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb func(TickResult), result TickResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tick callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(result)
}

// PollingInterval returns the configured interval between ticks.
func (d *Dashboard) PollingInterval() time.Duration {
	return d.pollingInterval
}

// Port returns the configured HTTP port for the dashboard server.
func (d *Dashboard) Port() int {
	return d.port
}

// FeedURL returns the absolute URL a feed is fetched from.
func (d *Dashboard) FeedURL(f Feed) string {
	return d.feedURLs[f]
}
