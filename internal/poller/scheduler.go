package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// TickFunc performs one fetch-and-render cycle.
type TickFunc func(ctx context.Context)

// Scheduler runs a [TickFunc] immediately and then on a fixed interval.
//
// Ticks never overlap: if the ticker fires while the previous tick is still
// running, the new tick is skipped and counted rather than queued. The
// interval has no jitter and there is no backoff; every tick is independent.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	tick     TickFunc
	logger   *slog.Logger
	onSkip   func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	inFlight atomic.Bool
	skipped  atomic.Uint64
}

// NewScheduler creates a new [Scheduler].
//
// onSkip, if non-nil, is called every time a tick is skipped because the
// previous one had not settled.
func NewScheduler(interval time.Duration, tick TickFunc, onSkip func(), logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		tick:     tick,
		onSkip:   onSkip,
		logger:   logger,
	}
}

// Start begins the tick loop in a background goroutine.
//
// Start is non-blocking. The first tick runs immediately, then one tick per
// interval until [Scheduler.Stop] is called or ctx is cancelled.
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	loopCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		s.trigger(loopCtx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.trigger(loopCtx)
			}
		}
	}()
}

// Stop halts the scheduler and waits for the loop and any in-flight tick to
// finish.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Skipped returns how many ticks were dropped because a previous tick was
// still in flight.
func (s *Scheduler) Skipped() uint64 {
	return s.skipped.Load()
}

// trigger starts a tick unless one is already running.
//
// The tick runs on its own goroutine so a slow tick does not shift the
// ticker's cadence.
func (s *Scheduler) trigger(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		n := s.skipped.Add(1)
		s.logger.Debug("tick skipped, previous tick still in flight", "skipped_total", n)
		if s.onSkip != nil {
			s.onSkip()
		}
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)
		s.tick(ctx)
	}()
}
