package freshdesk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/helpdesk-metrics-backend/internal/infrastructure/metrics"
)

// SchedulerConfig bounds the shared outbound request quota.
type SchedulerConfig struct {
	// MaxInFlight is the maximum number of concurrently running requests.
	MaxInFlight int

	// MaxPerWindow is the maximum number of request starts within any
	// rolling Window.
	MaxPerWindow int

	// Window is the rolling quota window.
	Window time.Duration
}

// DefaultSchedulerConfig matches the remote plan's shared per-minute quota.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxInFlight:  5,
		MaxPerWindow: 10,
		Window:       time.Second,
	}
}

// Scheduler admits queued outbound requests in FIFO order such that at most
// MaxInFlight run concurrently and at most MaxPerWindow start within any
// rolling Window. A global backoff deadline, armed when the remote service
// signals overload, pauses the whole queue: the quota is shared, so a
// rate-limit response must not be absorbed by the offending request alone.
//
// The scheduler never drops or fails a request on its own account; it only
// delays admission. Request failures propagate to the caller unmodified.
type Scheduler struct {
	mu           sync.Mutex
	maxInFlight  int
	maxPerWindow int
	window       time.Duration

	inFlight     int
	starts       []time.Time
	backoffUntil time.Time
	queue        []*waiter

	// redispatchAt tracks the earliest pending wake-up so state changes
	// don't stack duplicate timers.
	redispatchAt time.Time

	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Acquisition
}

type waiter struct {
	ready    chan struct{}
	admitted bool
}

// NewScheduler creates a scheduler for the given quota.
func NewScheduler(cfg SchedulerConfig, logger *slog.Logger, m *metrics.Acquisition) *Scheduler {
	if cfg.MaxInFlight < 1 {
		cfg.MaxInFlight = 1
	}
	if cfg.MaxPerWindow < 1 {
		cfg.MaxPerWindow = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	return &Scheduler{
		maxInFlight:  cfg.MaxInFlight,
		maxPerWindow: cfg.MaxPerWindow,
		window:       cfg.Window,
		now:          time.Now,
		logger:       logger.With("component", "request_scheduler"),
		metrics:      m,
	}
}

// Run admits fn under the shared quota, blocking until a slot is available
// or ctx is done. fn's error is returned unmodified.
func (s *Scheduler) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn(ctx)
}

// SetGlobalBackoff pauses admission of all pending and future requests for
// seconds+1 from now. Called on receipt of a quota-exceeded response; the
// extra second absorbs clock skew against the remote window.
func (s *Scheduler) SetGlobalBackoff(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until := s.now().Add(time.Duration(seconds+1) * time.Second)
	if until.After(s.backoffUntil) {
		s.backoffUntil = until
		s.metrics.RecordGlobalBackoff()
		s.logger.Warn("global backoff armed",
			"seconds", seconds+1,
			"queued", len(s.queue),
		)
	}
}

// QueueLength returns the number of requests waiting for admission.
func (s *Scheduler) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Scheduler) acquire(ctx context.Context) error {
	w := &waiter{ready: make(chan struct{})}

	s.mu.Lock()
	s.queue = append(s.queue, w)
	s.dispatchLocked()
	s.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		s.abandon(w)
		return ctx.Err()
	}
}

// abandon removes a cancelled waiter. Admission may have raced the
// cancellation; in that case the slot it was granted is released.
func (s *Scheduler) abandon(w *waiter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.admitted {
		s.inFlight--
		s.dispatchLocked()
		return
	}
	for i, queued := range s.queue {
		if queued == w {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.inFlight--
	s.dispatchLocked()
	s.mu.Unlock()
}

// dispatchLocked admits queue heads while quota allows, and otherwise arms
// a wake-up for the moment the next constraint clears. Admission is a
// self-rescheduling check rather than a fixed-interval poll.
func (s *Scheduler) dispatchLocked() {
	now := s.now()
	s.pruneLocked(now)

	for len(s.queue) > 0 {
		if s.inFlight >= s.maxInFlight {
			// A release will re-dispatch.
			return
		}
		if delay := s.admissionDelayLocked(now); delay > 0 {
			s.armRedispatchLocked(now, delay)
			return
		}

		w := s.queue[0]
		s.queue = s.queue[1:]
		s.inFlight++
		s.starts = append(s.starts, now)
		w.admitted = true
		close(w.ready)

		s.logger.Debug("request admitted",
			"in_flight", s.inFlight,
			"queued", len(s.queue),
		)
	}
}

// admissionDelayLocked returns how long the queue head must wait, or zero
// when it can start now.
func (s *Scheduler) admissionDelayLocked(now time.Time) time.Duration {
	if now.Before(s.backoffUntil) {
		return s.backoffUntil.Sub(now)
	}
	if len(s.starts) >= s.maxPerWindow {
		oldest := s.starts[len(s.starts)-s.maxPerWindow]
		return oldest.Add(s.window).Sub(now)
	}
	return 0
}

func (s *Scheduler) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	kept := s.starts[:0]
	for _, t := range s.starts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.starts = kept
}

func (s *Scheduler) armRedispatchLocked(now time.Time, delay time.Duration) {
	wakeAt := now.Add(delay)
	if !s.redispatchAt.IsZero() && !s.redispatchAt.After(wakeAt) && s.redispatchAt.After(now) {
		return
	}
	s.redispatchAt = wakeAt
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		s.redispatchAt = time.Time{}
		s.dispatchLocked()
		s.mu.Unlock()
	})
}
