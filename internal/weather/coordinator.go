package weather

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/xyzmos/hass-weather-baidu/internal/baidu"
)

// Coordinator owns the single snapshot of one configured instance and
// refreshes it on a fixed interval. It is the only writer; entity views
// are readers and never mutate the snapshot.
type Coordinator struct {
	log      *logrus.Entry
	source   Source
	interval time.Duration

	mu          sync.RWMutex
	snap        *Snapshot
	available   bool
	needsReauth bool
	lastErr     error

	runMu  sync.Mutex
	sched  *gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator creates a coordinator polling the given source.
func NewCoordinator(log *logrus.Entry, source Source, interval time.Duration) *Coordinator {
	return &Coordinator{
		log:      log,
		source:   source,
		interval: interval,
	}
}

// FirstRefresh performs the initial poll. Setup must not proceed when it
// fails; the caller distinguishes auth failures (permanent) from the rest
// (retryable later).
func (c *Coordinator) FirstRefresh(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}
	return nil
}

// Start schedules periodic polling. The singleton job guarantees at most
// one in-flight poll; the timer does not re-enter while one is
// outstanding.
func (c *Coordinator) Start() error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.sched != nil {
		return nil
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(int(c.interval.Seconds())).Seconds().SingletonMode().Do(c.poll)
	if err != nil {
		c.cancel()
		c.ctx, c.cancel = nil, nil
		return err
	}
	s.StartAsync()
	c.sched = s
	return nil
}

// Stop cancels the schedule. An in-flight request is abandoned via
// context cancellation without retry. The scheduler is stopped outside
// runMu: gocron's Stop waits for running jobs, and poll takes runMu to
// read its context, so holding the lock here would deadlock teardown.
func (c *Coordinator) Stop() {
	c.runMu.Lock()
	sched := c.sched
	cancel := c.cancel
	c.sched = nil
	c.ctx, c.cancel = nil, nil
	c.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sched != nil {
		sched.Stop()
	}
}

// Reschedule applies a new poll interval. A running schedule is replaced.
func (c *Coordinator) Reschedule(interval time.Duration) error {
	c.runMu.Lock()
	running := c.sched != nil
	c.runMu.Unlock()

	if running {
		c.Stop()
	}

	c.runMu.Lock()
	c.interval = interval
	c.runMu.Unlock()

	if running {
		return c.Start()
	}
	return nil
}

func (c *Coordinator) poll() {
	c.runMu.Lock()
	ctx := c.ctx
	c.runMu.Unlock()
	if ctx == nil {
		return
	}

	if err := c.refresh(ctx); err != nil {
		c.log.WithError(err).Warn("poll failed; keeping last good snapshot")
		return
	}
	c.log.Debug("snapshot updated")
}

// refresh performs one fetch and publishes the result. A failed fetch is a
// transient poll failure: the last good snapshot stays published and the
// instance is marked unavailable.
func (c *Coordinator) refresh(ctx context.Context) error {
	res, err := c.source.Observe(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.available = false
		c.lastErr = err
		if baidu.IsAuthError(err) {
			c.needsReauth = true
		}
		return err
	}

	c.snap = newSnapshot(res, time.Now())
	c.available = true
	c.needsReauth = false
	c.lastErr = nil
	return nil
}

// Snapshot returns the latest published snapshot (possibly stale) and
// whether the instance is currently available. The snapshot is read-only.
func (c *Coordinator) Snapshot() (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.available
}

// NeedsReauth reports whether a poll failed with an authentication error,
// which requires reconfiguration rather than waiting for the next tick.
func (c *Coordinator) NeedsReauth() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.needsReauth
}

// LastError returns the error of the most recent failed poll, or nil.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Interval returns the current poll interval.
func (c *Coordinator) Interval() time.Duration {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.interval
}
