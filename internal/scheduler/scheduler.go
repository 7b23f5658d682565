package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/dispatch"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

type Config struct {
	Enabled bool
	// PollInterval is the due-record scan interval. 0 means the default (30s).
	PollInterval time.Duration
}

// Service is the reminder scan loop: every tick it pops due records, hands
// each to the dispatcher, and removes them regardless of delivery outcome.
//
// A single worker consumes ticks, so one poll-and-dispatch pass always
// completes before the next begins; a tick that fires mid-pass is coalesced
// rather than stacked.
type Service struct {
	cfg   Config
	log   logx.Logger
	store storage.Store
	disp  *dispatch.Dispatcher

	mu     sync.Mutex
	c      *cron.Cron
	ticks  chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(cfg Config, store storage.Store, disp *dispatch.Dispatcher, log logx.Logger) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, log: log, store: store, disp: disp}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Start launches the loop. The first tick is deferred until ready fires
// (the transport adapter closes it once its session is established).
func (s *Service) Start(ctx context.Context, ready <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})
	s.ticks = make(chan struct{}, 1)

	stopCh := s.stopCh
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ready:
		}

		s.mu.Lock()
		if s.stopCh != stopCh {
			s.mu.Unlock()
			return
		}
		s.c = cron.New()
		_, _ = s.c.AddFunc("@every "+s.cfg.PollInterval.String(), s.enqueueTick)
		s.c.Start()
		s.mu.Unlock()

		s.log.Info("scheduler started", logx.Duration("interval", s.cfg.PollInterval))

		// Scan immediately once ready; anything that came due while the
		// session was down fires now instead of one interval later.
		s.enqueueTick()
		s.worker(ctx, stopCh)
	}()
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if c != nil {
		// Let an in-flight cron dispatch finish.
		<-c.Stop().Done()
	}

	// Wait for the worker; an in-flight tick is allowed to complete so we
	// never abandon a half-dispatched batch.
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out waiting for tick")
	case <-done:
		s.log.Info("scheduler stopped")
	}
}

// enqueueTick requests a tick without blocking. A full buffer means a tick
// is already pending, which makes a second request redundant.
func (s *Service) enqueueTick() {
	s.mu.Lock()
	ticks := s.ticks
	s.mu.Unlock()
	if ticks == nil {
		return
	}
	select {
	case ticks <- struct{}{}:
	default:
	}
}

func (s *Service) worker(ctx context.Context, stopCh <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-s.ticks:
			s.tick(ctx)
		}
	}
}

// tick runs one poll-and-dispatch pass. Store trouble aborts the pass; the
// next tick retries normally. Delivery outcomes never block removal.
func (s *Service) tick(ctx context.Context) {
	// A pass that has started must complete even if the run context is
	// canceled mid-tick: deliveries before removals, or a record is
	// removed without ever being sent. Each delivery stays bounded by the
	// dispatcher's own timeout.
	ctx = context.WithoutCancel(ctx)

	now := time.Now()
	due, err := s.store.PopDue(ctx, now)
	if err != nil {
		s.log.Warn("due scan failed, tick aborted", logx.Err(err))
		return
	}
	if len(due) == 0 {
		return
	}

	s.log.Debug("dispatching due reminders", logx.Int("count", len(due)))
	for _, r := range due {
		_ = s.disp.Deliver(ctx, r)
		if err := s.store.Remove(ctx, r.ID); err != nil {
			// The record stays behind and will be re-dispatched next
			// tick; at-least-once allows that.
			s.log.Warn("failed to remove dispatched reminder", logx.Int64("id", r.ID), logx.Err(err))
		}
	}
}
