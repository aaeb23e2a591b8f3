package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler owns the single recurring polling timer. Cycles run
// synchronously inside its loop, so no two cycles of the same engine can
// ever overlap. Reschedule changes the cadence and triggers a prompt run
// instead of waiting out the old period.
type Scheduler struct {
	run    func(context.Context)
	logger *slog.Logger

	mu       sync.Mutex
	interval time.Duration

	kick   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler that invokes run every interval.
func NewScheduler(interval time.Duration, run func(context.Context), logger *slog.Logger) *Scheduler {
	return &Scheduler{
		run:      run,
		logger:   logger,
		interval: interval,
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start launches the timer loop. It returns immediately; the first run
// happens after one interval unless Kick is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.currentInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-s.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		s.run(ctx)

		if ctx.Err() != nil {
			return
		}
		timer.Reset(s.currentInterval())
	}
}

// Kick triggers a prompt run without changing the cadence.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Reschedule changes the cadence and triggers a prompt run, replacing the
// pending timer rather than letting the old period elapse.
func (s *Scheduler) Reschedule(interval time.Duration) {
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()

	s.logger.Info("polling rescheduled", "interval", interval)
	s.Kick()
}

// Stop cancels the loop and waits for any in-flight cycle to return.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) currentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}
