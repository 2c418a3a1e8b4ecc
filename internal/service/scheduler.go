package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/logger"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
)

// Scheduler fires RunToday once per day at midnight in its configured time
// zone. It is an owned object with an explicit Start/Stop lifecycle rather
// than process-global timer state, so it can be tested without a live timer.
type Scheduler struct {
	gen Generation
	log *logger.Logger
	loc *time.Location

	mu       sync.Mutex
	running  bool
	nextFire time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(gen Generation, loc *time.Location, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		gen: gen,
		log: log.Named("scheduler"),
		loc: loc,
	}
}

// Start launches the timer loop. Calling Start on a running scheduler is a
// no-op. The loop stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(loopCtx)
}

// Stop halts the timer loop and waits for it to exit. A generation run
// already in flight completes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Running reports whether the timer loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextFire returns when the timer will next trigger, zero if not running.
func (s *Scheduler) NextFire() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	return s.nextFire
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	for {
		next := NextMidnight(time.Now().In(s.loc))
		s.mu.Lock()
		s.nextFire = next
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	summary, err := s.gen.RunToday(ctx, models.TriggerTimer)
	switch {
	case errors.Is(err, ErrRunInProgress):
		// A manual or backfill run holds the lock; the overlapping timer
		// trigger is dropped, not queued.
		s.log.Warnw("timer trigger rejected, run already in progress")
	case err != nil:
		s.log.Errorw("scheduled run failed", "err", err)
	default:
		s.log.Infow("scheduled run complete",
			"generated", summary.Generated,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
		)
	}
}

// NextMidnight returns 00:00 of the day after now, in now's location.
func NextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
