package app

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/a11yscan/internal/logging"
)

// DueRunner runs every scan whose schedule has passed.
type DueRunner interface {
	RunExpiredScans(ctx context.Context) error
}

// Scheduler polls for due schedules at a fixed interval.
type Scheduler struct {
	runner   DueRunner
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(runner DueRunner, interval time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.With(logging.Field{Key: "component", Value: "scheduler"}),
	}
}

// Start launches the polling loop. It is a no-op when the interval is not
// positive or the loop already runs.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}(s.done)
}

// Tick runs due scans once.
func (s *Scheduler) Tick(ctx context.Context) {
	s.logger.Debug("checking scheduled scans")
	if err := s.runner.RunExpiredScans(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("scheduled scan sweep failed", logging.Field{Key: "error", Value: err})
	}
}

// Stop ends the loop and waits for an in-flight sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
