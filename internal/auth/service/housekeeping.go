package service

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Pruner is implemented by anything holding entries that become irrelevant
// once time passes them by.
type Pruner interface {
	PruneRevoked(now time.Time) int
}

// HousekeepingService periodically drops revocations whose tokens have
// expired anyway, bounding the memory held by the revocation set.
type HousekeepingService struct {
	Pruner   Pruner
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(p Pruner, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Pruner:   p,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	s.started.Store(true)
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker and blocks until any in-progress cleanup ends.
// It may be called more than once, and before Start.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.started.Load() {
			<-s.doneCh
		}
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs a single pruning pass.
func (s *HousekeepingService) Cleanup() int {
	n := s.Pruner.PruneRevoked(s.Now())
	s.Logger.Debug("housekeeping cleanup completed", "pruned_revocations", n)
	return n
}
