package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/agenthub-labs/agenthub/internal/config"
)

// RepoSource supplies the current subscription list on each tick, so
// catalogs added or removed between ticks are picked up.
type RepoSource func() ([]config.Repository, error)

// Scheduler refreshes all subscribed catalogs on a fixed interval.
type Scheduler struct {
	engine   *Engine
	repos    RepoSource
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler returns a stopped Scheduler.
func NewScheduler(engine *Engine, repos RepoSource, interval time.Duration) *Scheduler {
	return &Scheduler{
		engine:   engine,
		repos:    repos,
		interval: interval,
		logger:   engine.logger,
	}
}

// Start begins periodic refreshes. Starting a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.logger.Info("catalog refresh scheduler started", "interval", s.interval)
}

// Stop halts the scheduler and waits for an in-progress cycle to
// finish. Stopping a stopped scheduler is a no-op.
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
	s.logger.Info("catalog refresh scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	repos, err := s.repos()
	if err != nil {
		s.logger.Error("loading subscriptions for scheduled refresh", "error", err)
		return
	}
	if errs := s.engine.RefreshAll(ctx, repos); len(errs) > 0 {
		s.logger.Warn("scheduled refresh finished with errors", "failed", len(errs))
	}
}
