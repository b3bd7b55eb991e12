package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SignalSweeper exposes the subset of application functionality required by
// the sweeper.
type SignalSweeper interface {
	SweepSignals(ctx context.Context) (int64, error)
}

// RetentionSweeper periodically prunes payment signals past the retention
// window. Orders are never touched.
type RetentionSweeper struct {
	facade   SignalSweeper
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewRetentionSweeper constructs the sweeper.
func NewRetentionSweeper(facade SignalSweeper, interval time.Duration, logger *slog.Logger) *RetentionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RetentionSweeper{
		facade:   facade,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the background sweep loop.
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop waits for the loop to finish.
func (s *RetentionSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *RetentionSweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionSweeper) sweep(ctx context.Context) {
	removed, err := s.facade.SweepSignals(ctx)
	if err != nil {
		s.logger.Error("signal sweep failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		s.logger.Info("signal sweep done", slog.Int64("removed", removed))
	}
}
