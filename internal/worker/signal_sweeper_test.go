package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type sweepStub struct {
	calls   int32
	removed int64
	err     error
}

func (s *sweepStub) SweepSignals(context.Context) (int64, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.removed, s.err
}

func TestNewRetentionSweeperDefaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	sweeper := NewRetentionSweeper(&sweepStub{}, 0, logger)
	if sweeper.interval != time.Minute {
		t.Fatalf("expected default interval, got %v", sweeper.interval)
	}
}

func TestRetentionSweeperSweeps(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	stub := &sweepStub{removed: 2}
	sweeper := NewRetentionSweeper(stub, 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

	deadline := time.After(500 * time.Millisecond)
	for atomic.LoadInt32(&stub.calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for sweep")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sweeper.Stop()
}

func TestRetentionSweeperStopIsIdempotent(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	sweeper := NewRetentionSweeper(&sweepStub{err: errors.New("boom")}, 5*time.Millisecond, logger)

	sweeper.Start(context.Background())
	sweeper.Stop()
	sweeper.Stop()
}
