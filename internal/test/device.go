package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quickserve/dispatch/internal/agent/device"
)

// AudioPlayerStub counts alarm loop starts and stops.
type AudioPlayerStub struct {
	PlayErr error
	Playing atomic.Bool
	Plays   atomic.Int64
	Stops   atomic.Int64
}

func (s *AudioPlayerStub) PlayLoop() error {
	if s.PlayErr != nil {
		return s.PlayErr
	}
	s.Plays.Add(1)
	s.Playing.Store(true)
	return nil
}

func (s *AudioPlayerStub) Stop() {
	s.Stops.Add(1)
	s.Playing.Store(false)
}

// VibratorStub counts vibration pulses.
type VibratorStub struct {
	Err    error
	Pulses atomic.Int64
}

func (s *VibratorStub) Vibrate(time.Duration) error {
	if s.Err != nil {
		return s.Err
	}
	s.Pulses.Add(1)
	return nil
}

// NotifierStub records posted notifications.
type NotifierStub struct {
	Err error

	mu     sync.Mutex
	Titles []string
	Bodies []string
}

func (s *NotifierStub) Notify(title, body string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Titles = append(s.Titles, title)
	s.Bodies = append(s.Bodies, body)
	return nil
}

// WakeLockStub tracks how many locks are currently held.
type WakeLockStub struct {
	Err      error
	Held     atomic.Int64
	Acquired atomic.Int64
}

func (s *WakeLockStub) Acquire(context.Context) (device.ReleaseFunc, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.Acquired.Add(1)
	s.Held.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { s.Held.Add(-1) })
	}, nil
}

// LocationWatcherStub feeds scripted positions and tracks open watch handles.
type LocationWatcherStub struct {
	Err       error
	Open      atomic.Int64
	Watches   atomic.Int64
	positions chan device.Position
}

// NewLocationWatcherStub creates a watcher with a buffered feed channel.
func NewLocationWatcherStub() *LocationWatcherStub {
	return &LocationWatcherStub{positions: make(chan device.Position, 16)}
}

// Emit queues a position for the active watch.
func (s *LocationWatcherStub) Emit(pos device.Position) {
	s.positions <- pos
}

func (s *LocationWatcherStub) Watch(ctx context.Context, _ device.WatchOptions) (<-chan device.Position, device.CancelFunc, error) {
	if s.Err != nil {
		return nil, nil, s.Err
	}
	s.Watches.Add(1)
	s.Open.Add(1)

	out := make(chan device.Position)
	watchCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		for {
			select {
			case <-watchCtx.Done():
				return
			case pos := <-s.positions:
				select {
				case out <- pos:
				case <-watchCtx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			s.Open.Add(-1)
		})
	}
	return out, stop, nil
}
