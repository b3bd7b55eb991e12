package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quickserve/dispatch/internal/agent/device"
)

// ErrSessionActive is returned when a second session is started for a
// different order. One session per device.
var ErrSessionActive = errors.New("tracking session already active")

// Pusher reports a rider fix to the backend.
type Pusher interface {
	PushLocation(ctx context.Context, orderID string, lat, lng float64) error
}

// SessionManager owns the single tracking session of a rider device: the
// platform watch handle, the tracking wake-lock, and the push loop. Delivery
// completion, logout, and teardown all funnel into the same idempotent Stop.
type SessionManager struct {
	pusher  Pusher
	watcher device.LocationWatcher
	wake    device.WakeLocker
	logger  *slog.Logger
	opts    device.WatchOptions

	mu         sync.Mutex
	orderID    string
	stopWatch  device.CancelFunc
	release    device.ReleaseFunc
	lastUpdate time.Time
	wg         sync.WaitGroup
}

// NewSessionManager constructs an idle manager with delivery watch options.
func NewSessionManager(pusher Pusher, watcher device.LocationWatcher, wake device.WakeLocker, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		pusher:  pusher,
		watcher: watcher,
		wake:    wake,
		logger:  logger,
		opts:    device.DefaultWatchOptions(),
	}
}

// Start opens a tracking session for the order. Starting the same order twice
// is a no-op; a different order while one is active is refused. The wake-lock
// is best-effort: denial is logged and tracking proceeds without it.
func (m *SessionManager) Start(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.orderID == orderID && m.stopWatch != nil {
		return nil
	}
	if m.orderID != "" {
		return fmt.Errorf("order %s: %w", m.orderID, ErrSessionActive)
	}

	var release device.ReleaseFunc
	if m.wake != nil {
		var err error
		release, err = m.wake.Acquire(ctx)
		if err != nil {
			m.logger.Warn("tracking wake-lock denied", slog.String("error", err.Error()))
			release = nil
		}
	}

	positions, cancel, err := m.watcher.Watch(ctx, m.opts)
	if err != nil {
		if release != nil {
			release()
		}
		return fmt.Errorf("open location watch: %w", err)
	}

	m.orderID = orderID
	m.stopWatch = cancel
	m.release = release

	m.wg.Add(1)
	go m.consume(ctx, orderID, positions)
	return nil
}

// Stop closes the watch, releases the wake-lock, and clears session state.
// Safe to call any number of times from any call site.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	if m.stopWatch != nil {
		m.stopWatch()
		m.stopWatch = nil
	}
	if m.release != nil {
		m.release()
		m.release = nil
	}
	m.orderID = ""
	m.mu.Unlock()

	m.wg.Wait()
}

// Active returns the tracked order id, if a session is open.
func (m *SessionManager) Active() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderID, m.orderID != ""
}

// LastUpdate is the arrival time of the most recent fix.
func (m *SessionManager) LastUpdate() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUpdate
}

// consume forwards fixes to the backend. Pushes are fire-and-forget: a failed
// push is logged and the stream keeps going, a missed update is acceptable
// where a stalled stream is not.
func (m *SessionManager) consume(ctx context.Context, orderID string, positions <-chan device.Position) {
	defer m.wg.Done()
	for pos := range positions {
		m.mu.Lock()
		m.lastUpdate = time.Now()
		m.mu.Unlock()

		if err := m.pusher.PushLocation(ctx, orderID, pos.Lat, pos.Lng); err != nil {
			m.logger.Warn("location push failed",
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
		}
	}
}
