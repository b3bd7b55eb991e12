package device

import (
	"context"
	"time"
)

// Position is a single fix delivered by the platform location service.
type Position struct {
	Lat float64
	Lng float64
	At  time.Time
}

// WatchOptions tune a continuous location watch.
type WatchOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

// DefaultWatchOptions returns the settings used for delivery tracking.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		HighAccuracy: true,
		Timeout:      15 * time.Second,
		MaxAge:       5 * time.Second,
	}
}

// CancelFunc stops a running watch and releases its platform handle.
type CancelFunc func()

// LocationWatcher opens a continuous position stream. Fixes arrive on the
// returned channel at the platform's own cadence; the channel is closed when
// the watch is cancelled or the platform ends the stream.
type LocationWatcher interface {
	Watch(ctx context.Context, opts WatchOptions) (<-chan Position, CancelFunc, error)
}

// AudioPlayer loops an alarm sound until stopped.
type AudioPlayer interface {
	PlayLoop() error
	Stop()
}

// Vibrator issues a one-shot vibration. Platform calls do not repeat on their
// own, so callers re-issue on a timer for a sustained pattern.
type Vibrator interface {
	Vibrate(d time.Duration) error
}

// Notifier posts a best-effort OS notification.
type Notifier interface {
	Notify(title, body string) error
}

// ReleaseFunc releases a previously acquired wake-lock.
type ReleaseFunc func()

// WakeLocker keeps the device screen awake until the returned release func is
// called. Acquisition is fallible; callers treat failure as a degraded
// feature, not an error path.
type WakeLocker interface {
	Acquire(ctx context.Context) (ReleaseFunc, error)
}
