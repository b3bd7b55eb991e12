package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/quickserve/dispatch/internal/agent/device"
)

// Headless stand-ins for the platform capabilities: alarms and locks become
// log lines, GPS becomes a random walk from a start coordinate.

type consoleAudio struct{ log *slog.Logger }

func (a consoleAudio) PlayLoop() error {
	a.log.Info("alarm audio looping")
	return nil
}

func (a consoleAudio) Stop() {
	a.log.Info("alarm audio stopped")
}

type consoleVibrator struct{ log *slog.Logger }

func (v consoleVibrator) Vibrate(d time.Duration) error {
	v.log.Debug("bzzt", slog.Duration("for", d))
	return nil
}

type consoleNotifier struct{ log *slog.Logger }

func (n consoleNotifier) Notify(title, body string) error {
	n.log.Info("notification", slog.String("title", title), slog.String("body", body))
	return nil
}

type consoleWakeLock struct{ log *slog.Logger }

func (w consoleWakeLock) Acquire(context.Context) (device.ReleaseFunc, error) {
	w.log.Debug("wake-lock acquired")
	return func() { w.log.Debug("wake-lock released") }, nil
}

type simulatedGPS struct {
	lat float64
	lng float64
}

func newSimulatedGPS(lat, lng float64) *simulatedGPS {
	return &simulatedGPS{lat: lat, lng: lng}
}

func (g *simulatedGPS) Watch(ctx context.Context, opts device.WatchOptions) (<-chan device.Position, device.CancelFunc, error) {
	out := make(chan device.Position)
	watchCtx, cancel := context.WithCancel(ctx)

	cadence := opts.MaxAge
	if cadence <= 0 {
		cadence = 5 * time.Second
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(cadence)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				g.lat += (rand.Float64() - 0.5) * 0.001
				g.lng += (rand.Float64() - 0.5) * 0.001
				select {
				case out <- device.Position{Lat: g.lat, Lng: g.lng, At: time.Now()}:
				case <-watchCtx.Done():
					return
				}
			}
		}
	}()

	return out, device.CancelFunc(cancel), nil
}
