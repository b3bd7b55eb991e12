package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quickserve/dispatch/internal/agent/device"
	"github.com/quickserve/dispatch/internal/agent/poll"
)

// State is the alert engine standby/alarm state.
type State string

const (
	StateDisarmed     State = "disarmed"
	StateArmedIdle    State = "armed_idle"
	StateArmedRinging State = "armed_ringing"
)

const vibrationInterval = 2 * time.Second

// Devices groups the platform capabilities the engine rings through. Every
// field is optional and fallible; a missing or failing capability degrades the
// alarm (visual-only, silent) instead of breaking it.
type Devices struct {
	Audio    device.AudioPlayer
	Vibrator device.Vibrator
	Notifier device.Notifier
	WakeLock device.WakeLocker
}

// Engine turns new-order events into a persistent, acknowledgeable alarm.
// Ringing never self-clears: a human must acknowledge it. The engine holds its
// own wake-lock while ringing, independent of the tracking session's lock.
type Engine struct {
	devices  Devices
	logger   *slog.Logger
	interval time.Duration

	mu          sync.Mutex
	state       State
	release     device.ReleaseFunc
	stopVibe    context.CancelFunc
	vibeDone    sync.WaitGroup
	lastAckedAt time.Time
}

// NewEngine creates a disarmed engine.
func NewEngine(devices Devices, logger *slog.Logger) *Engine {
	return &Engine{
		devices:  devices,
		logger:   logger,
		interval: vibrationInterval,
		state:    StateDisarmed,
	}
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Arm enters standby. A no-op when already armed or ringing.
func (e *Engine) Arm() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisarmed {
		e.state = StateArmedIdle
	}
}

// Trigger starts the alarm for a new-order event. Ignored unless the engine
// is armed and idle; an already-ringing alarm keeps ringing.
func (e *Engine) Trigger(event poll.NewOrders) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateArmedIdle {
		return
	}
	e.state = StateArmedRinging
	e.startAlarmLocked(event)
}

// Acknowledge stops the alarm but keeps standby armed. Idempotent when
// already idle. The tracking wake-lock is a separate handle and stays held.
func (e *Engine) Acknowledge() {
	e.mu.Lock()
	if e.state != StateArmedRinging {
		e.mu.Unlock()
		return
	}
	e.state = StateArmedIdle
	e.lastAckedAt = time.Now()
	e.stopAlarmLocked()
	e.mu.Unlock()

	e.vibeDone.Wait()
}

// Disarm leaves standby, stopping any alarm artifacts. Idempotent.
func (e *Engine) Disarm() {
	e.mu.Lock()
	e.state = StateDisarmed
	e.stopAlarmLocked()
	e.mu.Unlock()

	e.vibeDone.Wait()
}

func (e *Engine) startAlarmLocked(event poll.NewOrders) {
	if e.devices.Audio != nil {
		if err := e.devices.Audio.PlayLoop(); err != nil {
			e.logger.Warn("alarm audio unavailable", slog.String("error", err.Error()))
		}
	}

	if e.devices.Notifier != nil {
		if err := e.devices.Notifier.Notify("New delivery order", headline(event)); err != nil {
			e.logger.Warn("notification failed", slog.String("error", err.Error()))
		}
	}

	if e.devices.WakeLock != nil {
		release, err := e.devices.WakeLock.Acquire(context.Background())
		if err != nil {
			e.logger.Warn("alarm wake-lock denied", slog.String("error", err.Error()))
		} else {
			e.release = release
		}
	}

	if e.devices.Vibrator != nil {
		vibeCtx, cancel := context.WithCancel(context.Background())
		e.stopVibe = cancel
		e.vibeDone.Add(1)
		go e.vibrate(vibeCtx)
	}
}

func (e *Engine) stopAlarmLocked() {
	if e.devices.Audio != nil {
		e.devices.Audio.Stop()
	}
	if e.stopVibe != nil {
		e.stopVibe()
		e.stopVibe = nil
	}
	if e.release != nil {
		e.release()
		e.release = nil
	}
}

// vibrate re-issues the one-shot platform vibration until stopped.
func (e *Engine) vibrate(ctx context.Context) {
	defer e.vibeDone.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.buzz()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.buzz()
		}
	}
}

func (e *Engine) buzz() {
	if err := e.devices.Vibrator.Vibrate(time.Second); err != nil {
		e.logger.Warn("vibration failed", slog.String("error", err.Error()))
	}
}

func headline(event poll.NewOrders) string {
	if event.Sample != nil {
		sample := event.Sample
		if sample.CustomerName != "" {
			return fmt.Sprintf("%s · %.2f", sample.CustomerName, sample.Total)
		}
		return fmt.Sprintf("order %s · %.2f", sample.ID, sample.Total)
	}
	if event.Delta == 1 {
		return "1 new order waiting"
	}
	return fmt.Sprintf("%d new orders waiting", event.Delta)
}
