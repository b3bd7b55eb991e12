package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quickserve/dispatch/internal/agent/alert"
	"github.com/quickserve/dispatch/internal/agent/api"
	"github.com/quickserve/dispatch/internal/agent/rider"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/logger"
)

func main() {
	serverURL := flag.String("server", envOr("DISPATCH_ADDRESS", "http://localhost:8080"), "dispatchd base URL")
	phone := flag.String("phone", os.Getenv("RIDER_PHONE"), "rider phone")
	pin := flag.String("pin", os.Getenv("RIDER_PIN"), "rider PIN")
	interval := flag.Duration("poll", 5*time.Second, "poll interval")
	deliverAfter := flag.Duration("deliver-after", 30*time.Second, "simulated travel time before marking delivered")
	flag.Parse()

	log := logger.New()
	if *phone == "" || *pin == "" {
		fmt.Fprintln(os.Stderr, "riderd: -phone and -pin are required")
		os.Exit(2)
	}

	client, err := api.NewHTTPClient(*serverURL, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riderd: %v\n", err)
		os.Exit(1)
	}

	agent := rider.NewAgent(client, rider.Options{
		PollInterval: *interval,
		Alert: alert.Devices{
			Audio:    consoleAudio{log},
			Vibrator: consoleVibrator{log},
			Notifier: consoleNotifier{log},
			WakeLock: consoleWakeLock{log},
		},
		Watcher:      newSimulatedGPS(13.7563, 100.5018),
		TrackingLock: consoleWakeLock{log},
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent.Start(ctx)
	defer agent.Shutdown()

	if err := agent.Login(ctx, *phone, *pin); err != nil {
		fmt.Fprintf(os.Stderr, "riderd: login failed: %v\n", err)
		os.Exit(1)
	}

	runDeliveryLoop(ctx, agent, *interval, *deliverAfter, log)

	logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := agent.Logout(logoutCtx); err != nil {
		log.Warn("logout failed", slog.String("error", err.Error()))
	}
}

// runDeliveryLoop drives a simple headless rider: acknowledge alarms, take
// the first startable order, travel, deliver, repeat.
func runDeliveryLoop(ctx context.Context, agent *rider.Agent, interval, deliverAfter time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deliveringSince time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if agent.AlertState() == alert.StateArmedRinging {
			log.Info("alarm acknowledged")
			agent.Acknowledge()
		}

		if current, ok := agent.Tracking().Active(); ok {
			if time.Since(deliveringSince) >= deliverAfter {
				if err := agent.MarkDelivered(ctx, current, nil, nil); err != nil {
					log.Warn("deliver failed", slog.String("order_id", current), slog.String("error", err.Error()))
				} else {
					log.Info("order delivered", slog.String("order_id", current))
				}
			}
			continue
		}

		for _, order := range agent.Orders() {
			if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusConfirmed {
				continue
			}
			if err := agent.StartDelivery(ctx, order.ID); err != nil {
				log.Warn("start delivery failed", slog.String("order_id", order.ID), slog.String("error", err.Error()))
				continue
			}
			deliveringSince = time.Now()
			log.Info("delivery started", slog.String("order_id", order.ID))
			break
		}
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
