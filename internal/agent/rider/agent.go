package rider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quickserve/dispatch/internal/agent/alert"
	"github.com/quickserve/dispatch/internal/agent/api"
	"github.com/quickserve/dispatch/internal/agent/device"
	"github.com/quickserve/dispatch/internal/agent/gate"
	"github.com/quickserve/dispatch/internal/agent/poll"
	"github.com/quickserve/dispatch/internal/agent/tracking"
	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
)

// Options configure the composed rider agent.
type Options struct {
	PollInterval time.Duration
	Alert        alert.Devices
	Watcher      device.LocationWatcher
	TrackingLock device.WakeLocker
}

// Agent composes the rider-device core: poller and detector, alert engine,
// tracking session, and verification gate over one backend client. Order
// statuses are held as an optimistic local projection; the backend stays the
// authority and every poll reconciles the projection against it.
type Agent struct {
	client  api.Client
	alerts  *alert.Engine
	tracker *tracking.SessionManager
	gate    *gate.VerificationGate
	poller  *poll.Poller
	logger  *slog.Logger

	mu      sync.Mutex
	online  bool
	riderID int64
	orders  map[string]model.DeliveryOrder
}

// NewAgent wires the client core. Call Start to begin polling; the loop idles
// until a successful Login opens the online gate.
func NewAgent(client api.Client, opts Options, logger *slog.Logger) *Agent {
	a := &Agent{
		client:  client,
		alerts:  alert.NewEngine(opts.Alert, logger),
		tracker: tracking.NewSessionManager(client, opts.Watcher, opts.TrackingLock, logger),
		gate:    gate.NewVerificationGate(client),
		logger:  logger,
		orders:  make(map[string]model.DeliveryOrder),
	}
	a.poller = poll.NewPoller(a, a.isOnline, a.onNewOrders, opts.PollInterval, logger)
	return a
}

// Start launches the poll loop.
func (a *Agent) Start(ctx context.Context) {
	a.poller.Start(ctx)
}

// Login authenticates the device, opens the online gate, and arms the alert
// engine for standby.
func (a *Agent) Login(ctx context.Context, phone, pin string) error {
	session, err := a.client.Login(ctx, phone, pin)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.riderID = session.RiderID
	a.online = true
	a.mu.Unlock()

	a.alerts.Arm()
	a.logger.Info("rider online", slog.Int64("rider_id", session.RiderID), slog.String("name", session.Name))
	return nil
}

// Logout is the composite cancel-all path: close the online gate, stop the
// tracking session, silence and disarm the alert engine, then tell the
// backend. Forgetting any one of these leaks a handle past session end, so
// callers get a single funnel instead of individual teardowns.
func (a *Agent) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.online = false
	a.orders = make(map[string]model.DeliveryOrder)
	a.mu.Unlock()

	a.tracker.Stop()
	a.alerts.Disarm()
	a.gate.Reset()
	return a.client.Logout(ctx)
}

// Shutdown tears the agent down without a backend round-trip.
func (a *Agent) Shutdown() {
	a.poller.Stop()
	a.tracker.Stop()
	a.alerts.Disarm()
}

// Acknowledge silences a ringing alarm, keeping standby armed.
func (a *Agent) Acknowledge() {
	a.alerts.Acknowledge()
}

// AlertState exposes the engine state for rendering.
func (a *Agent) AlertState() alert.State {
	return a.alerts.State()
}

// Gate returns the payment verification gate for checkout flows.
func (a *Agent) Gate() *gate.VerificationGate {
	return a.gate
}

// Tracking returns the tracking session manager.
func (a *Agent) Tracking() *tracking.SessionManager {
	return a.tracker
}

// Orders returns the current local projection of the backlog.
func (a *Agent) Orders() []model.DeliveryOrder {
	a.mu.Lock()
	defer a.mu.Unlock()
	orders := make([]model.DeliveryOrder, 0, len(a.orders))
	for _, o := range a.orders {
		orders = append(orders, o)
	}
	return orders
}

// Refresh fetches the backlog immediately, outside the poll cadence.
func (a *Agent) Refresh(ctx context.Context) error {
	_, err := a.ActiveOrders(ctx)
	return err
}

// StartDelivery moves an order to out_for_delivery and opens the tracking
// session. The transition is validated locally before any network call and
// rolled back if the backend refuses it.
func (a *Agent) StartDelivery(ctx context.Context, orderID string) error {
	if _, err := a.transition(ctx, orderID, model.OrderStatusOutForDelivery, nil, nil); err != nil {
		return err
	}
	if err := a.tracker.Start(ctx, orderID); err != nil {
		// Delivery proceeds untracked.
		a.logger.Warn("tracking unavailable", slog.String("order_id", orderID), slog.String("error", err.Error()))
	}
	return nil
}

// MarkDelivered completes the delivery, optionally attaching proof and slip
// blobs, and stops the tracking session.
func (a *Agent) MarkDelivered(ctx context.Context, orderID string, proofImageID, slipImageID *string) error {
	if _, err := a.transition(ctx, orderID, model.OrderStatusDelivered, proofImageID, slipImageID); err != nil {
		return err
	}
	a.tracker.Stop()
	return nil
}

// ActiveOrders implements poll.Fetcher. Each successful fetch replaces the
// local projection wholesale; that is the reconciliation rule for optimistic
// updates.
func (a *Agent) ActiveOrders(ctx context.Context) ([]model.DeliveryOrder, error) {
	orders, err := a.client.ActiveOrders(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.orders = make(map[string]model.DeliveryOrder, len(orders))
	for _, o := range orders {
		a.orders[o.ID] = o
	}
	a.mu.Unlock()
	return orders, nil
}

func (a *Agent) transition(ctx context.Context, orderID string, to model.OrderStatus, proofImageID, slipImageID *string) (*model.DeliveryOrder, error) {
	a.mu.Lock()
	prev, ok := a.orders[orderID]
	if !ok {
		a.mu.Unlock()
		return nil, fmt.Errorf("order %s: %w", orderID, domainErrors.ErrNotFound)
	}
	if !model.CanTransition(prev.Status, to) {
		a.mu.Unlock()
		return nil, fmt.Errorf("%s to %s: %w", prev.Status, to, domainErrors.ErrInvalidTransition)
	}
	optimistic := prev
	optimistic.Status = to
	a.orders[orderID] = optimistic
	a.mu.Unlock()

	updated, err := a.client.UpdateStatus(ctx, orderID, to, proofImageID, slipImageID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		// Authoritative rejection: back to the last confirmed server value.
		a.orders[orderID] = prev
		return nil, err
	}
	a.orders[orderID] = *updated
	return updated, nil
}

func (a *Agent) isOnline() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.online
}

func (a *Agent) onNewOrders(event poll.NewOrders) {
	a.alerts.Trigger(event)
}
