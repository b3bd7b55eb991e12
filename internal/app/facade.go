package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
	"github.com/quickserve/dispatch/internal/geo"
	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
	"github.com/quickserve/dispatch/internal/server/ws"
	"github.com/quickserve/dispatch/internal/usecase"
)

// LiveLocator keeps the latest rider coordinates for the dispatcher console.
type LiveLocator interface {
	Update(ctx context.Context, riderID int64, lat, lng float64) error
	Remove(ctx context.Context, riderID int64) error
	Last(ctx context.Context, riderID int64) (*geo.LivePosition, error)
}

// EventBroadcaster pushes events to connected dispatcher consoles.
type EventBroadcaster interface {
	Broadcast(event ws.Event)
}

// DispatchFacade aggregates use cases behind a single application surface
// consumed by HTTP handlers and the background sweeper.
type DispatchFacade struct {
	session   *usecase.SessionUseCase
	orders    *usecase.OrderUseCase
	payments  *usecase.PaymentUseCase
	positions repository.PositionRepository
	locator   LiveLocator
	events    EventBroadcaster
	logger    *slog.Logger
}

// NewDispatchFacade constructs the facade.
func NewDispatchFacade(
	session *usecase.SessionUseCase,
	orders *usecase.OrderUseCase,
	payments *usecase.PaymentUseCase,
	positions repository.PositionRepository,
	locator LiveLocator,
	events EventBroadcaster,
	logger *slog.Logger,
) *DispatchFacade {
	return &DispatchFacade{
		session:   session,
		orders:    orders,
		payments:  payments,
		positions: positions,
		locator:   locator,
		events:    events,
		logger:    logger,
	}
}

// --- session ---

func (f *DispatchFacade) LoginRider(ctx context.Context, phone, pin string) (*model.Rider, string, error) {
	return f.session.Login(ctx, phone, pin)
}

// LogoutRider flips the online gate off and drops the live position.
func (f *DispatchFacade) LogoutRider(ctx context.Context, riderID int64) error {
	if err := f.session.Logout(ctx, riderID); err != nil {
		return err
	}
	if err := f.locator.Remove(ctx, riderID); err != nil {
		f.logger.Warn("drop live position failed", slog.Int64("rider_id", riderID), slog.String("error", err.Error()))
	}
	return nil
}

func (f *DispatchFacade) ParseToken(token string) (int64, pkgAuth.Role, error) {
	return f.session.ParseToken(token)
}

func (f *DispatchFacade) RegisterRider(ctx context.Context, name, phone, pin string) (*model.Rider, error) {
	return f.session.RegisterRider(ctx, name, phone, pin)
}

func (f *DispatchFacade) IssueDispatcherToken(consoleID int64) (string, error) {
	return f.session.IssueDispatcherToken(consoleID)
}

// --- orders ---

func (f *DispatchFacade) CreateOrder(ctx context.Context, order *model.DeliveryOrder) error {
	if err := f.orders.Create(ctx, order); err != nil {
		return err
	}
	f.events.Broadcast(ws.OrderEvent(order))
	return nil
}

func (f *DispatchFacade) ActiveOrders(ctx context.Context, scope repository.OrderScope) ([]model.DeliveryOrder, error) {
	return f.orders.ListActive(ctx, scope)
}

func (f *DispatchFacade) GetOrder(ctx context.Context, id string) (*model.DeliveryOrder, error) {
	return f.orders.GetByID(ctx, id)
}

// TransitionOrder applies a status change and announces it to consoles.
func (f *DispatchFacade) TransitionOrder(ctx context.Context, req usecase.TransitionRequest) (*model.DeliveryOrder, error) {
	order, err := f.orders.Transition(ctx, req)
	if err != nil {
		return nil, err
	}
	f.events.Broadcast(ws.OrderEvent(order))
	return order, nil
}

// --- tracking ---

// PushPosition ingests a rider coordinate for an order. Pushes that arrive
// after the order reached a terminal status are still accepted and recorded
// as the last-known position.
func (f *DispatchFacade) PushPosition(ctx context.Context, riderID int64, orderID string, lat, lng float64, at time.Time) error {
	if _, err := f.orders.GetByID(ctx, orderID); err != nil {
		return err
	}
	if err := f.locator.Update(ctx, riderID, lat, lng); err != nil {
		return err
	}

	if at.IsZero() {
		at = time.Now()
	}
	pos := model.Position{OrderID: orderID, RiderID: riderID, Lat: lat, Lng: lng, RecordedAt: at}
	if err := f.positions.Append(ctx, pos); err != nil {
		return err
	}

	f.events.Broadcast(ws.PositionEvent(pos))
	return nil
}

// LastPosition returns the last-known position for an order.
func (f *DispatchFacade) LastPosition(ctx context.Context, orderID string) (*model.Position, error) {
	return f.positions.LastForOrder(ctx, orderID)
}

// --- payments ---

func (f *DispatchFacade) VerifyPayment(ctx context.Context, amount float64) (*model.VerificationResult, error) {
	return f.payments.Verify(ctx, amount)
}

func (f *DispatchFacade) RecordSignal(ctx context.Context, sender, rawText string, amount float64) (*model.PaymentSignal, error) {
	return f.payments.RecordSignal(ctx, sender, rawText, amount)
}

func (f *DispatchFacade) Signals(ctx context.Context, expected float64) ([]usecase.SignalView, error) {
	return f.payments.Signals(ctx, expected)
}

func (f *DispatchFacade) ConfirmPayment(ctx context.Context, orderID string) error {
	return f.payments.Confirm(ctx, orderID)
}

// SweepSignals prunes the signal buffer; used by the retention sweeper.
func (f *DispatchFacade) SweepSignals(ctx context.Context) (int64, error) {
	return f.payments.Sweep(ctx)
}
