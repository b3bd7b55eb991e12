package test

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
	"github.com/quickserve/dispatch/internal/usecase"
)

// DispatcherToken is recognized by the default ParseToken stub as a
// dispatcher console token; any other value parses as a rider.
const DispatcherToken = "console-token"

// SessionFacadeStub provides controllable behaviour for session endpoints.
type SessionFacadeStub struct {
	LoginFn  func(ctx context.Context, phone, pin string) (*model.Rider, string, error)
	LogoutFn func(ctx context.Context, riderID int64) error
	ParseFn  func(token string) (int64, pkgAuth.Role, error)
}

// LoginRider delegates to the provided function or returns a default rider.
func (s SessionFacadeStub) LoginRider(ctx context.Context, phone, pin string) (*model.Rider, string, error) {
	if s.LoginFn != nil {
		return s.LoginFn(ctx, phone, pin)
	}
	return &model.Rider{ID: 1, Phone: phone, Online: true}, "rider-token", nil
}

// LogoutRider executes the configured handler.
func (s SessionFacadeStub) LogoutRider(ctx context.Context, riderID int64) error {
	if s.LogoutFn != nil {
		return s.LogoutFn(ctx, riderID)
	}
	return nil
}

// ParseToken resolves the actor behind a token.
func (s SessionFacadeStub) ParseToken(token string) (int64, pkgAuth.Role, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	if token == DispatcherToken {
		return 1, pkgAuth.RoleDispatcher, nil
	}
	return 1, pkgAuth.RoleRider, nil
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn     func(context.Context, *model.DeliveryOrder) error
	ActiveFn     func(context.Context, repository.OrderScope) ([]model.DeliveryOrder, error)
	TransitionFn func(context.Context, usecase.TransitionRequest) (*model.DeliveryOrder, error)
}

// CreateOrder delegates to the provided function or accepts the order.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, order *model.DeliveryOrder) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	if order.ID == "" {
		order.ID = "ord-1"
	}
	order.Status = model.OrderStatusPending
	order.PaymentStatus = model.PaymentStatusUnpaid
	return nil
}

// ActiveOrders returns predefined orders.
func (s OrderFacadeStub) ActiveOrders(ctx context.Context, scope repository.OrderScope) ([]model.DeliveryOrder, error) {
	if s.ActiveFn != nil {
		return s.ActiveFn(ctx, scope)
	}
	return []model.DeliveryOrder{{ID: "ord-1", Status: model.OrderStatusPending}}, nil
}

// TransitionOrder executes the configured handler or echoes the request.
func (s OrderFacadeStub) TransitionOrder(ctx context.Context, req usecase.TransitionRequest) (*model.DeliveryOrder, error) {
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, req)
	}
	return &model.DeliveryOrder{ID: req.OrderID, Status: req.To, RiderID: req.RiderID}, nil
}

// TrackingFacadeStub simulates location ingest and readback.
type TrackingFacadeStub struct {
	PushFn func(ctx context.Context, riderID int64, orderID string, lat, lng float64, at time.Time) error
	LastFn func(context.Context, string) (*model.Position, error)
}

// PushPosition executes the configured handler.
func (s TrackingFacadeStub) PushPosition(ctx context.Context, riderID int64, orderID string, lat, lng float64, at time.Time) error {
	if s.PushFn != nil {
		return s.PushFn(ctx, riderID, orderID, lat, lng, at)
	}
	return nil
}

// LastPosition returns a preconfigured position.
func (s TrackingFacadeStub) LastPosition(ctx context.Context, orderID string) (*model.Position, error) {
	if s.LastFn != nil {
		return s.LastFn(ctx, orderID)
	}
	return &model.Position{OrderID: orderID, RiderID: 1, Lat: 13.75, Lng: 100.5, RecordedAt: time.Unix(0, 0)}, nil
}

// PaymentFacadeStub simulates payment operations.
type PaymentFacadeStub struct {
	VerifyFn  func(context.Context, float64) (*model.VerificationResult, error)
	RecordFn  func(ctx context.Context, sender, rawText string, amount float64) (*model.PaymentSignal, error)
	SignalsFn func(context.Context, float64) ([]usecase.SignalView, error)
	ConfirmFn func(context.Context, string) error
}

// VerifyPayment executes the configured handler or reports no match.
func (s PaymentFacadeStub) VerifyPayment(ctx context.Context, amount float64) (*model.VerificationResult, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, amount)
	}
	return &model.VerificationResult{Verified: false}, nil
}

// RecordSignal executes the configured handler.
func (s PaymentFacadeStub) RecordSignal(ctx context.Context, sender, rawText string, amount float64) (*model.PaymentSignal, error) {
	if s.RecordFn != nil {
		return s.RecordFn(ctx, sender, rawText, amount)
	}
	return &model.PaymentSignal{ID: 1, Sender: sender, Amount: amount, RawText: rawText}, nil
}

// Signals returns preconfigured views.
func (s PaymentFacadeStub) Signals(ctx context.Context, expected float64) ([]usecase.SignalView, error) {
	if s.SignalsFn != nil {
		return s.SignalsFn(ctx, expected)
	}
	return nil, nil
}

// ConfirmPayment executes the configured handler.
func (s PaymentFacadeStub) ConfirmPayment(ctx context.Context, orderID string) error {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, orderID)
	}
	return nil
}

// DispatchFacadeStub aggregates all facade stubs.
type DispatchFacadeStub struct {
	SessionFacadeStub
	OrderFacadeStub
	TrackingFacadeStub
	PaymentFacadeStub
}

// ConsoleFeedStub counts websocket upgrade attempts.
type ConsoleFeedStub struct {
	Served atomic.Int64
}

// ServeWS records the call without upgrading.
func (s *ConsoleFeedStub) ServeWS(w http.ResponseWriter, r *http.Request, consoleID int64) {
	s.Served.Add(1)
	w.WriteHeader(http.StatusSwitchingProtocols)
}
