package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
	"github.com/quickserve/dispatch/internal/usecase"
)

// SessionFacade describes session capabilities required by handlers.
type SessionFacade interface {
	LoginRider(ctx context.Context, phone, pin string) (*model.Rider, string, error)
	LogoutRider(ctx context.Context, riderID int64) error
	ParseToken(token string) (int64, pkgAuth.Role, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, order *model.DeliveryOrder) error
	ActiveOrders(ctx context.Context, scope repository.OrderScope) ([]model.DeliveryOrder, error)
	TransitionOrder(ctx context.Context, req usecase.TransitionRequest) (*model.DeliveryOrder, error)
}

// TrackingFacade covers location ingest and readback.
type TrackingFacade interface {
	PushPosition(ctx context.Context, riderID int64, orderID string, lat, lng float64, at time.Time) error
	LastPosition(ctx context.Context, orderID string) (*model.Position, error)
}

// PaymentFacade provides payment verification operations.
type PaymentFacade interface {
	VerifyPayment(ctx context.Context, amount float64) (*model.VerificationResult, error)
	RecordSignal(ctx context.Context, sender, rawText string, amount float64) (*model.PaymentSignal, error)
	Signals(ctx context.Context, expected float64) ([]usecase.SignalView, error)
	ConfirmPayment(ctx context.Context, orderID string) error
}

// ConsoleFeed upgrades dispatcher console websocket connections.
type ConsoleFeed interface {
	ServeWS(w http.ResponseWriter, r *http.Request, consoleID int64)
}

// DispatchFacade aggregates the full set of operations used across handlers.
type DispatchFacade interface {
	SessionFacade
	OrderFacade
	TrackingFacade
	PaymentFacade
}
