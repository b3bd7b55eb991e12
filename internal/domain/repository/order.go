package repository

import (
	"context"

	"github.com/quickserve/dispatch/internal/domain/model"
)

// OrderScope filters the active-order listing for one actor.
type OrderScope struct {
	// Date limits orders to one business day; zero value means today.
	Date string
	// RiderID, when non-zero, restricts the listing to orders assigned to
	// that rider or still unassigned.
	RiderID int64
}

// OrderRepository describes persistence operations with delivery orders.
type OrderRepository interface {
	Create(ctx context.Context, order *model.DeliveryOrder) error
	GetByID(ctx context.Context, id string) (*model.DeliveryOrder, error)
	ListActive(ctx context.Context, scope OrderScope) ([]model.DeliveryOrder, error)
	// UpdateStatusCAS moves the order from one status to another only when the
	// stored status still matches. Returns ErrConflict when it does not.
	UpdateStatusCAS(ctx context.Context, id string, from, to model.OrderStatus, riderID *int64, proofImageID, slipImageID *string) error
	SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error
}
