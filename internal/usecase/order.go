package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
)

// OrderUseCase encapsulates order lifecycle logic. Status transitions are
// validated locally and then applied compare-and-swap so a stale actor loses.
type OrderUseCase struct {
	orders repository.OrderRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders}
}

// TransitionRequest carries an actor's attempt to move an order.
type TransitionRequest struct {
	OrderID      string
	To           model.OrderStatus
	RiderID      *int64
	ProofImageID *string
	SlipImageID  *string
}

// Create registers a new order in the pending/unpaid state. A missing ID is
// generated server-side.
func (u *OrderUseCase) Create(ctx context.Context, order *model.DeliveryOrder) error {
	if !ValidateAmount(order.Total) {
		return domainErrors.ErrInvalidAmount
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.Status = model.OrderStatusPending
	order.PaymentStatus = model.PaymentStatusUnpaid
	return u.orders.Create(ctx, order)
}

// GetByID fetches a single order.
func (u *OrderUseCase) GetByID(ctx context.Context, id string) (*model.DeliveryOrder, error) {
	return u.orders.GetByID(ctx, id)
}

// ListActive returns non-terminal orders for the scope, oldest first.
func (u *OrderUseCase) ListActive(ctx context.Context, scope repository.OrderScope) ([]model.DeliveryOrder, error) {
	return u.orders.ListActive(ctx, scope)
}

// Transition applies a status change. The stored status at the time of the
// read is the CAS guard: a concurrent change surfaces as ErrConflict and the
// caller must re-read.
func (u *OrderUseCase) Transition(ctx context.Context, req TransitionRequest) (*model.DeliveryOrder, error) {
	order, err := u.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(order.Status, req.To) {
		return nil, domainErrors.ErrInvalidTransition
	}

	err = u.orders.UpdateStatusCAS(ctx, req.OrderID, order.Status, req.To, req.RiderID, req.ProofImageID, req.SlipImageID)
	if err != nil {
		return nil, err
	}

	order.Status = req.To
	if req.RiderID != nil {
		order.RiderID = req.RiderID
	}
	if req.ProofImageID != nil {
		order.ProofImageID = req.ProofImageID
	}
	if req.SlipImageID != nil {
		order.SlipImageID = req.SlipImageID
	}
	order.UpdatedAt = time.Now()
	return order, nil
}
