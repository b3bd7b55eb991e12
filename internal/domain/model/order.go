package model

import "time"

// OrderStatus describes the delivery lifecycle.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// PaymentStatus is orthogonal to OrderStatus and moves one way, unpaid to paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// LineItem is a single ordered product with its quantity.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// DeliveryOrder is the backend-owned order record. Clients hold read-only
// projections of it; Status is the only field they mutate optimistically.
type DeliveryOrder struct {
	ID            string
	CustomerName  string
	CustomerPhone string
	Address       string
	Items         []LineItem
	Total         float64
	DeliveryFee   float64
	Status        OrderStatus
	PaymentStatus PaymentStatus
	RiderID       *int64
	ProofImageID  *string
	SlipImageID   *string
	RequestedFor  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered, OrderStatusCancelled},
}

// CanTransition reports whether the lifecycle allows moving from one status to
// the next. Terminal statuses allow nothing.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the lifecycle.
func IsTerminal(status OrderStatus) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// IsActive reports whether the order still counts towards the delivery backlog.
func (o DeliveryOrder) IsActive() bool {
	return !IsTerminal(o.Status)
}
