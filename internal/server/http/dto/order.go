package dto

import (
	"time"

	"github.com/quickserve/dispatch/internal/domain/model"
)

// LineItem is one order line.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateOrderRequest describes an incoming checkout order.
type CreateOrderRequest struct {
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Address       string     `json:"address"`
	Items         []LineItem `json:"items"`
	Total         float64    `json:"total"`
	DeliveryFee   float64    `json:"delivery_fee"`
	RequestedFor  *time.Time `json:"requested_for,omitempty"`
}

// TransitionRequest asks for a status change.
type TransitionRequest struct {
	Status       string  `json:"status" binding:"required"`
	ProofImageID *string `json:"proof_image_id,omitempty"`
	SlipImageID  *string `json:"slip_image_id,omitempty"`
}

// OrderResponse is the wire form of an order.
type OrderResponse struct {
	ID            string     `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Address       string     `json:"address"`
	Items         []LineItem `json:"items"`
	Total         float64    `json:"total"`
	DeliveryFee   float64    `json:"delivery_fee"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	RiderID       *int64     `json:"rider_id,omitempty"`
	ProofImageID  *string    `json:"proof_image_id,omitempty"`
	SlipImageID   *string    `json:"slip_image_id,omitempty"`
	RequestedFor  *time.Time `json:"requested_for,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewOrderResponse converts a domain order.
func NewOrderResponse(order *model.DeliveryOrder) OrderResponse {
	items := make([]LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, LineItem{Name: item.Name, Quantity: item.Quantity, Price: item.Price})
	}
	return OrderResponse{
		ID:            order.ID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Address:       order.Address,
		Items:         items,
		Total:         order.Total,
		DeliveryFee:   order.DeliveryFee,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		RiderID:       order.RiderID,
		ProofImageID:  order.ProofImageID,
		SlipImageID:   order.SlipImageID,
		RequestedFor:  order.RequestedFor,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// ToDomain converts the request into a domain order.
func (r CreateOrderRequest) ToDomain() *model.DeliveryOrder {
	items := make([]model.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, model.LineItem{Name: item.Name, Quantity: item.Quantity, Price: item.Price})
	}
	return &model.DeliveryOrder{
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Address:       r.Address,
		Items:         items,
		Total:         r.Total,
		DeliveryFee:   r.DeliveryFee,
		RequestedFor:  r.RequestedFor,
	}
}
