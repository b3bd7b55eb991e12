package dto

import "time"

// PositionRequest is a rider location push.
type PositionRequest struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// PositionResponse is the last-known position of an order.
type PositionResponse struct {
	OrderID    string    `json:"order_id"`
	RiderID    int64     `json:"rider_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}
