package model

import "time"

// Position is a single GPS fix pushed by a rider while delivering an order.
type Position struct {
	OrderID    string
	RiderID    int64
	Lat        float64
	Lng        float64
	RecordedAt time.Time
}
