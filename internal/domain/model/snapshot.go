package model

import "time"

// OrderSnapshot is the set of orders read at one poll tick. It is ephemeral:
// each tick replaces the previous snapshot entirely.
type OrderSnapshot struct {
	Orders      []DeliveryOrder
	ActiveCount int
	TakenAt     time.Time
}

// NewSnapshot builds a snapshot and precomputes the active-order count.
func NewSnapshot(orders []DeliveryOrder, takenAt time.Time) OrderSnapshot {
	return OrderSnapshot{Orders: orders, ActiveCount: ActiveCount(orders), TakenAt: takenAt}
}

// ActiveCount returns the number of orders whose status is not terminal.
func ActiveCount(orders []DeliveryOrder) int {
	count := 0
	for _, o := range orders {
		if o.IsActive() {
			count++
		}
	}
	return count
}
