package model

import "time"

// Rider is a mobile actor fulfilling deliveries. Online gates the backlog
// poller on the device: an offline rider polls nothing.
type Rider struct {
	ID        int64
	Name      string
	Phone     string
	PINHash   string
	Online    bool
	CreatedAt time.Time
}
