package dto

import "time"

// VerifyRequest asks whether a payment for the amount arrived.
type VerifyRequest struct {
	Amount float64 `json:"amount"`
}

// VerifyResponse is the strict verification contract: the gate on the other
// side unlocks only on success AND verified both true.
type VerifyResponse struct {
	Success  bool     `json:"success"`
	Verified bool     `json:"verified"`
	Amount   *float64 `json:"amount,omitempty"`
}

// SignalRequest records an inbound bank/SMS notification.
type SignalRequest struct {
	Sender  string  `json:"sender"`
	Amount  float64 `json:"amount"`
	RawText string  `json:"raw_text"`
}

// SignalResponse is one buffered signal, flagged when it matches the
// expected amount supplied with the listing request.
type SignalResponse struct {
	ID         int64     `json:"id"`
	Sender     string    `json:"sender"`
	Amount     float64   `json:"amount"`
	RawText    string    `json:"raw_text"`
	ReceivedAt time.Time `json:"received_at"`
	Matched    bool      `json:"matched"`
}
