package model

import "time"

// PaymentSignal is one inbound payment notification (bank SMS, transfer alert)
// held in the backend buffer for reconciliation against order totals.
type PaymentSignal struct {
	ID         int64
	Sender     string
	Amount     float64
	RawText    string
	ReceivedAt time.Time
}

// VerificationResult is the outcome of matching an expected amount against the
// signal buffer. Verified is set only by an exact server-side match; it is
// never derived from client-side heuristics.
type VerificationResult struct {
	Verified bool
	Amount   *float64
}
