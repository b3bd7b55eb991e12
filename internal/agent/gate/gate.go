package gate

import (
	"context"
	"sync"

	"github.com/quickserve/dispatch/internal/agent/api"
)

// Verifier is the single backend round-trip the gate trusts.
type Verifier interface {
	VerifyPayment(ctx context.Context, amount float64) (*api.VerifyResult, error)
}

// VerificationGate guards order submission behind explicit server-confirmed
// payment verification. It unlocks only on a response with success and
// verified both true; any other shape, including a transport error, leaves it
// locked. Verification is never derived from local heuristics: an uploaded
// slip proves nothing until the server says so.
type VerificationGate struct {
	verifier Verifier

	mu       sync.Mutex
	verified bool
	amount   *float64
}

// NewVerificationGate creates a locked gate.
func NewVerificationGate(verifier Verifier) *VerificationGate {
	return &VerificationGate{verifier: verifier}
}

// Verify asks the backend whether a payment for the expected amount arrived.
// The returned flag is the new gate state; ambiguity collapses to locked.
func (g *VerificationGate) Verify(ctx context.Context, expected float64) (bool, error) {
	result, err := g.verifier.VerifyPayment(ctx, expected)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.verified = false
		g.amount = nil
		return false, err
	}
	if result != nil && result.Success && result.Verified {
		g.verified = true
		g.amount = result.Amount
		return true, nil
	}
	g.verified = false
	g.amount = nil
	return false, nil
}

// SlipUploaded re-locks the gate: a new slip invalidates any prior
// verification.
func (g *VerificationGate) SlipUploaded() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verified = false
	g.amount = nil
}

// Reset re-locks the gate when the checkout surface is closed and reopened,
// so a stale verified flag never carries across sessions.
func (g *VerificationGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verified = false
	g.amount = nil
}

// Verified reports the current gate state.
func (g *VerificationGate) Verified() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verified
}

// MatchedAmount returns the amount the server matched, when verified.
func (g *VerificationGate) MatchedAmount() *float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.amount
}
