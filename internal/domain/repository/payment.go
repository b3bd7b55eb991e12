package repository

import (
	"context"
	"time"

	"github.com/quickserve/dispatch/internal/domain/model"
)

// PaymentSignalRepository stores inbound payment-signal records.
type PaymentSignalRepository interface {
	Insert(ctx context.Context, signal *model.PaymentSignal) error
	ListSince(ctx context.Context, since time.Time) ([]model.PaymentSignal, error)
	// MatchAmount returns the most recent signal within tolerance of the
	// expected amount, or ErrNotFound.
	MatchAmount(ctx context.Context, amount, tolerance float64, since time.Time) (*model.PaymentSignal, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
