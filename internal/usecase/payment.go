package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
)

// PaymentUseCase owns the inbound signal buffer and payment verification.
// Verification only ever answers a question about the buffer; the one-way
// unpaid -> paid change happens through an explicit confirmation.
type PaymentUseCase struct {
	signals   repository.PaymentSignalRepository
	orders    repository.OrderRepository
	tolerance float64
	retention time.Duration
	now       func() time.Time
}

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(signals repository.PaymentSignalRepository, orders repository.OrderRepository, tolerance float64, retention time.Duration) *PaymentUseCase {
	return &PaymentUseCase{
		signals:   signals,
		orders:    orders,
		tolerance: tolerance,
		retention: retention,
		now:       time.Now,
	}
}

// SignalView is a buffered signal annotated with whether it matches an
// expected amount.
type SignalView struct {
	Signal  model.PaymentSignal
	Matched bool
}

// RecordSignal stores an inbound bank/SMS notification in the buffer.
func (u *PaymentUseCase) RecordSignal(ctx context.Context, sender, rawText string, amount float64) (*model.PaymentSignal, error) {
	if !ValidateAmount(amount) {
		return nil, domainErrors.ErrInvalidAmount
	}
	signal := &model.PaymentSignal{
		Sender:  strings.TrimSpace(sender),
		Amount:  amount,
		RawText: rawText,
	}
	if err := u.signals.Insert(ctx, signal); err != nil {
		return nil, err
	}
	return signal, nil
}

// Signals lists buffered signals inside the retention window, newest first,
// each flagged as matched when within tolerance of the expected amount. A
// non-positive expected amount disables matching.
func (u *PaymentUseCase) Signals(ctx context.Context, expected float64) ([]SignalView, error) {
	since := u.now().Add(-u.retention)
	signals, err := u.signals.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}

	views := make([]SignalView, 0, len(signals))
	for _, s := range signals {
		matched := expected > 0 && diff(s.Amount, expected) <= u.tolerance
		views = append(views, SignalView{Signal: s, Matched: matched})
	}
	return views, nil
}

// Verify answers whether a signal matching the amount is present in the
// buffer. Absence is not an error: the result simply carries Verified=false.
func (u *PaymentUseCase) Verify(ctx context.Context, amount float64) (*model.VerificationResult, error) {
	if !ValidateAmount(amount) {
		return nil, domainErrors.ErrInvalidAmount
	}

	since := u.now().Add(-u.retention)
	signal, err := u.signals.MatchAmount(ctx, amount, u.tolerance, since)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return &model.VerificationResult{Verified: false}, nil
		}
		return nil, err
	}
	return &model.VerificationResult{Verified: true, Amount: &signal.Amount}, nil
}

// Confirm marks the order paid. Repeated confirmation returns ErrAlreadyPaid.
func (u *PaymentUseCase) Confirm(ctx context.Context, orderID string) error {
	return u.orders.SetPaymentStatus(ctx, orderID, model.PaymentStatusPaid)
}

// Sweep removes signals older than the retention window and reports how many
// were dropped.
func (u *PaymentUseCase) Sweep(ctx context.Context) (int64, error) {
	return u.signals.DeleteOlderThan(ctx, u.now().Add(-u.retention))
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
