package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
)

type stubSignalRepository struct {
	insertFn func(context.Context, *model.PaymentSignal) error
	listFn   func(context.Context, time.Time) ([]model.PaymentSignal, error)
	matchFn  func(ctx context.Context, amount, tolerance float64, since time.Time) (*model.PaymentSignal, error)
	deleteFn func(context.Context, time.Time) (int64, error)
}

func (s stubSignalRepository) Insert(ctx context.Context, signal *model.PaymentSignal) error {
	return s.insertFn(ctx, signal)
}

func (s stubSignalRepository) ListSince(ctx context.Context, since time.Time) ([]model.PaymentSignal, error) {
	return s.listFn(ctx, since)
}

func (s stubSignalRepository) MatchAmount(ctx context.Context, amount, tolerance float64, since time.Time) (*model.PaymentSignal, error) {
	return s.matchFn(ctx, amount, tolerance, since)
}

func (s stubSignalRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.deleteFn(ctx, cutoff)
}

func TestPaymentUseCaseRecordSignal(t *testing.T) {
	uc := NewPaymentUseCase(stubSignalRepository{insertFn: func(_ context.Context, signal *model.PaymentSignal) error {
		signal.ID = 1
		return nil
	}}, stubOrderRepository{}, 0.01, 72*time.Hour)

	signal, err := uc.RecordSignal(context.Background(), " KBank ", "received 450.00 THB", 450)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if signal.Sender != "KBank" {
		t.Fatalf("expected trimmed sender, got %q", signal.Sender)
	}
	if signal.ID != 1 {
		t.Fatalf("expected assigned id, got %d", signal.ID)
	}
}

func TestPaymentUseCaseRecordSignalRejectsBadAmount(t *testing.T) {
	uc := NewPaymentUseCase(stubSignalRepository{insertFn: func(context.Context, *model.PaymentSignal) error {
		t.Fatal("insert should not be called")
		return nil
	}}, stubOrderRepository{}, 0.01, 72*time.Hour)

	for _, amount := range []float64{0, -10} {
		if _, err := uc.RecordSignal(context.Background(), "KBank", "x", amount); !errors.Is(err, domainErrors.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %v, got %v", amount, err)
		}
	}
}

func TestPaymentUseCaseVerify(t *testing.T) {
	uc := NewPaymentUseCase(stubSignalRepository{matchFn: func(_ context.Context, amount, tolerance float64, _ time.Time) (*model.PaymentSignal, error) {
		if amount != 450 || tolerance != 0.01 {
			t.Fatalf("unexpected match args: %v %v", amount, tolerance)
		}
		return &model.PaymentSignal{ID: 1, Amount: 450}, nil
	}}, stubOrderRepository{}, 0.01, 72*time.Hour)

	result, err := uc.Verify(context.Background(), 450)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Verified {
		t.Fatal("expected verified result")
	}
	if result.Amount == nil || *result.Amount != 450 {
		t.Fatalf("expected matched amount, got %v", result.Amount)
	}
}

func TestPaymentUseCaseVerifyNoMatch(t *testing.T) {
	uc := NewPaymentUseCase(stubSignalRepository{matchFn: func(context.Context, float64, float64, time.Time) (*model.PaymentSignal, error) {
		return nil, domainErrors.ErrNotFound
	}}, stubOrderRepository{}, 0.01, 72*time.Hour)

	result, err := uc.Verify(context.Background(), 450)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Verified {
		t.Fatal("expected unverified result for empty buffer")
	}
	if result.Amount != nil {
		t.Fatalf("expected nil amount, got %v", *result.Amount)
	}
}

func TestPaymentUseCaseVerifyRejectsBadAmount(t *testing.T) {
	uc := NewPaymentUseCase(stubSignalRepository{matchFn: func(context.Context, float64, float64, time.Time) (*model.PaymentSignal, error) {
		t.Fatal("match should not be called")
		return nil, nil
	}}, stubOrderRepository{}, 0.01, 72*time.Hour)

	if _, err := uc.Verify(context.Background(), -1); !errors.Is(err, domainErrors.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPaymentUseCaseSignalsMatching(t *testing.T) {
	uc := NewPaymentUseCase(stubSignalRepository{listFn: func(context.Context, time.Time) ([]model.PaymentSignal, error) {
		return []model.PaymentSignal{
			{ID: 2, Amount: 450.005},
			{ID: 1, Amount: 120},
		}, nil
	}}, stubOrderRepository{}, 0.01, 72*time.Hour)

	views, err := uc.Signals(context.Background(), 450)
	if err != nil {
		t.Fatalf("signals: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if !views[0].Matched {
		t.Fatal("expected first signal within tolerance to match")
	}
	if views[1].Matched {
		t.Fatal("expected second signal not to match")
	}
}

func TestPaymentUseCaseSignalsNoExpectedAmount(t *testing.T) {
	uc := NewPaymentUseCase(stubSignalRepository{listFn: func(context.Context, time.Time) ([]model.PaymentSignal, error) {
		return []model.PaymentSignal{{ID: 1, Amount: 120}}, nil
	}}, stubOrderRepository{}, 0.01, 72*time.Hour)

	views, err := uc.Signals(context.Background(), 0)
	if err != nil {
		t.Fatalf("signals: %v", err)
	}
	if views[0].Matched {
		t.Fatal("matching must be disabled without an expected amount")
	}
}

func TestPaymentUseCaseConfirm(t *testing.T) {
	called := false
	uc := NewPaymentUseCase(stubSignalRepository{}, stubOrderRepository{paymentFn: func(_ context.Context, id string, status model.PaymentStatus) error {
		called = true
		if id != "ord-1" || status != model.PaymentStatusPaid {
			t.Fatalf("unexpected confirm args: %s %s", id, status)
		}
		return nil
	}}, 0.01, 72*time.Hour)

	if err := uc.Confirm(context.Background(), "ord-1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !called {
		t.Fatal("expected repository call")
	}
}

func TestPaymentUseCaseConfirmAlreadyPaid(t *testing.T) {
	uc := NewPaymentUseCase(stubSignalRepository{}, stubOrderRepository{paymentFn: func(context.Context, string, model.PaymentStatus) error {
		return domainErrors.ErrAlreadyPaid
	}}, 0.01, 72*time.Hour)

	if err := uc.Confirm(context.Background(), "ord-1"); !errors.Is(err, domainErrors.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
}

func TestPaymentUseCaseSweep(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	uc := NewPaymentUseCase(stubSignalRepository{deleteFn: func(_ context.Context, cutoff time.Time) (int64, error) {
		want := now.Add(-72 * time.Hour)
		if !cutoff.Equal(want) {
			t.Fatalf("expected cutoff %v, got %v", want, cutoff)
		}
		return 3, nil
	}}, stubOrderRepository{}, 0.01, 72*time.Hour)
	uc.now = func() time.Time { return now }

	removed, err := uc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
}
