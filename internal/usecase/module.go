package usecase

import (
	"go.uber.org/fx"

	"github.com/quickserve/dispatch/internal/config"
	"github.com/quickserve/dispatch/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewOrderUseCase,
	NewSessionUseCase,
	newPaymentUseCase,
)

type paymentParams struct {
	fx.In

	Signals repository.PaymentSignalRepository
	Orders  repository.OrderRepository
	Config  *config.Config
}

func newPaymentUseCase(p paymentParams) *PaymentUseCase {
	return NewPaymentUseCase(p.Signals, p.Orders, p.Config.SignalTolerance, p.Config.SignalRetention)
}
