package repository

import (
	"context"

	"github.com/quickserve/dispatch/internal/domain/model"
)

// PositionRepository keeps the per-order location history.
type PositionRepository interface {
	Append(ctx context.Context, pos model.Position) error
	LastForOrder(ctx context.Context, orderID string) (*model.Position, error)
}
