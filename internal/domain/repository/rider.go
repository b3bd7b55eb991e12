package repository

import (
	"context"

	"github.com/quickserve/dispatch/internal/domain/model"
)

// RiderRepository describes persistence operations with riders.
type RiderRepository interface {
	Create(ctx context.Context, name, phone, pinHash string) (*model.Rider, error)
	GetByPhone(ctx context.Context, phone string) (*model.Rider, error)
	GetByID(ctx context.Context, id int64) (*model.Rider, error)
	SetOnline(ctx context.Context, id int64, online bool) error
}
