package repository

import (
	"context"

	"golang-kis-trader/internal/entity"

	"gorm.io/gorm"
)

// BalanceRepository stores balance snapshots.
type BalanceRepository interface {
	CreateSnapshot(ctx context.Context, balances []entity.Balance) error
}

// NewBalanceRepository creates a new GORM-based balance repository.
func NewBalanceRepository(db *gorm.DB) BalanceRepository {
	return &balanceRepository{db: db}
}

type balanceRepository struct {
	db *gorm.DB
}

func (r *balanceRepository) CreateSnapshot(ctx context.Context, balances []entity.Balance) error {
	if len(balances) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&balances, 100).Error
}
