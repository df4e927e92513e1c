package repository

import (
	"context"

	"golang-kis-trader/internal/entity"

	"gorm.io/gorm"
)

// TradingAccountRepository defines the interface for trading account data operations.
type TradingAccountRepository interface {
	Create(ctx context.Context, account *entity.TradingAccount) error
	FindByUser(ctx context.Context, userID uint) ([]entity.TradingAccount, error)
	FindActive(ctx context.Context, userID uint, accountID *uint) (*entity.TradingAccount, error)
	FindActiveByID(ctx context.Context, id uint) (*entity.TradingAccount, error)
	CountActive(ctx context.Context, userID uint) (int64, error)
}

// NewTradingAccountRepository creates a new GORM-based trading account repository.
func NewTradingAccountRepository(db *gorm.DB) TradingAccountRepository {
	return &tradingAccountRepository{db: db}
}

type tradingAccountRepository struct {
	db *gorm.DB
}

func (r *tradingAccountRepository) Create(ctx context.Context, account *entity.TradingAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *tradingAccountRepository) FindByUser(ctx context.Context, userID uint) ([]entity.TradingAccount, error) {
	var accounts []entity.TradingAccount
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindActive returns the user's active account with the given id, or the
// user's first active account when accountID is nil.
func (r *tradingAccountRepository) FindActive(ctx context.Context, userID uint, accountID *uint) (*entity.TradingAccount, error) {
	var account entity.TradingAccount
	q := r.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true)
	if accountID != nil {
		q = q.Where("id = ?", *accountID)
	}
	if err := q.Order("id").First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindActiveByID is used by background jobs that act on behalf of the account owner.
func (r *tradingAccountRepository) FindActiveByID(ctx context.Context, id uint) (*entity.TradingAccount, error) {
	var account entity.TradingAccount
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *tradingAccountRepository) CountActive(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.TradingAccount{}).Where("user_id = ? AND is_active = ?", userID, true).Count(&count).Error
	return count, err
}
