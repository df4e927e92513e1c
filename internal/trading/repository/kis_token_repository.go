package repository

import (
	"context"
	"errors"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/pkg/kis"

	"gorm.io/gorm"
)

// KISTokenRepository persists issued tokens. It is the durable kis.TokenStore.
type KISTokenRepository interface {
	kis.TokenStore
}

// NewKISTokenRepository creates a new GORM-based token repository.
func NewKISTokenRepository(db *gorm.DB) KISTokenRepository {
	return &kisTokenRepository{db: db}
}

type kisTokenRepository struct {
	db *gorm.DB
}

// Latest returns the most recently issued token of the account, or nil when none exists.
func (r *kisTokenRepository) Latest(ctx context.Context, accountID uint) (*kis.Token, error) {
	var row entity.KISToken
	err := r.db.WithContext(ctx).
		Where("trading_account_id = ?", accountID).
		Order("issued_at DESC, id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &kis.Token{
		Value:     row.AccessToken,
		Type:      row.TokenType,
		IssuedAt:  row.IssuedAt,
		ExpiresIn: row.ExpiresIn,
	}, nil
}

// Append records a newly issued token. Older rows are kept.
func (r *kisTokenRepository) Append(ctx context.Context, accountID uint, token kis.Token) error {
	return r.db.WithContext(ctx).Create(&entity.KISToken{
		TradingAccountID: accountID,
		AccessToken:      token.Value,
		TokenType:        token.Type,
		IssuedAt:         token.IssuedAt,
		ExpiresIn:        token.ExpiresIn,
	}).Error
}
