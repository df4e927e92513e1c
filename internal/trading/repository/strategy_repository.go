package repository

import (
	"context"
	"time"

	"golang-kis-trader/internal/entity"

	"gorm.io/gorm"
)

// StrategyRepository defines the interface for strategy data operations.
type StrategyRepository interface {
	Create(ctx context.Context, strategy *entity.Strategy) error
	FindByID(ctx context.Context, id, userID uint) (*entity.Strategy, error)
	FindByUser(ctx context.Context, userID uint) ([]entity.Strategy, error)
	Update(ctx context.Context, strategy *entity.Strategy) error
	Delete(ctx context.Context, id, userID uint) error
	FindDue(ctx context.Context, now time.Time) ([]entity.Strategy, error)
}

// NewStrategyRepository creates a new GORM-based strategy repository.
func NewStrategyRepository(db *gorm.DB) StrategyRepository {
	return &strategyRepository{db: db}
}

type strategyRepository struct {
	db *gorm.DB
}

func (r *strategyRepository) Create(ctx context.Context, strategy *entity.Strategy) error {
	return r.db.WithContext(ctx).Create(strategy).Error
}

// FindByID retrieves a strategy owned by the user.
func (r *strategyRepository) FindByID(ctx context.Context, id, userID uint) (*entity.Strategy, error) {
	var strategy entity.Strategy
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&strategy).Error; err != nil {
		return nil, err
	}
	return &strategy, nil
}

func (r *strategyRepository) FindByUser(ctx context.Context, userID uint) ([]entity.Strategy, error) {
	var strategies []entity.Strategy
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&strategies).Error; err != nil {
		return nil, err
	}
	return strategies, nil
}

func (r *strategyRepository) Update(ctx context.Context, strategy *entity.Strategy) error {
	return r.db.WithContext(ctx).Save(strategy).Error
}

// Delete removes a strategy owned by the user. gorm.ErrRecordNotFound is returned when nothing matched.
func (r *strategyRepository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&entity.Strategy{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindDue finds active scheduled strategies whose next execution has come.
func (r *strategyRepository) FindDue(ctx context.Context, now time.Time) ([]entity.Strategy, error) {
	var strategies []entity.Strategy
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND cron_expression <> ? AND (next_execution IS NULL OR next_execution <= ?)", true, "", now).
		Find(&strategies).Error
	if err != nil {
		return nil, err
	}
	return strategies, nil
}
