package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/logger"
	"golang-kis-trader/pkg/vwap"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Defaults applied to strategies created without explicit parameters.
const (
	DefaultVWAPPeriod     = 1
	DefaultMaxHoldingDays = 5
)

// StrategyService manages VWAP strategies.
type StrategyService interface {
	CreateStrategy(ctx context.Context, userID uint, req *dto.CreateStrategyRequest) (*entity.Strategy, error)
	GetStrategy(ctx context.Context, userID, id uint) (*entity.Strategy, error)
	GetStrategies(ctx context.Context, userID uint) ([]entity.Strategy, error)
	UpdateStrategy(ctx context.Context, userID, id uint, req *dto.UpdateStrategyRequest) (*entity.Strategy, error)
	DeleteStrategy(ctx context.Context, userID, id uint) error
}

// NewStrategyService creates a new strategy service.
func NewStrategyService(strategyRepo repository.StrategyRepository, accountRepo repository.TradingAccountRepository, logger *logger.Logger) StrategyService {
	return &strategyService{
		strategyRepo: strategyRepo,
		accountRepo:  accountRepo,
		cronParser:   newCronParser(),
		logger:       logger,
	}
}

type strategyService struct {
	strategyRepo repository.StrategyRepository
	accountRepo  repository.TradingAccountRepository
	cronParser   cron.Parser
	logger       *logger.Logger
}

func newCronParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

func (s *strategyService) CreateStrategy(ctx context.Context, userID uint, req *dto.CreateStrategyRequest) (*entity.Strategy, error) {
	if _, err := findActiveAccount(ctx, s.accountRepo, userID, &req.TradingAccountID); err != nil {
		return nil, err
	}

	strategy := &entity.Strategy{
		UserID:            userID,
		TradingAccountID:  req.TradingAccountID,
		Name:              strings.TrimSpace(req.Name),
		StrategyType:      req.StrategyType,
		Symbol:            strings.TrimSpace(req.Symbol),
		IsActive:          req.IsActive,
		VWAPPeriod:        valueOr(req.VWAPPeriod, DefaultVWAPPeriod),
		EntryThreshold:    valueOr(req.EntryThreshold, vwap.DefaultEntryThreshold),
		ExitThreshold:     valueOr(req.ExitThreshold, vwap.DefaultExitThreshold),
		StopLossPercent:   valueOr(req.StopLossPercent, vwap.DefaultStopLossPercent),
		TakeProfitPercent: valueOr(req.TakeProfitPercent, vwap.DefaultTakeProfitPercent),
		MaxHoldingDays:    valueOr(req.MaxHoldingDays, DefaultMaxHoldingDays),
		OrderQuantity:     req.OrderQuantity,
		AutoOrder:         req.AutoOrder,
		CronExpression:    strings.TrimSpace(req.CronExpression),
	}
	if strategy.StrategyType == "" {
		strategy.StrategyType = entity.StrategyTypeVWAP
	}
	if err := setAdditionalParams(strategy, req.AdditionalParams); err != nil {
		return nil, err
	}
	if err := s.validate(strategy); err != nil {
		return nil, err
	}

	if err := s.strategyRepo.Create(ctx, strategy); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create strategy", logger.ErrorField(err), logger.Field("user_id", userID))
		return nil, err
	}

	s.logger.InfoContext(ctx, "Strategy created", logger.Field("strategy_id", strategy.ID), logger.Field("user_id", userID))
	return strategy, nil
}

func (s *strategyService) GetStrategy(ctx context.Context, userID, id uint) (*entity.Strategy, error) {
	strategy, err := s.strategyRepo.FindByID(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStrategyNotFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to find strategy", logger.ErrorField(err), logger.Field("strategy_id", id))
		return nil, err
	}
	return strategy, nil
}

func (s *strategyService) GetStrategies(ctx context.Context, userID uint) ([]entity.Strategy, error) {
	strategies, err := s.strategyRepo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list strategies", logger.ErrorField(err), logger.Field("user_id", userID))
		return nil, err
	}
	return strategies, nil
}

func (s *strategyService) UpdateStrategy(ctx context.Context, userID, id uint, req *dto.UpdateStrategyRequest) (*entity.Strategy, error) {
	strategy, err := s.GetStrategy(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		strategy.Name = strings.TrimSpace(*req.Name)
	}
	if req.Symbol != nil {
		strategy.Symbol = strings.TrimSpace(*req.Symbol)
	}
	if req.IsActive != nil {
		strategy.IsActive = *req.IsActive
	}
	if req.VWAPPeriod != nil {
		strategy.VWAPPeriod = *req.VWAPPeriod
	}
	if req.EntryThreshold != nil {
		strategy.EntryThreshold = *req.EntryThreshold
	}
	if req.ExitThreshold != nil {
		strategy.ExitThreshold = *req.ExitThreshold
	}
	if req.StopLossPercent != nil {
		strategy.StopLossPercent = *req.StopLossPercent
	}
	if req.TakeProfitPercent != nil {
		strategy.TakeProfitPercent = *req.TakeProfitPercent
	}
	if req.MaxHoldingDays != nil {
		strategy.MaxHoldingDays = *req.MaxHoldingDays
	}
	if req.OrderQuantity != nil {
		strategy.OrderQuantity = *req.OrderQuantity
	}
	if req.AutoOrder != nil {
		strategy.AutoOrder = *req.AutoOrder
	}
	if req.CronExpression != nil {
		strategy.CronExpression = strings.TrimSpace(*req.CronExpression)
		// reschedule from now
		strategy.NextExecution.Valid = false
	}
	if req.AdditionalParams != nil {
		if err := setAdditionalParams(strategy, req.AdditionalParams); err != nil {
			return nil, err
		}
	}
	if err := s.validate(strategy); err != nil {
		return nil, err
	}

	if err := s.strategyRepo.Update(ctx, strategy); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update strategy", logger.ErrorField(err), logger.Field("strategy_id", id))
		return nil, err
	}

	s.logger.InfoContext(ctx, "Strategy updated", logger.Field("strategy_id", id))
	return strategy, nil
}

func (s *strategyService) DeleteStrategy(ctx context.Context, userID, id uint) error {
	err := s.strategyRepo.Delete(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrStrategyNotFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete strategy", logger.ErrorField(err), logger.Field("strategy_id", id))
		return err
	}
	s.logger.InfoContext(ctx, "Strategy deleted", logger.Field("strategy_id", id))
	return nil
}

func (s *strategyService) validate(strategy *entity.Strategy) error {
	switch {
	case strategy.Name == "":
		return invalidInput("name is required")
	case strategy.Symbol == "":
		return invalidInput("symbol is required")
	case strategy.StrategyType != entity.StrategyTypeVWAP:
		return invalidInput("unsupported strategy_type %q", strategy.StrategyType)
	case strategy.VWAPPeriod <= 0:
		return invalidInput("vwap_period must be positive")
	case strategy.EntryThreshold < 0 || strategy.ExitThreshold <= strategy.EntryThreshold:
		return invalidInput("thresholds must satisfy 0 <= entry_threshold < exit_threshold")
	case strategy.StopLossPercent <= 0 || strategy.TakeProfitPercent <= 0:
		return invalidInput("stop_loss_percent and take_profit_percent must be positive")
	case strategy.OrderQuantity < 0:
		return invalidInput("order_quantity must not be negative")
	case strategy.AutoOrder && strategy.OrderQuantity == 0:
		return invalidInput("auto_order requires order_quantity")
	}

	if strategy.CronExpression != "" {
		if _, err := s.cronParser.Parse(strategy.CronExpression); err != nil {
			return invalidInput("cron_expression: %v", err)
		}
	}
	return nil
}

func setAdditionalParams(strategy *entity.Strategy, params map[string]interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return invalidInput("additional_params: %v", err)
	}
	strategy.AdditionalParams = datatypes.JSON(raw)
	return nil
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
