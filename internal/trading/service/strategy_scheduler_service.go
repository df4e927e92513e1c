package service

import (
	"context"
	"time"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/logger"

	"github.com/robfig/cron/v3"
)

// StrategySchedulerService evaluates active strategies on their cron schedule.
type StrategySchedulerService interface {
	Start(ctx context.Context)
	ProcessDueStrategies(ctx context.Context)
}

// NewStrategySchedulerService creates a new strategy scheduler.
func NewStrategySchedulerService(strategyRepo repository.StrategyRepository, signalService SignalService, logger *logger.Logger, pollingInterval time.Duration) StrategySchedulerService {
	if pollingInterval <= 0 {
		pollingInterval = time.Minute
	}
	return &strategySchedulerService{
		strategyRepo:    strategyRepo,
		signalService:   signalService,
		logger:          logger,
		pollingInterval: pollingInterval,
		cronParser:      newCronParser(),
		now:             time.Now,
	}
}

type strategySchedulerService struct {
	strategyRepo    repository.StrategyRepository
	signalService   SignalService
	logger          *logger.Logger
	pollingInterval time.Duration
	cronParser      cron.Parser
	now             func() time.Time
}

// Start begins the periodic evaluation loop.
func (s *strategySchedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Strategy scheduler stopping")
			return
		case <-ticker.C:
			s.ProcessDueStrategies(ctx)
		}
	}
}

// ProcessDueStrategies evaluates every strategy whose next execution has come.
func (s *strategySchedulerService) ProcessDueStrategies(ctx context.Context) {
	now := s.now()
	strategies, err := s.strategyRepo.FindDue(ctx, now)
	if err != nil {
		s.logger.Error("Failed to find strategies to evaluate", logger.ErrorField(err))
		return
	}

	for i := range strategies {
		if ctx.Err() != nil {
			return
		}
		s.evaluate(ctx, &strategies[i], now)
	}
}

func (s *strategySchedulerService) evaluate(ctx context.Context, strategy *entity.Strategy, now time.Time) {
	schedule, err := s.cronParser.Parse(strategy.CronExpression)
	if err != nil {
		s.logger.Error("Failed to parse cron expression", logger.ErrorField(err), logger.Field("strategy_id", strategy.ID))
		return
	}

	if _, err := s.signalService.Evaluate(ctx, strategy, nil); err != nil {
		s.logger.Error("Failed to evaluate strategy", logger.ErrorField(err), logger.Field("strategy_id", strategy.ID))
	}

	// A failed run waits for the next slot; it is not retried.
	strategy.LastExecution.Time = now
	strategy.LastExecution.Valid = true
	strategy.NextExecution.Time = schedule.Next(now)
	strategy.NextExecution.Valid = true

	if err := s.strategyRepo.Update(ctx, strategy); err != nil {
		s.logger.Error("Failed to update next execution time", logger.ErrorField(err), logger.Field("strategy_id", strategy.ID))
	}
}
