package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/pkg/vwap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEvaluator struct {
	mu        sync.Mutex
	evaluated []uint
}

func (c *countingEvaluator) CalculateVWAPSignal(*dto.VWAPSignalRequest) (*dto.VWAPSignalResponse, error) {
	return nil, nil
}

func (c *countingEvaluator) CheckRisk(*dto.RiskCheckRequest) (*vwap.RiskVerdict, error) {
	return nil, nil
}

func (c *countingEvaluator) EvaluateStrategy(context.Context, uint, uint, *dto.EvaluateStrategyRequest) (*dto.EvaluationResult, error) {
	return nil, nil
}

func (c *countingEvaluator) Evaluate(_ context.Context, strategy *entity.Strategy, _ *dto.EvaluateStrategyRequest) (*dto.EvaluationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluated = append(c.evaluated, strategy.ID)
	return &dto.EvaluationResult{StrategyID: strategy.ID}, nil
}

func TestStrategyScheduler_ProcessDueStrategies(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 10, 16, 1, 2, 0, 0, time.UTC)

	due := env.createStrategy(t, func(s *entity.Strategy) { s.CronExpression = "*/5 * * * *" })
	later := env.createStrategy(t, func(s *entity.Strategy) {
		s.CronExpression = "*/5 * * * *"
		s.NextExecution = sql.NullTime{Time: now.Add(time.Hour), Valid: true}
	})
	unscheduled := env.createStrategy(t, nil)
	inactive := env.createStrategy(t, func(s *entity.Strategy) { s.CronExpression = "*/5 * * * *" })
	inactive.IsActive = false
	require.NoError(t, env.strategies.Update(context.Background(), inactive))

	evaluator := &countingEvaluator{}
	scheduler := NewStrategySchedulerService(env.strategies, evaluator, env.log, time.Minute).(*strategySchedulerService)
	scheduler.now = func() time.Time { return now }

	scheduler.ProcessDueStrategies(context.Background())
	assert.Equal(t, []uint{due.ID}, evaluator.evaluated)

	stored, err := env.strategies.FindByID(context.Background(), due.ID, 1)
	require.NoError(t, err)
	require.True(t, stored.LastExecution.Valid)
	require.True(t, stored.NextExecution.Valid)
	assert.True(t, stored.LastExecution.Time.Equal(now))
	assert.True(t, stored.NextExecution.Time.Equal(now.Add(3*time.Minute)))

	stored, err = env.strategies.FindByID(context.Background(), later.ID, 1)
	require.NoError(t, err)
	assert.False(t, stored.LastExecution.Valid)

	stored, err = env.strategies.FindByID(context.Background(), unscheduled.ID, 1)
	require.NoError(t, err)
	assert.False(t, stored.NextExecution.Valid)

	// nothing is due until the next slot
	scheduler.ProcessDueStrategies(context.Background())
	assert.Len(t, evaluator.evaluated, 1)
}

func TestStrategyScheduler_StartStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	scheduler := NewStrategySchedulerService(env.strategies, &countingEvaluator{}, env.log, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
