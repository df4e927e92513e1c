package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/utils"
	"golang-kis-trader/pkg/vwap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var sampleStart = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

func flatSamples(price float64, n int) ([]vwap.PriceSample, []vwap.VolumeSample) {
	prices := make([]vwap.PriceSample, n)
	volumes := make([]vwap.VolumeSample, n)
	for i := 0; i < n; i++ {
		ts := sampleStart.Add(time.Duration(i) * time.Minute)
		prices[i] = vwap.PriceSample{Price: price, Timestamp: ts}
		volumes[i] = vwap.VolumeSample{Volume: 10, Timestamp: ts}
	}
	return prices, volumes
}

func (e *testEnv) createStrategy(t *testing.T, mutate func(s *entity.Strategy)) *entity.Strategy {
	t.Helper()
	strategy := &entity.Strategy{
		UserID:            1,
		TradingAccountID:  e.account.ID,
		Name:              "kodex 200",
		StrategyType:      entity.StrategyTypeVWAP,
		Symbol:            "069500",
		IsActive:          true,
		VWAPPeriod:        1,
		EntryThreshold:    vwap.DefaultEntryThreshold,
		ExitThreshold:     vwap.DefaultExitThreshold,
		StopLossPercent:   vwap.DefaultStopLossPercent,
		TakeProfitPercent: vwap.DefaultTakeProfitPercent,
		MaxHoldingDays:    5,
		AdditionalParams:  datatypes.JSON(`{}`),
	}
	if mutate != nil {
		mutate(strategy)
	}
	require.NoError(t, e.strategies.Create(context.Background(), strategy))
	return strategy
}

func TestSignalService_CalculateVWAPSignal(t *testing.T) {
	env := newTestEnv(t)
	svc := env.signalService()

	ts := []time.Time{sampleStart, sampleStart.Add(time.Minute), sampleStart.Add(2 * time.Minute)}
	resp, err := svc.CalculateVWAPSignal(&dto.VWAPSignalRequest{
		Prices: []vwap.PriceSample{
			{Price: 10, Timestamp: ts[0]}, {Price: 20, Timestamp: ts[1]}, {Price: 30, Timestamp: ts[2]},
		},
		Volumes: []vwap.VolumeSample{
			{Volume: 100, Timestamp: ts[0]}, {Volume: 200, Timestamp: ts[1]}, {Volume: 100, Timestamp: ts[2]},
		},
		CurrentPrice: 18,
	})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, resp.VWAP, 1e-9)
	assert.Equal(t, vwap.SignalBuy, resp.Signal.Kind)
	assert.Greater(t, resp.Bands.Upper, resp.VWAP)
	assert.Less(t, resp.Bands.Lower, resp.VWAP)

	_, err = svc.CalculateVWAPSignal(&dto.VWAPSignalRequest{EntryThreshold: utils.ToPointer(1.0), ExitThreshold: utils.ToPointer(1.0)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignalService_CheckRisk(t *testing.T) {
	env := newTestEnv(t)
	svc := env.signalService()

	verdict, err := svc.CheckRisk(&dto.RiskCheckRequest{EntryPrice: 100, CurrentPrice: 98})
	require.NoError(t, err)
	assert.Equal(t, vwap.RiskStopLoss, verdict.Action)

	verdict, err = svc.CheckRisk(&dto.RiskCheckRequest{EntryPrice: 100, CurrentPrice: 104, TakeProfitPercent: utils.ToPointer(5.0)})
	require.NoError(t, err)
	assert.Equal(t, vwap.RiskHold, verdict.Action)

	_, err = svc.CheckRisk(&dto.RiskCheckRequest{EntryPrice: 0, CurrentPrice: 98})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignalService_EvaluatePlacesSignalOrder(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.priceResp = priceResponse("99.4")
	env.gateway.orderResp = kis.Response{"rt_cd": "0", "output": map[string]interface{}{"ODNO": "0000000001"}}
	strategy := env.createStrategy(t, func(s *entity.Strategy) {
		s.AutoOrder = true
		s.OrderQuantity = 5
	})

	prices, volumes := flatSamples(100, 3)
	result, err := env.signalService().EvaluateStrategy(context.Background(), 1, strategy.ID,
		&dto.EvaluateStrategyRequest{Prices: prices, Volumes: volumes})
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.VWAP)
	assert.Equal(t, 99.4, result.CurrentPrice)
	assert.Equal(t, vwap.SignalBuy, result.Signal.Kind)
	assert.Nil(t, result.Risk)

	require.NotNil(t, result.Order)
	assert.Equal(t, entity.OrderStatusSubmitted, result.Order.Status)
	require.NotNil(t, result.Order.StrategyID)
	assert.Equal(t, strategy.ID, *result.Order.StrategyID)

	require.Len(t, env.gateway.orders, 1)
	assert.Equal(t, kis.SideBuy, env.gateway.orders[0].Side)
	assert.Equal(t, kis.MethodMarket, env.gateway.orders[0].Method)
	assert.Equal(t, int64(5), env.gateway.orders[0].Quantity)
}

func TestSignalService_EvaluateStopLossClosesPosition(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.priceResp = priceResponse("99.4")
	env.gateway.orderResp = kis.Response{"rt_cd": "0", "output": map[string]interface{}{"ODNO": "0000000002"}}
	strategy := env.createStrategy(t, func(s *entity.Strategy) {
		s.AutoOrder = true
		s.OrderQuantity = 5
		s.AdditionalParams = datatypes.JSON(`{"entry_price": 102}`)
	})

	prices, volumes := flatSamples(100, 3)
	result, err := env.signalService().Evaluate(context.Background(), strategy,
		&dto.EvaluateStrategyRequest{Prices: prices, Volumes: volumes})
	require.NoError(t, err)

	require.NotNil(t, result.Risk)
	assert.Equal(t, vwap.RiskStopLoss, result.Risk.Action)
	require.Len(t, env.gateway.orders, 1)
	assert.Equal(t, kis.SideSell, env.gateway.orders[0].Side)
	// risk alert and order notification
	assert.Len(t, env.notifier.messages, 2)
}

// storedEntryPrice reloads the strategy and reports its recorded position.
func (e *testEnv) storedEntryPrice(t *testing.T, id uint) (float64, bool) {
	t.Helper()
	strategy, err := e.strategies.FindByID(context.Background(), id, 1)
	require.NoError(t, err)
	params := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(strategy.AdditionalParams, &params))
	price, ok := params["entry_price"].(float64)
	return price, ok
}

func TestSignalService_EvaluateStopLossSellsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.priceResp = priceResponse("99.4")
	env.gateway.orderResp = kis.Response{"rt_cd": "0", "output": map[string]interface{}{"ODNO": "0000000003"}}
	strategy := env.createStrategy(t, func(s *entity.Strategy) {
		s.AutoOrder = true
		s.OrderQuantity = 5
		s.AdditionalParams = datatypes.JSON(`{"entry_price": 102, "note": "swing"}`)
	})

	// price sits on the VWAP so only the stop loss can trigger an order
	prices, volumes := flatSamples(99.4, 3)
	for i := 0; i < 3; i++ {
		_, err := env.signalService().EvaluateStrategy(context.Background(), 1, strategy.ID,
			&dto.EvaluateStrategyRequest{Prices: prices, Volumes: volumes})
		require.NoError(t, err)
	}

	require.Len(t, env.gateway.orders, 1)
	assert.Equal(t, kis.SideSell, env.gateway.orders[0].Side)
	_, holding := env.storedEntryPrice(t, strategy.ID)
	assert.False(t, holding)

	stored, err := env.strategies.FindByID(context.Background(), strategy.ID, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"note": "swing"}`, string(stored.AdditionalParams))
}

func TestSignalService_EvaluateHoldsSinglePosition(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.priceResp = priceResponse("99.4")
	env.gateway.orderResp = kis.Response{"rt_cd": "0", "output": map[string]interface{}{"ODNO": "0000000004"}}
	strategy := env.createStrategy(t, func(s *entity.Strategy) {
		s.AutoOrder = true
		s.OrderQuantity = 5
	})
	ctx := context.Background()
	prices, volumes := flatSamples(100, 3)
	req := &dto.EvaluateStrategyRequest{Prices: prices, Volumes: volumes}

	for i := 0; i < 2; i++ {
		result, err := env.signalService().EvaluateStrategy(ctx, 1, strategy.ID, req)
		require.NoError(t, err)
		assert.Equal(t, vwap.SignalBuy, result.Signal.Kind)
	}
	require.Len(t, env.gateway.orders, 1)
	assert.Equal(t, kis.SideBuy, env.gateway.orders[0].Side)
	entry, holding := env.storedEntryPrice(t, strategy.ID)
	require.True(t, holding)
	assert.Equal(t, 99.4, entry)

	// 0.8% above the VWAP and well inside the risk limits of the open position
	env.gateway.priceResp = priceResponse("100.8")
	result, err := env.signalService().EvaluateStrategy(ctx, 1, strategy.ID, req)
	require.NoError(t, err)
	assert.Equal(t, vwap.SignalSell, result.Signal.Kind)
	assert.Equal(t, vwap.RiskHold, result.Risk.Action)

	require.Len(t, env.gateway.orders, 2)
	assert.Equal(t, kis.SideSell, env.gateway.orders[1].Side)
	_, holding = env.storedEntryPrice(t, strategy.ID)
	assert.False(t, holding)
}

func TestSignalService_EvaluateRejectedOrderKeepsPosition(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.priceResp = priceResponse("99.4")
	env.gateway.orderResp = kis.Response{"rt_cd": "1", "msg_cd": "APBK0919", "msg1": "insufficient balance"}
	strategy := env.createStrategy(t, func(s *entity.Strategy) {
		s.AutoOrder = true
		s.OrderQuantity = 5
	})

	prices, volumes := flatSamples(100, 3)
	result, err := env.signalService().EvaluateStrategy(context.Background(), 1, strategy.ID,
		&dto.EvaluateStrategyRequest{Prices: prices, Volumes: volumes})
	require.NoError(t, err)

	require.NotNil(t, result.Order)
	assert.Equal(t, entity.OrderStatusFailed, result.Order.Status)
	_, holding := env.storedEntryPrice(t, strategy.ID)
	assert.False(t, holding)
}

func TestSignalService_EvaluateWithoutAutoOrder(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.priceResp = priceResponse("104")
	strategy := env.createStrategy(t, nil)

	prices, volumes := flatSamples(100, 2)
	entry := 100.0
	result, err := env.signalService().Evaluate(context.Background(), strategy,
		&dto.EvaluateStrategyRequest{Prices: prices, Volumes: volumes, EntryPrice: &entry})
	require.NoError(t, err)

	assert.Equal(t, vwap.SignalSell, result.Signal.Kind)
	assert.Equal(t, vwap.RiskTakeProfit, result.Risk.Action)
	assert.Nil(t, result.Order)
	assert.Empty(t, env.gateway.orders)
	assert.Len(t, env.notifier.messages, 1)
}

func TestSignalService_EvaluateUsesRecordedSamples(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i, s := range []repository.MarketSample{
		{Price: 100, CumulativeVolume: 1000},
		{Price: 100, CumulativeVolume: 1100},
		{Price: 100, CumulativeVolume: 1300},
	} {
		s.Timestamp = sampleStart.Add(time.Duration(i) * time.Minute)
		require.NoError(t, env.market.AppendSample(ctx, "069500", s, 50))
	}
	// the quote below appends one more sample at 100.6 with no new volume
	env.gateway.priceResp = priceResponse("100.6")
	env.gateway.priceResp["output"].(map[string]interface{})["acml_vol"] = "1300"
	strategy := env.createStrategy(t, nil)

	result, err := env.signalService().Evaluate(ctx, strategy, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.VWAP)
	assert.Equal(t, vwap.SignalSell, result.Signal.Kind)
}

func TestSignalService_EvaluateRejectsForeignAccount(t *testing.T) {
	env := newTestEnv(t)
	strategy := env.createStrategy(t, func(s *entity.Strategy) { s.UserID = 2 })

	_, err := env.signalService().Evaluate(context.Background(), strategy, nil)
	assert.ErrorIs(t, err, ErrTradingAccountNotFound)
	assert.Empty(t, env.gateway.creds)

	_, err = env.signalService().EvaluateStrategy(context.Background(), 1, strategy.ID, nil)
	assert.ErrorIs(t, err, ErrStrategyNotFound)
}
