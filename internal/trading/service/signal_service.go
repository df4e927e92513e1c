package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/logger"
	"golang-kis-trader/pkg/metrics"
	"golang-kis-trader/pkg/telegram"
	"golang-kis-trader/pkg/utils"
	"golang-kis-trader/pkg/vwap"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SignalService runs the VWAP model, either on caller supplied samples or for a stored strategy.
type SignalService interface {
	CalculateVWAPSignal(req *dto.VWAPSignalRequest) (*dto.VWAPSignalResponse, error)
	CheckRisk(req *dto.RiskCheckRequest) (*vwap.RiskVerdict, error)
	EvaluateStrategy(ctx context.Context, userID, strategyID uint, req *dto.EvaluateStrategyRequest) (*dto.EvaluationResult, error)
	Evaluate(ctx context.Context, strategy *entity.Strategy, req *dto.EvaluateStrategyRequest) (*dto.EvaluationResult, error)
}

// NewSignalService creates a new signal service.
func NewSignalService(
	strategyRepo repository.StrategyRepository,
	accountRepo repository.TradingAccountRepository,
	marketCache repository.MarketCacheRepository,
	marketService MarketService,
	orderService OrderService,
	notifier telegram.Notifier,
	logger *logger.Logger,
) SignalService {
	return &signalService{
		strategyRepo:  strategyRepo,
		accountRepo:   accountRepo,
		marketCache:   marketCache,
		marketService: marketService,
		orderService:  orderService,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

type signalService struct {
	strategyRepo  repository.StrategyRepository
	accountRepo   repository.TradingAccountRepository
	marketCache   repository.MarketCacheRepository
	marketService MarketService
	orderService  OrderService
	notifier      telegram.Notifier
	logger        *logger.Logger
	now           func() time.Time
}

func (s *signalService) CalculateVWAPSignal(req *dto.VWAPSignalRequest) (*dto.VWAPSignalResponse, error) {
	entry := valueOr(req.EntryThreshold, vwap.DefaultEntryThreshold)
	exit := valueOr(req.ExitThreshold, vwap.DefaultExitThreshold)
	if entry < 0 || exit <= entry {
		return nil, invalidInput("thresholds must satisfy 0 <= entry_threshold < exit_threshold")
	}

	value := vwap.Calculate(req.Prices, req.Volumes)
	signal := vwap.GenerateSignal(req.CurrentPrice, value, entry, exit)
	metrics.Signals.WithLabelValues(string(signal.Kind)).Inc()

	return &dto.VWAPSignalResponse{
		VWAP:   value,
		Bands:  vwap.CalculateBands(value, req.Prices, req.Volumes, valueOr(req.BandWidth, vwap.DefaultBandWidth)),
		Signal: signal,
	}, nil
}

func (s *signalService) CheckRisk(req *dto.RiskCheckRequest) (*vwap.RiskVerdict, error) {
	if req.EntryPrice <= 0 {
		return nil, invalidInput("entry_price must be positive")
	}
	verdict := vwap.CheckStopLossTakeProfit(req.EntryPrice, req.CurrentPrice,
		valueOr(req.StopLossPercent, vwap.DefaultStopLossPercent),
		valueOr(req.TakeProfitPercent, vwap.DefaultTakeProfitPercent))
	metrics.RiskVerdicts.WithLabelValues(string(verdict.Action)).Inc()
	return &verdict, nil
}

func (s *signalService) EvaluateStrategy(ctx context.Context, userID, strategyID uint, req *dto.EvaluateStrategyRequest) (*dto.EvaluationResult, error) {
	strategy, err := s.strategyRepo.FindByID(ctx, strategyID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStrategyNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Evaluate(ctx, strategy, req)
}

// Evaluate quotes the strategy's symbol, runs the model and, for auto order
// strategies, places the resulting order. A failed order is logged and
// reported on the result; it does not fail the evaluation.
func (s *signalService) Evaluate(ctx context.Context, strategy *entity.Strategy, req *dto.EvaluateStrategyRequest) (*dto.EvaluationResult, error) {
	if req == nil {
		req = &dto.EvaluateStrategyRequest{}
	}
	fields := []logger.ZapField{
		logger.Field("strategy_id", strategy.ID),
		logger.StringField("symbol", strategy.Symbol),
	}

	account, err := s.accountRepo.FindActiveByID(ctx, strategy.TradingAccountID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && account.UserID != strategy.UserID) {
		return nil, ErrTradingAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	quote, err := s.marketService.Quote(ctx, account, strategy.Symbol, "")
	if err != nil {
		return nil, err
	}

	prices, volumes := req.Prices, req.Volumes
	if len(prices) == 0 || len(volumes) == 0 {
		prices, volumes, err = s.marketCache.Samples(ctx, strategy.Symbol)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to load market samples", append(fields, logger.ErrorField(err))...)
		}
	}

	value := vwap.Calculate(prices, volumes)
	result := &dto.EvaluationResult{
		StrategyID:   strategy.ID,
		Symbol:       strategy.Symbol,
		CurrentPrice: quote.Price,
		VWAP:         value,
		Bands:        vwap.CalculateBands(value, prices, volumes, vwap.DefaultBandWidth),
		Signal:       vwap.GenerateSignal(quote.Price, value, strategy.EntryThreshold, strategy.ExitThreshold),
		EvaluatedAt:  s.now(),
	}
	metrics.Signals.WithLabelValues(string(result.Signal.Kind)).Inc()

	entryPrice := s.entryPrice(strategy, req)
	if entryPrice > 0 {
		verdict := vwap.CheckStopLossTakeProfit(entryPrice, quote.Price, strategy.StopLossPercent, strategy.TakeProfitPercent)
		result.Risk = &verdict
		metrics.RiskVerdicts.WithLabelValues(string(verdict.Action)).Inc()

		if verdict.Actionable() {
			if err := s.notifier.SendMessage(telegram.FormatRiskVerdictMessage(strategy, verdict, quote.Price)); err != nil {
				s.logger.WarnContext(ctx, "Failed to send risk notification", append(fields, logger.ErrorField(err))...)
			}
		}
	}

	s.logger.InfoContext(ctx, "Strategy evaluated", append(fields,
		logger.FloatField("vwap", value),
		logger.FloatField("price", quote.Price),
		logger.StringField("signal", string(result.Signal.Kind)))...)

	if side, ok := orderSide(strategy, result, entryPrice > 0); ok {
		order, err := s.orderService.PlaceOrder(ctx, strategy.UserID, &dto.CreateOrderRequest{
			TradingAccountID: utils.ToPointer(strategy.TradingAccountID),
			Symbol:           strategy.Symbol,
			OrderType:        string(side),
			OrderMethod:      string(kis.MethodMarket),
			Quantity:         strategy.OrderQuantity,
			StrategyID:       utils.ToPointer(strategy.ID),
			Metadata: map[string]interface{}{
				"signal": result.Signal,
				"risk":   result.Risk,
				"vwap":   value,
			},
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to place strategy order", append(fields, logger.ErrorField(err))...)
		}
		result.Order = order
		// UNKNOWN orders may have executed, so only a rejection leaves the position as it was.
		if order != nil && order.Status != entity.OrderStatusFailed {
			s.recordPosition(ctx, strategy, side, quote.Price, fields)
		}
	}

	return result, nil
}

// entryPrice is taken from the request, falling back to the strategy's additional params.
func (s *signalService) entryPrice(strategy *entity.Strategy, req *dto.EvaluateStrategyRequest) float64 {
	if req.EntryPrice != nil {
		return *req.EntryPrice
	}
	if len(strategy.AdditionalParams) == 0 {
		return 0
	}
	var params struct {
		EntryPrice float64 `json:"entry_price"`
	}
	if err := json.Unmarshal(strategy.AdditionalParams, &params); err != nil {
		return 0
	}
	return params.EntryPrice
}

// orderSide decides the order an auto order strategy places. A strategy holds
// at most one position: BUY opens it and SELL closes it. An actionable risk
// verdict closes the position and takes precedence over the signal.
func orderSide(strategy *entity.Strategy, result *dto.EvaluationResult, holding bool) (kis.OrderSide, bool) {
	if !strategy.AutoOrder || strategy.OrderQuantity <= 0 {
		return "", false
	}
	if holding && result.Risk != nil && result.Risk.Actionable() {
		return kis.SideSell, true
	}
	switch result.Signal.Kind {
	case vwap.SignalBuy:
		return kis.SideBuy, !holding
	case vwap.SignalSell:
		return kis.SideSell, holding
	}
	return "", false
}

// recordPosition stores the open position as additional_params.entry_price,
// set by a BUY at the quoted price and cleared by a SELL.
func (s *signalService) recordPosition(ctx context.Context, strategy *entity.Strategy, side kis.OrderSide, price float64, fields []logger.ZapField) {
	params := map[string]interface{}{}
	if len(strategy.AdditionalParams) > 0 {
		if err := json.Unmarshal(strategy.AdditionalParams, &params); err != nil || params == nil {
			params = map[string]interface{}{}
		}
	}
	if side == kis.SideBuy {
		params["entry_price"] = price
	} else {
		delete(params, "entry_price")
	}

	raw, err := json.Marshal(params)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode strategy position", append(fields, logger.ErrorField(err))...)
		return
	}
	strategy.AdditionalParams = datatypes.JSON(raw)
	if err := s.strategyRepo.Update(context.WithoutCancel(ctx), strategy); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record strategy position", append(fields, logger.ErrorField(err))...)
	}
}
