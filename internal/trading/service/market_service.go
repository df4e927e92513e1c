package service

import (
	"context"
	"time"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/logger"
)

const lastPriceTTL = time.Minute

// MarketService reads quotes from the brokerage and keeps the intraday samples the VWAP model runs on.
type MarketService interface {
	GetCurrentPrice(ctx context.Context, userID uint, accountID *uint, symbol, marketCode string) (*dto.PriceResponse, error)
	Quote(ctx context.Context, account *entity.TradingAccount, symbol, marketCode string) (*dto.PriceResponse, error)
}

// NewMarketService creates a new market service. sampleWindow bounds the samples kept per symbol.
func NewMarketService(gateway BrokerGateway, accountRepo repository.TradingAccountRepository, marketCache repository.MarketCacheRepository, defaultMarketCode string, sampleWindow int, logger *logger.Logger) MarketService {
	if defaultMarketCode == "" {
		defaultMarketCode = kis.DefaultMarketCode
	}
	return &marketService{
		gateway:           gateway,
		accountRepo:       accountRepo,
		marketCache:       marketCache,
		defaultMarketCode: defaultMarketCode,
		sampleWindow:      sampleWindow,
		logger:            logger,
		now:               time.Now,
	}
}

type marketService struct {
	gateway           BrokerGateway
	accountRepo       repository.TradingAccountRepository
	marketCache       repository.MarketCacheRepository
	defaultMarketCode string
	sampleWindow      int
	logger            *logger.Logger
	now               func() time.Time
}

func (s *marketService) GetCurrentPrice(ctx context.Context, userID uint, accountID *uint, symbol, marketCode string) (*dto.PriceResponse, error) {
	if symbol == "" {
		return nil, invalidInput("symbol is required")
	}
	account, err := findActiveAccount(ctx, s.accountRepo, userID, accountID)
	if err != nil {
		return nil, err
	}
	return s.Quote(ctx, account, symbol, marketCode)
}

// Quote fetches the current price and records it as an intraday sample.
func (s *marketService) Quote(ctx context.Context, account *entity.TradingAccount, symbol, marketCode string) (*dto.PriceResponse, error) {
	if marketCode == "" {
		marketCode = s.defaultMarketCode
	}

	resp, err := s.gateway.GetCurrentPrice(ctx, credentialsOf(account), symbol, marketCode)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get current price", logger.ErrorField(err),
			logger.StringField("symbol", symbol), logger.Field("trading_account_id", account.ID))
		return nil, err
	}

	output := objectField(resp, "output")
	price := &dto.PriceResponse{
		Symbol:     symbol,
		MarketCode: marketCode,
		Price:      numberField(output, "stck_prpr"),
		Volume:     int64(numberField(output, "acml_vol")),
		ChangeRate: numberField(output, "prdy_ctrt"),
		Data:       resp,
	}

	if price.Price > 0 {
		if err := s.marketCache.SetLastPrice(ctx, symbol, price.Price, lastPriceTTL); err != nil {
			s.logger.WarnContext(ctx, "Failed to cache last price", logger.ErrorField(err), logger.StringField("symbol", symbol))
		}
		sample := repository.MarketSample{Price: price.Price, CumulativeVolume: price.Volume, Timestamp: s.now()}
		if err := s.marketCache.AppendSample(ctx, symbol, sample, s.sampleWindow); err != nil {
			s.logger.WarnContext(ctx, "Failed to record market sample", logger.ErrorField(err), logger.StringField("symbol", symbol))
		}
	}

	return price, nil
}
