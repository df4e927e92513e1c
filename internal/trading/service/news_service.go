package service

import (
	"context"

	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/logger"
)

const newsLimit = 30

// NewsService merges the brokerage news endpoint with RSS headlines.
type NewsService interface {
	GetNews(ctx context.Context, userID uint, symbol string) (*dto.NewsResponse, error)
}

// NewNewsService creates a new news service.
func NewNewsService(gateway BrokerGateway, accountRepo repository.TradingAccountRepository, feedRepo repository.NewsFeedRepository, logger *logger.Logger) NewsService {
	return &newsService{
		gateway:     gateway,
		accountRepo: accountRepo,
		feedRepo:    feedRepo,
		logger:      logger,
	}
}

type newsService struct {
	gateway     BrokerGateway
	accountRepo repository.TradingAccountRepository
	feedRepo    repository.NewsFeedRepository
	logger      *logger.Logger
}

// GetNews fails only when neither source produced anything.
func (s *newsService) GetNews(ctx context.Context, userID uint, symbol string) (*dto.NewsResponse, error) {
	resp := &dto.NewsResponse{Symbol: symbol, Items: []dto.NewsItem{}}

	var kisErr error
	account, err := findActiveAccount(ctx, s.accountRepo, userID, nil)
	if err == nil {
		resp.KIS, kisErr = s.gateway.GetNews(ctx, credentialsOf(account), symbol)
		if kisErr != nil {
			s.logger.WarnContext(ctx, "Failed to get news from KIS", logger.ErrorField(kisErr), logger.StringField("symbol", symbol))
		}
	} else {
		kisErr = err
	}

	items, feedErr := s.feedRepo.Fetch(ctx, symbol, newsLimit)
	if feedErr != nil {
		s.logger.WarnContext(ctx, "Failed to get news from RSS feeds", logger.ErrorField(feedErr), logger.StringField("symbol", symbol))
	} else {
		resp.Items = append(resp.Items, items...)
	}

	if kisErr != nil && feedErr != nil {
		return nil, kisErr
	}
	return resp, nil
}
