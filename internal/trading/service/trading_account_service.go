package service

import (
	"context"
	"strings"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/logger"
)

// TradingAccountService manages brokerage credentials.
type TradingAccountService interface {
	CreateTradingAccount(ctx context.Context, userID uint, req *dto.CreateTradingAccountRequest) (*dto.TradingAccountResponse, error)
	GetTradingAccounts(ctx context.Context, userID uint) ([]dto.TradingAccountResponse, error)
}

// NewTradingAccountService creates a new trading account service.
func NewTradingAccountService(accountRepo repository.TradingAccountRepository, logger *logger.Logger) TradingAccountService {
	return &tradingAccountService{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

type tradingAccountService struct {
	accountRepo repository.TradingAccountRepository
	logger      *logger.Logger
}

func (s *tradingAccountService) CreateTradingAccount(ctx context.Context, userID uint, req *dto.CreateTradingAccountRequest) (*dto.TradingAccountResponse, error) {
	accountNumber := strings.ReplaceAll(strings.TrimSpace(req.AccountNumber), "-", "")
	if _, _, err := kis.SplitAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.AppKey) == "" || strings.TrimSpace(req.AppSecret) == "" {
		return nil, invalidInput("app_key and app_secret are required")
	}

	account := &entity.TradingAccount{
		UserID:        userID,
		AccountNumber: accountNumber,
		AppKey:        strings.TrimSpace(req.AppKey),
		AppSecret:     strings.TrimSpace(req.AppSecret),
		IsActive:      true,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		s.logger.Error("Failed to create trading account", logger.ErrorField(err), logger.Field("user_id", userID))
		return nil, err
	}

	s.logger.Info("Trading account created", logger.Field("trading_account_id", account.ID), logger.Field("user_id", userID))
	resp := toTradingAccountResponse(account)
	return &resp, nil
}

func (s *tradingAccountService) GetTradingAccounts(ctx context.Context, userID uint) ([]dto.TradingAccountResponse, error) {
	accounts, err := s.accountRepo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list trading accounts", logger.ErrorField(err), logger.Field("user_id", userID))
		return nil, err
	}

	resp := make([]dto.TradingAccountResponse, 0, len(accounts))
	for i := range accounts {
		resp = append(resp, toTradingAccountResponse(&accounts[i]))
	}
	return resp, nil
}

func toTradingAccountResponse(account *entity.TradingAccount) dto.TradingAccountResponse {
	return dto.TradingAccountResponse{
		ID:            account.ID,
		AccountNumber: account.AccountNumber,
		IsActive:      account.IsActive,
		CreatedAt:     account.CreatedAt,
	}
}
