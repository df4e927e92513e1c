package service

import (
	"context"
	"time"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/logger"
)

// BalanceService reads account holdings and keeps a snapshot of every read.
type BalanceService interface {
	GetBalance(ctx context.Context, userID uint, accountID *uint) (*dto.BalanceResponse, error)
}

// NewBalanceService creates a new balance service.
func NewBalanceService(gateway BrokerGateway, accountRepo repository.TradingAccountRepository, balanceRepo repository.BalanceRepository, logger *logger.Logger) BalanceService {
	return &balanceService{
		gateway:     gateway,
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
		logger:      logger,
		now:         time.Now,
	}
}

type balanceService struct {
	gateway     BrokerGateway
	accountRepo repository.TradingAccountRepository
	balanceRepo repository.BalanceRepository
	logger      *logger.Logger
	now         func() time.Time
}

func (s *balanceService) GetBalance(ctx context.Context, userID uint, accountID *uint) (*dto.BalanceResponse, error) {
	account, err := findActiveAccount(ctx, s.accountRepo, userID, accountID)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.GetBalance(ctx, credentialsOf(account))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get balance", logger.ErrorField(err), logger.Field("trading_account_id", account.ID))
		return nil, err
	}

	snapshotAt := s.now()
	holdings := make([]entity.Balance, 0)
	for _, item := range objectList(resp, "output1") {
		holdings = append(holdings, entity.Balance{
			UserID:           userID,
			TradingAccountID: account.ID,
			Symbol:           stringField(item, "pdno"),
			Quantity:         int64(numberField(item, "hldg_qty")),
			AveragePrice:     numberField(item, "pchs_avg_pric"),
			CurrentPrice:     numberField(item, "prpr"),
			TotalValue:       numberField(item, "evlu_amt"),
			ProfitLoss:       numberField(item, "evlu_pfls_amt"),
			ProfitLossRate:   numberField(item, "evlu_pfls_rt"),
			SnapshotAt:       snapshotAt,
		})
	}

	if err := s.balanceRepo.CreateSnapshot(ctx, holdings); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store balance snapshot", logger.ErrorField(err), logger.Field("trading_account_id", account.ID))
	}

	result := &dto.BalanceResponse{
		TradingAccountID: account.ID,
		Holdings:         holdings,
	}
	if summary := objectList(resp, "output2"); len(summary) > 0 {
		result.Summary = summary[0]
	}
	return result, nil
}
