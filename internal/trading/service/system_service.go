package service

import (
	"context"
	"time"

	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/logger"
)

// SystemService reports service status for a caller.
type SystemService interface {
	GetStatus(ctx context.Context, userID uint) (*dto.SystemStatusResponse, error)
}

// NewSystemService creates a new system service.
func NewSystemService(accountRepo repository.TradingAccountRepository, version string, logger *logger.Logger) SystemService {
	return &systemService{
		accountRepo: accountRepo,
		version:     version,
		logger:      logger,
	}
}

type systemService struct {
	accountRepo repository.TradingAccountRepository
	version     string
	logger      *logger.Logger
}

func (s *systemService) GetStatus(ctx context.Context, userID uint) (*dto.SystemStatusResponse, error) {
	count, err := s.accountRepo.CountActive(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to count active accounts", logger.ErrorField(err), logger.Field("user_id", userID))
		return nil, err
	}

	status := "disconnected"
	if count > 0 {
		status = "connected"
	}
	return &dto.SystemStatusResponse{
		APIStatus:      status,
		ActiveAccounts: count,
		UserID:         userID,
		Version:        s.version,
		ServerTime:     time.Now(),
	}, nil
}
