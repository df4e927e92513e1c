package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/kis"

	"gorm.io/gorm"
)

var (
	ErrTradingAccountNotFound = errors.New("trading account not found")
	ErrStrategyNotFound       = errors.New("strategy not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrOrderRejected          = errors.New("order rejected by broker")
)

// BrokerGateway is the subset of the brokerage client used by the services.
type BrokerGateway interface {
	GetCurrentPrice(ctx context.Context, creds kis.Credentials, symbol, marketCode string) (kis.Response, error)
	GetBalance(ctx context.Context, creds kis.Credentials) (kis.Response, error)
	PlaceOrder(ctx context.Context, creds kis.Credentials, order kis.OrderRequest) (kis.Response, error)
	GetNews(ctx context.Context, creds kis.Credentials, symbol string) (kis.Response, error)
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// findActiveAccount resolves the account a request acts on.
func findActiveAccount(ctx context.Context, repo repository.TradingAccountRepository, userID uint, accountID *uint) (*entity.TradingAccount, error) {
	account, err := repo.FindActive(ctx, userID, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTradingAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func credentialsOf(account *entity.TradingAccount) kis.Credentials {
	return kis.Credentials{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		AppKey:        account.AppKey,
		AppSecret:     account.AppSecret,
	}
}

// numberField reads a numeric field of a brokerage payload; the brokerage sends numbers as strings.
func numberField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	}
	return 0
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func objectField(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func objectList(m map[string]interface{}, key string) []map[string]interface{} {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]interface{}); ok {
			out = append(out, obj)
		}
	}
	return out
}
