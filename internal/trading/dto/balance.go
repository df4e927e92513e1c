package dto

import "golang-kis-trader/internal/entity"

// BalanceResponse lists the holdings of an account.
type BalanceResponse struct {
	TradingAccountID uint                   `json:"trading_account_id"`
	Holdings         []entity.Balance       `json:"holdings"`
	Summary          map[string]interface{} `json:"summary,omitempty"`
}
