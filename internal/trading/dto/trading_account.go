package dto

import "time"

// CreateTradingAccountRequest registers brokerage credentials for the caller.
type CreateTradingAccountRequest struct {
	AccountNumber string `json:"account_number"`
	AppKey        string `json:"app_key"`
	AppSecret     string `json:"app_secret"`
}

// TradingAccountResponse never carries the app key or secret.
type TradingAccountResponse struct {
	ID            uint      `json:"id"`
	AccountNumber string    `json:"account_number"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
