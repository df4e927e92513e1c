package dto

// CreateOrderRequest places a cash order. Price is required for LIMIT orders only.
type CreateOrderRequest struct {
	TradingAccountID *uint                  `json:"trading_account_id"`
	Symbol           string                 `json:"symbol"`
	OrderType        string                 `json:"order_type"`   // BUY, SELL
	OrderMethod      string                 `json:"order_method"` // MARKET, LIMIT
	Quantity         int64                  `json:"quantity"`
	Price            *int64                 `json:"price"`
	StrategyID       *uint                  `json:"strategy_id"`
	Metadata         map[string]interface{} `json:"metadata"`
}

// ListOrdersParam pages through a user's orders.
type ListOrdersParam struct {
	Offset int `query:"skip"`
	Limit  int `query:"limit"`
}
