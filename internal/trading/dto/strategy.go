package dto

// CreateStrategyRequest creates a strategy. Unset numeric fields take the VWAP defaults.
type CreateStrategyRequest struct {
	TradingAccountID  uint                   `json:"trading_account_id"`
	Name              string                 `json:"name"`
	StrategyType      string                 `json:"strategy_type"`
	Symbol            string                 `json:"symbol"`
	IsActive          bool                   `json:"is_active"`
	VWAPPeriod        *int                   `json:"vwap_period"`
	EntryThreshold    *float64               `json:"entry_threshold"`
	ExitThreshold     *float64               `json:"exit_threshold"`
	StopLossPercent   *float64               `json:"stop_loss_percent"`
	TakeProfitPercent *float64               `json:"take_profit_percent"`
	MaxHoldingDays    *int                   `json:"max_holding_days"`
	OrderQuantity     int64                  `json:"order_quantity"`
	AutoOrder         bool                   `json:"auto_order"`
	CronExpression    string                 `json:"cron_expression"`
	AdditionalParams  map[string]interface{} `json:"additional_params"`
}

// UpdateStrategyRequest changes only the fields that are set.
type UpdateStrategyRequest struct {
	Name              *string                `json:"name"`
	Symbol            *string                `json:"symbol"`
	IsActive          *bool                  `json:"is_active"`
	VWAPPeriod        *int                   `json:"vwap_period"`
	EntryThreshold    *float64               `json:"entry_threshold"`
	ExitThreshold     *float64               `json:"exit_threshold"`
	StopLossPercent   *float64               `json:"stop_loss_percent"`
	TakeProfitPercent *float64               `json:"take_profit_percent"`
	MaxHoldingDays    *int                   `json:"max_holding_days"`
	OrderQuantity     *int64                 `json:"order_quantity"`
	AutoOrder         *bool                  `json:"auto_order"`
	CronExpression    *string                `json:"cron_expression"`
	AdditionalParams  map[string]interface{} `json:"additional_params"`
}
