package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

const StrategyTypeVWAP = "VWAP"

// Strategy is a user's VWAP trading configuration for one symbol.
type Strategy struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	TradingAccountID  uint           `gorm:"not null;index" json:"trading_account_id"`
	Name              string         `gorm:"size:100;not null" json:"name"`
	StrategyType      string         `gorm:"size:20;not null;default:VWAP" json:"strategy_type"`
	Symbol            string         `gorm:"size:20;not null" json:"symbol"`
	IsActive          bool           `gorm:"not null" json:"is_active"`
	VWAPPeriod        int            `gorm:"not null;default:1" json:"vwap_period"` // days
	EntryThreshold    float64        `gorm:"not null" json:"entry_threshold"`
	ExitThreshold     float64        `gorm:"not null" json:"exit_threshold"`
	StopLossPercent   float64        `gorm:"not null" json:"stop_loss_percent"`
	TakeProfitPercent float64        `gorm:"not null" json:"take_profit_percent"`
	MaxHoldingDays    int            `gorm:"not null;default:5" json:"max_holding_days"`
	OrderQuantity     int64          `gorm:"not null;default:0" json:"order_quantity"`
	AutoOrder         bool           `gorm:"not null" json:"auto_order"`
	CronExpression    string         `gorm:"size:100" json:"cron_expression"`
	NextExecution     sql.NullTime   `json:"next_execution" swaggertype:"string" format:"date-time"`
	LastExecution     sql.NullTime   `json:"last_execution" swaggertype:"string" format:"date-time"`
	AdditionalParams  datatypes.JSON `json:"additional_params,omitempty" swaggertype:"object"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Strategy) TableName() string {
	return "strategies"
}
