package entity

import "time"

// Balance is a snapshot of one holding as reported by the brokerage.
type Balance struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	TradingAccountID uint      `gorm:"not null;index" json:"trading_account_id"`
	Symbol           string    `gorm:"size:20;not null" json:"symbol"`
	Quantity         int64     `gorm:"not null" json:"quantity"`
	AveragePrice     float64   `json:"average_price"`
	CurrentPrice     float64   `json:"current_price"`
	TotalValue       float64   `json:"total_value"`
	ProfitLoss       float64   `json:"profit_loss"`
	ProfitLossRate   float64   `json:"profit_loss_rate"`
	SnapshotAt       time.Time `gorm:"not null;index" json:"snapshot_at"`
}

func (Balance) TableName() string {
	return "balances"
}
