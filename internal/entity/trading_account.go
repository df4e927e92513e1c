package entity

import "time"

// TradingAccount holds the brokerage credentials of one user account.
type TradingAccount struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	AccountNumber string    `gorm:"size:10;not null" json:"account_number"`
	AppKey        string    `gorm:"not null" json:"-"`
	AppSecret     string    `gorm:"not null" json:"-"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TradingAccount) TableName() string {
	return "trading_accounts"
}
