package entity

import "time"

// KISToken is one issued access token. Rows are append-only; the newest row
// of an account is the one in use.
type KISToken struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TradingAccountID uint      `gorm:"not null;index" json:"trading_account_id"`
	AccessToken      string    `gorm:"not null" json:"-"`
	TokenType        string    `gorm:"not null;default:Bearer" json:"token_type"`
	IssuedAt         time.Time `gorm:"not null" json:"issued_at"`
	ExpiresIn        int64     `gorm:"not null;default:86400" json:"expires_in"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (KISToken) TableName() string {
	return "kis_tokens"
}
