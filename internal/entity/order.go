package entity

import (
	"time"

	"gorm.io/datatypes"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	// OrderStatusPending is recorded before the order is sent.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusSubmitted means the brokerage accepted the order.
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	// OrderStatusFailed means the brokerage rejected the order.
	OrderStatusFailed OrderStatus = "FAILED"
	// OrderStatusUnknown means the request may have reached the brokerage but no answer arrived.
	OrderStatusUnknown OrderStatus = "UNKNOWN"
)

// Order is a cash order placed through the brokerage.
type Order struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;index" json:"user_id"`
	TradingAccountID uint           `gorm:"not null;index" json:"trading_account_id"`
	ClientOrderID    string         `gorm:"size:36;not null;uniqueIndex" json:"client_order_id"`
	Symbol           string         `gorm:"size:20;not null" json:"symbol"`
	OrderType        string         `gorm:"size:10;not null" json:"order_type"`   // BUY, SELL
	OrderMethod      string         `gorm:"size:10;not null" json:"order_method"` // MARKET, LIMIT
	Quantity         int64          `gorm:"not null" json:"quantity"`
	Price            *int64         `json:"price,omitempty"`
	ExecutedPrice    *int64         `json:"executed_price,omitempty"`
	ExecutedQuantity int64          `gorm:"not null;default:0" json:"executed_quantity"`
	Status           OrderStatus    `gorm:"size:20;not null;index" json:"status"`
	KISOrderNo       string         `gorm:"size:30" json:"kis_order_no,omitempty"`
	StrategyID       *uint          `gorm:"index" json:"strategy_id,omitempty"`
	OrderMetadata    datatypes.JSON `json:"order_metadata,omitempty" swaggertype:"object"`
	BrokerResponse   datatypes.JSON `json:"broker_response,omitempty" swaggertype:"object"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
