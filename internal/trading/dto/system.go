package dto

import "time"

// SystemStatusResponse reports whether the caller can reach the brokerage.
type SystemStatusResponse struct {
	APIStatus      string    `json:"api_status"`
	ActiveAccounts int64     `json:"active_accounts"`
	UserID         uint      `json:"user_id"`
	Version        string    `json:"version"`
	ServerTime     time.Time `json:"server_time"`
}
