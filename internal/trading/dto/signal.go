package dto

import (
	"time"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/pkg/vwap"
)

// VWAPSignalRequest computes VWAP, bands and a signal from caller supplied samples.
type VWAPSignalRequest struct {
	Prices         []vwap.PriceSample  `json:"prices"`
	Volumes        []vwap.VolumeSample `json:"volumes"`
	CurrentPrice   float64             `json:"current_price"`
	EntryThreshold *float64            `json:"entry_threshold"`
	ExitThreshold  *float64            `json:"exit_threshold"`
	BandWidth      *float64            `json:"band_width"`
}

// VWAPSignalResponse is the outcome of a VWAP evaluation.
type VWAPSignalResponse struct {
	VWAP   float64     `json:"vwap"`
	Bands  vwap.Bands  `json:"bands"`
	Signal vwap.Signal `json:"signal"`
}

// RiskCheckRequest evaluates stop loss and take profit for an open position.
type RiskCheckRequest struct {
	EntryPrice        float64  `json:"entry_price"`
	CurrentPrice      float64  `json:"current_price"`
	StopLossPercent   *float64 `json:"stop_loss_percent"`
	TakeProfitPercent *float64 `json:"take_profit_percent"`
}

// EvaluateStrategyRequest runs a strategy once. Without samples the
// intraday observations collected for the symbol are used.
type EvaluateStrategyRequest struct {
	Prices     []vwap.PriceSample  `json:"prices"`
	Volumes    []vwap.VolumeSample `json:"volumes"`
	EntryPrice *float64            `json:"entry_price"`
}

// EvaluationResult is one strategy evaluation.
type EvaluationResult struct {
	StrategyID   uint              `json:"strategy_id"`
	Symbol       string            `json:"symbol"`
	CurrentPrice float64           `json:"current_price"`
	VWAP         float64           `json:"vwap"`
	Bands        vwap.Bands        `json:"bands"`
	Signal       vwap.Signal       `json:"signal"`
	Risk         *vwap.RiskVerdict `json:"risk,omitempty"`
	Order        *entity.Order     `json:"order,omitempty"`
	EvaluatedAt  time.Time         `json:"evaluated_at"`
}
