package vwap

import "fmt"

// Default exit thresholds, in percent of the entry price.
const (
	DefaultStopLossPercent   = 2.0
	DefaultTakeProfitPercent = 3.0
)

type RiskAction string

const (
	RiskStopLoss   RiskAction = "STOP_LOSS"
	RiskTakeProfit RiskAction = "TAKE_PROFIT"
	RiskHold       RiskAction = "HOLD"
)

// RiskVerdict says whether an open position should be closed.
type RiskVerdict struct {
	Action            RiskAction `json:"action"`
	ProfitLossPercent float64    `json:"profit_loss_percent"`
	Reason            string     `json:"reason"`
}

// Actionable reports whether the verdict asks to close the position.
func (v RiskVerdict) Actionable() bool {
	return v.Action == RiskStopLoss || v.Action == RiskTakeProfit
}

// CheckStopLossTakeProfit evaluates an open position. Both thresholds are inclusive.
// entryPrice must not be zero; callers are expected to check before calling.
func CheckStopLossTakeProfit(entryPrice, currentPrice, stopLossPercent, takeProfitPercent float64) RiskVerdict {
	if entryPrice == 0 {
		panic("vwap: entry price must not be zero")
	}

	pnl := (currentPrice - entryPrice) / entryPrice * 100

	if pnl <= -stopLossPercent {
		return RiskVerdict{Action: RiskStopLoss, ProfitLossPercent: pnl,
			Reason: fmt.Sprintf("stop loss reached: %.2f%%", pnl)}
	}
	if pnl >= takeProfitPercent {
		return RiskVerdict{Action: RiskTakeProfit, ProfitLossPercent: pnl,
			Reason: fmt.Sprintf("take profit reached: %.2f%%", pnl)}
	}
	return RiskVerdict{Action: RiskHold, ProfitLossPercent: pnl, Reason: "holding"}
}
