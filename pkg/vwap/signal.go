package vwap

import (
	"fmt"
	"math"
)

// Default thresholds, in percent of VWAP.
const (
	DefaultEntryThreshold = 0.5
	DefaultExitThreshold  = 1.0
)

type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

// Signal is the trading decision for the current price.
type Signal struct {
	Kind        SignalKind `json:"signal"`
	DiffPercent float64    `json:"price_diff_percent"`
	Reason      string     `json:"reason"`
}

// GenerateSignal compares currentPrice to vwap.
//
// A price between entry and exit percent below VWAP is a BUY, the mirror
// band above it a SELL. Beyond exit percent in either direction the price
// is expected to revert: above sells, below buys. Everything else holds,
// including the boundaries themselves. A zero vwap carries no information
// and always holds.
func GenerateSignal(currentPrice, vwap, entryThreshold, exitThreshold float64) Signal {
	if vwap == 0 {
		return Signal{Kind: SignalHold, Reason: "undefined"}
	}

	diff := (currentPrice - vwap) / vwap * 100

	switch {
	case diff < -entryThreshold && diff > -exitThreshold:
		return Signal{Kind: SignalBuy, DiffPercent: diff,
			Reason: fmt.Sprintf("price %.2f%% below VWAP, waiting for upward breakout", math.Abs(diff))}
	case diff > entryThreshold && diff < exitThreshold:
		return Signal{Kind: SignalSell, DiffPercent: diff,
			Reason: fmt.Sprintf("price %.2f%% above VWAP, waiting for downward breakdown", diff)}
	case math.Abs(diff) > exitThreshold && diff > 0:
		return Signal{Kind: SignalSell, DiffPercent: diff,
			Reason: fmt.Sprintf("price %.2f%% above VWAP, mean reversion sell", diff)}
	case math.Abs(diff) > exitThreshold:
		return Signal{Kind: SignalBuy, DiffPercent: diff,
			Reason: fmt.Sprintf("price %.2f%% below VWAP, mean reversion buy", math.Abs(diff))}
	}

	return Signal{Kind: SignalHold, DiffPercent: diff, Reason: "no signal"}
}
