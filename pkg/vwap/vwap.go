// Package vwap implements the volume weighted average price model used to
// decide when to trade:
//   - Calculate      VWAP over price/volume samples joined by timestamp
//   - CalculateBands VWAP ± k standard deviations of the matched prices
//   - GenerateSignal BUY/SELL/HOLD from the deviation to VWAP
//   - CheckStopLossTakeProfit exit verdict for an open position
//
// Everything here is pure computation. Missing or uninformative data
// degrades to neutral values (0, HOLD) instead of errors.
package vwap

import (
	"math"
	"time"
)

// DefaultBandWidth is the number of standard deviations between VWAP and each band.
const DefaultBandWidth = 2.0

// PriceSample is one observed trade price.
type PriceSample struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// VolumeSample is the traded volume observed at the same timestamp as a PriceSample.
type VolumeSample struct {
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Bands are the upper and lower VWAP envelopes.
type Bands struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
	VWAP  float64 `json:"vwap"`
}

type matched struct {
	price  float64
	volume float64
}

// join pairs prices and volumes sharing an identical timestamp. Unmatched
// samples on either side are dropped. Pairs follow the order of prices; a
// timestamp repeated on both sides yields every combination.
func join(prices []PriceSample, volumes []VolumeSample) []matched {
	if len(prices) == 0 || len(volumes) == 0 {
		return nil
	}

	byTime := make(map[int64][]float64, len(volumes))
	for _, v := range volumes {
		key := v.Timestamp.UnixNano()
		byTime[key] = append(byTime[key], float64(v.Volume))
	}

	var out []matched
	for _, p := range prices {
		for _, vol := range byTime[p.Timestamp.UnixNano()] {
			out = append(out, matched{price: p.Price, volume: vol})
		}
	}
	return out
}

// Calculate returns Σ(price·volume)/Σ(volume) over the matched samples,
// or 0 when nothing matches or the matched volume is zero.
func Calculate(prices []PriceSample, volumes []VolumeSample) float64 {
	pairs := join(prices, volumes)
	if len(pairs) == 0 {
		return 0
	}

	var pv, total float64
	for _, m := range pairs {
		pv += m.price * m.volume
		total += m.volume
	}
	if total == 0 {
		return 0
	}
	return pv / total
}

// CalculateBands places the bands k sample standard deviations of the matched
// prices away from vwap. With fewer than two matched prices both bands equal vwap.
func CalculateBands(vwap float64, prices []PriceSample, volumes []VolumeSample, k float64) Bands {
	bands := Bands{Upper: vwap, Lower: vwap, VWAP: vwap}

	pairs := join(prices, volumes)
	if len(pairs) < 2 {
		return bands
	}

	sd := sampleStdDev(pairs)
	bands.Upper = vwap + k*sd
	bands.Lower = vwap - k*sd
	return bands
}

func sampleStdDev(pairs []matched) float64 {
	var mean float64
	for _, m := range pairs {
		mean += m.price
	}
	mean /= float64(len(pairs))

	var ss float64
	for _, m := range pairs {
		d := m.price - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(pairs)-1))
}
