// Package metrics exposes the Prometheus collectors updated by the broker gateway
// and the trading services:
//
//   - kis_token_requests_total{source}            token lookups by where they were served from
//   - kis_token_issuances_total{outcome}          calls to the oauth2/tokenP endpoint
//   - kis_broker_requests_total{tr_id,outcome}    operational calls by transaction id
//   - kis_broker_request_duration_seconds{tr_id}  latency of operational calls
//   - trading_orders_total{side,status}           orders recorded by the order service
//   - trading_signals_total{signal}               VWAP signals produced
//   - trading_risk_verdicts_total{action}         stop-loss / take-profit verdicts
//
// Collectors are registered on the default registry in init() and served at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TokenRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kis_token_requests_total",
			Help: "Access token lookups by source (memory, shared, store, issued)",
		},
		[]string{"source"},
	)

	TokenIssuances = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kis_token_issuances_total",
			Help: "Token issuance calls by outcome (ok, rate_limited, rejected, transport, throttled)",
		},
		[]string{"outcome"},
	)

	BrokerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kis_broker_requests_total",
			Help: "Brokerage API calls by tr_id and outcome",
		},
		[]string{"tr_id", "outcome"},
	)

	BrokerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kis_broker_request_duration_seconds",
			Help:    "Brokerage API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tr_id"},
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_orders_total",
			Help: "Orders recorded by side and final status",
		},
		[]string{"side", "status"},
	)

	Signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_signals_total",
			Help: "VWAP signals produced",
		},
		[]string{"signal"},
	)

	RiskVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_risk_verdicts_total",
			Help: "Stop-loss / take-profit verdicts produced",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(
		TokenRequests,
		TokenIssuances,
		BrokerRequests,
		BrokerLatency,
		Orders,
		Signals,
		RiskVerdicts,
	)
}
