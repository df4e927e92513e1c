package kis

import "time"

// DefaultBaseURL is the production (real trading) endpoint.
const DefaultBaseURL = "https://openapi.koreainvestment.com:9443"

// Config holds the gateway settings shared by the Client and the TokenManager.
type Config struct {
	BaseURL             string        `mapstructure:"base_url"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	TokenSafetyMargin   time.Duration `mapstructure:"token_safety_margin"`
	IssueWaitTimeout    time.Duration `mapstructure:"issue_wait_timeout"`
	IssueInterval       time.Duration `mapstructure:"issue_interval"`
	MaxRequestPerSecond int           `mapstructure:"max_request_per_second"`
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.TokenSafetyMargin <= 0 {
		c.TokenSafetyMargin = 5 * time.Minute
	}
	if c.IssueWaitTimeout <= 0 {
		c.IssueWaitTimeout = 15 * time.Second
	}
	if c.IssueInterval <= 0 {
		c.IssueInterval = time.Minute
	}
	return c
}
