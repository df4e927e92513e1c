package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang-kis-trader/pkg/logger"
	"golang-kis-trader/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// TokenStore persists issued tokens per trading account.
type TokenStore interface {
	// Latest returns the most recently issued token for the account, or nil when there is none.
	Latest(ctx context.Context, accountID uint) (*Token, error)
	// Append records a newly issued token. Earlier tokens are kept.
	Append(ctx context.Context, accountID uint, token Token) error
}

// TokenCache is an optional cache shared between processes.
type TokenCache interface {
	Get(ctx context.Context, accountID uint) (*Token, error)
	Set(ctx context.Context, accountID uint, token Token, ttl time.Duration) error
}

// IssueGuard enforces the brokerage's one-issuance-per-minute limit for an app key.
type IssueGuard interface {
	// Acquire returns false when an issuance for appKey already happened inside the window.
	Acquire(ctx context.Context, appKey string) (bool, error)
}

type tokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// TokenManager hands out bearer tokens, reusing a stored token while it has
// more than the safety margin left and issuing a new one otherwise.
// Concurrent callers for the same account share a single issuance.
type TokenManager struct {
	baseURL      string
	httpClient   *http.Client
	store        TokenStore
	shared       TokenCache
	guard        IssueGuard
	local        *cache.Cache
	group        singleflight.Group
	log          *logger.Logger
	safetyMargin time.Duration
	waitTimeout  time.Duration
	issueTimeout time.Duration
	now          func() time.Time
}

// NewTokenManager creates a TokenManager. shared and guard may be nil.
func NewTokenManager(cfg Config, httpClient *http.Client, store TokenStore, shared TokenCache, guard IssueGuard, log *logger.Logger) *TokenManager {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &TokenManager{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   httpClient,
		store:        store,
		shared:       shared,
		guard:        guard,
		local:        cache.New(cache.NoExpiration, 10*time.Minute),
		log:          log,
		safetyMargin: cfg.TokenSafetyMargin,
		waitTimeout:  cfg.IssueWaitTimeout,
		issueTimeout: cfg.RequestTimeout,
		now:          time.Now,
	}
}

// Token returns a valid access token for the account.
func (m *TokenManager) Token(ctx context.Context, creds Credentials) (string, error) {
	tok, err := m.Acquire(ctx, creds)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// Acquire is Token returning the full token record.
func (m *TokenManager) Acquire(ctx context.Context, creds Credentials) (Token, error) {
	tok, err := m.lookup(ctx, creds.AccountID)
	if err != nil {
		return Token{}, err
	}
	if tok != nil {
		return *tok, nil
	}

	ch := m.group.DoChan(flightKey(creds.AccountID), func() (interface{}, error) {
		// The issuance outlives any single waiter; it is bounded by its own timeout.
		issueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.issueTimeout)
		defer cancel()

		// A flight that completed just before this one started may already have stored a token.
		if tok, err := m.lookup(issueCtx, creds.AccountID); err == nil && tok != nil {
			return *tok, nil
		}
		return m.issue(issueCtx, creds)
	})

	timer := time.NewTimer(m.waitTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	case <-ctx.Done():
		return Token{}, ctx.Err()
	case <-timer.C:
		m.log.WarnContext(ctx, "Gave up waiting for in-flight token issuance",
			logger.Field("account_id", creds.AccountID), logger.Field("wait_timeout", m.waitTimeout.String()))
		return Token{}, ErrTokenWaitTimeout
	}
}

// lookup returns a token that is still valid, or nil.
func (m *TokenManager) lookup(ctx context.Context, accountID uint) (*Token, error) {
	now := m.now()
	key := flightKey(accountID)

	if v, ok := m.local.Get(key); ok {
		tok := v.(Token)
		if tok.ValidAt(now, m.safetyMargin) {
			metrics.TokenRequests.WithLabelValues("memory").Inc()
			return &tok, nil
		}
		m.local.Delete(key)
	}

	if m.shared != nil {
		tok, err := m.shared.Get(ctx, accountID)
		if err != nil {
			m.log.WarnContext(ctx, "Failed to read shared token cache", logger.ErrorField(err), logger.Field("account_id", accountID))
		} else if tok != nil && tok.ValidAt(now, m.safetyMargin) {
			m.local.Set(key, *tok, tok.ExpiresAt().Add(-m.safetyMargin).Sub(now))
			metrics.TokenRequests.WithLabelValues("shared").Inc()
			return tok, nil
		}
	}

	tok, err := m.store.Latest(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("kis: load latest token for account %d: %w", accountID, err)
	}
	if tok == nil || !tok.ValidAt(now, m.safetyMargin) {
		return nil, nil
	}

	m.remember(ctx, accountID, *tok)
	metrics.TokenRequests.WithLabelValues("store").Inc()
	m.log.DebugContext(ctx, "Reusing stored access token",
		logger.Field("account_id", accountID), logger.Field("expires_at", tok.ExpiresAt()))
	return tok, nil
}

func (m *TokenManager) remember(ctx context.Context, accountID uint, tok Token) {
	ttl := tok.ExpiresAt().Add(-m.safetyMargin).Sub(m.now())
	if ttl <= 0 {
		return
	}
	m.local.Set(flightKey(accountID), tok, ttl)
	if m.shared != nil {
		if err := m.shared.Set(ctx, accountID, tok, ttl); err != nil {
			m.log.WarnContext(ctx, "Failed to write shared token cache", logger.ErrorField(err), logger.Field("account_id", accountID))
		}
	}
}

func (m *TokenManager) issue(ctx context.Context, creds Credentials) (Token, error) {
	url := m.baseURL + pathToken
	fields := []logger.ZapField{
		logger.Field("account_id", creds.AccountID),
		logger.StringField("url", url),
	}

	if m.guard != nil {
		ok, err := m.guard.Acquire(ctx, creds.AppKey)
		if err != nil {
			m.log.WarnContext(ctx, "Issue guard unavailable, proceeding with issuance", append(fields, logger.ErrorField(err))...)
		} else if !ok {
			metrics.TokenIssuances.WithLabelValues("throttled").Inc()
			m.log.WarnContext(ctx, "Token issuance throttled locally", fields...)
			return Token{}, &AuthError{
				StatusCode:  http.StatusTooManyRequests,
				Code:        RateLimitErrorCode,
				Description: "token already issued for this app key within the last minute",
				Local:       true,
			}
		}
	}

	payload, err := json.Marshal(tokenRequest{
		GrantType: "client_credentials",
		AppKey:    creds.AppKey,
		AppSecret: creds.AppSecret,
	})
	if err != nil {
		return Token{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Token{}, &TransportError{Op: "issue token", URL: url, Err: err}
	}
	req.Header.Set("content-type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		metrics.TokenIssuances.WithLabelValues("transport").Inc()
		m.log.ErrorContext(ctx, "Failed to send token request", append(fields, logger.ErrorField(err))...)
		return Token{}, &TransportError{Op: "issue token", URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TokenIssuances.WithLabelValues("transport").Inc()
		m.log.ErrorContext(ctx, "Failed to read token response", append(fields, logger.ErrorField(err))...)
		return Token{}, &TransportError{Op: "issue token", URL: url, Err: err}
	}

	var body tokenResponse
	// gateway errors are not always JSON
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode != http.StatusOK || body.ErrorCode != "" || body.AccessToken == "" {
		authErr := &AuthError{
			StatusCode:  resp.StatusCode,
			Code:        body.ErrorCode,
			Description: body.ErrorDescription,
		}
		if authErr.Code == "" && authErr.Description == "" {
			authErr.Description = strings.TrimSpace(string(raw))
			if authErr.Description == "" {
				authErr.Description = http.StatusText(resp.StatusCode)
			}
		}
		outcome := "rejected"
		if authErr.RateLimited() {
			outcome = "rate_limited"
		}
		metrics.TokenIssuances.WithLabelValues(outcome).Inc()
		m.log.ErrorContext(ctx, "Token issuance rejected", append(fields,
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("error_code", authErr.Code),
			logger.StringField("error_description", authErr.Description))...)
		return Token{}, authErr
	}

	tok := Token{
		Value:     body.AccessToken,
		Type:      body.TokenType,
		IssuedAt:  m.now(),
		ExpiresIn: body.ExpiresIn,
	}
	if tok.Type == "" {
		tok.Type = defaultTokenType
	}
	if tok.ExpiresIn <= 0 {
		tok.ExpiresIn = defaultTokenExpiresIn
	}

	if err := m.store.Append(ctx, creds.AccountID, tok); err != nil {
		// The token is still usable; only reuse across restarts is lost.
		m.log.ErrorContext(ctx, "Failed to persist issued token", append(fields, logger.ErrorField(err))...)
	}
	m.remember(ctx, creds.AccountID, tok)

	metrics.TokenIssuances.WithLabelValues("ok").Inc()
	m.log.InfoContext(ctx, "Issued new access token", append(fields, logger.Field("expires_at", tok.ExpiresAt()))...)
	return tok, nil
}

func flightKey(accountID uint) string {
	return strconv.FormatUint(uint64(accountID), 10)
}
