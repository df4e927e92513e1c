package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang-kis-trader/pkg/logger"
	"golang-kis-trader/pkg/metrics"

	"golang.org/x/time/rate"
)

// TokenProvider supplies a valid bearer token for an account.
type TokenProvider interface {
	Token(ctx context.Context, creds Credentials) (string, error)
}

// Client performs the brokerage operations. Every call obtains its bearer
// token through the TokenProvider first. Nothing is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewClient creates a Client. A nil httpClient gets one with cfg.RequestTimeout.
func NewClient(cfg Config, httpClient *http.Client, tokens TokenProvider, log *logger.Logger) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MaxRequestPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestPerSecond), cfg.MaxRequestPerSecond)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    limiter,
		log:        log,
	}
}

type request struct {
	method string
	path   string
	trID   string
	query  map[string]string
	body   map[string]string
	signed bool
}

// GetCurrentPrice returns the current quote for symbol. An empty marketCode means DefaultMarketCode.
func (c *Client) GetCurrentPrice(ctx context.Context, creds Credentials, symbol, marketCode string) (Response, error) {
	if symbol == "" {
		return nil, &ContractViolation{Field: "symbol", Reason: "must not be empty"}
	}
	if marketCode == "" {
		marketCode = DefaultMarketCode
	}

	return c.do(ctx, creds, request{
		method: http.MethodGet,
		path:   pathInquirePrice,
		trID:   TrIDInquirePrice,
		query: map[string]string{
			"FID_COND_MRKT_DIV_CODE": marketCode,
			"FID_INPUT_ISCD":         symbol,
		},
	})
}

// GetBalance returns the stock balance of the account.
func (c *Client) GetBalance(ctx context.Context, creds Credentials) (Response, error) {
	cano, productCode, err := SplitAccountNumber(creds.AccountNumber)
	if err != nil {
		return nil, err
	}

	return c.do(ctx, creds, request{
		method: http.MethodGet,
		path:   pathBalance,
		trID:   TrIDInquireBalance,
		query: map[string]string{
			"CANO":                  cano,
			"ACNT_PRDT_CD":          productCode,
			"AFHR_FLPR_YN":          "N",
			"OFL_YN":                "",
			"INQR_DVSN":             "02",
			"UNPR_DVSN":             "01",
			"FUND_STTL_ICLD_YN":     "N",
			"FNCG_AMT_AUTO_RDPT_YN": "N",
			"PRCS_DVSN":             "01",
			"CTX_AREA_FK100":        "",
			"CTX_AREA_NK100":        "",
		},
		signed: true,
	})
}

// PlaceOrder submits a cash order. The call has a real-world effect and is
// never retried here; a TransportError means the outcome is unknown.
func (c *Client) PlaceOrder(ctx context.Context, creds Credentials, order OrderRequest) (Response, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	cano, productCode, err := SplitAccountNumber(creds.AccountNumber)
	if err != nil {
		return nil, err
	}

	price := "0"
	if order.Price != nil {
		price = strconv.FormatInt(*order.Price, 10)
	}

	return c.do(ctx, creds, request{
		method: http.MethodPost,
		path:   pathOrderCash,
		trID:   order.trID(),
		body: map[string]string{
			"CANO":         cano,
			"ACNT_PRDT_CD": productCode,
			"PDNO":         order.Symbol,
			"ORD_DVSN":     order.DivisionCode(),
			"ORD_QTY":      strconv.FormatInt(order.Quantity, 10),
			"ORD_UNPR":     price,
		},
		signed: true,
	})
}

// GetNews queries the news endpoint, optionally filtered by symbol.
func (c *Client) GetNews(ctx context.Context, creds Credentials, symbol string) (Response, error) {
	query := map[string]string{}
	if symbol != "" {
		query["symbol"] = symbol
	}

	return c.do(ctx, creds, request{
		method: http.MethodGet,
		path:   pathNews,
		trID:   TrIDNews,
		query:  query,
	})
}

func (c *Client) do(ctx context.Context, creds Credentials, r request) (Response, error) {
	token, err := c.tokens.Token(ctx, creds)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + r.path
	target := endpoint
	if len(r.query) > 0 {
		q := url.Values{}
		for k, v := range r.query {
			q.Set(k, v)
		}
		target += "?" + q.Encode()
	}

	fields := []logger.ZapField{
		logger.StringField("tr_id", r.trID),
		logger.StringField("url", endpoint),
		logger.Field("account_id", creds.AccountID),
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.log.ErrorContext(ctx, "Failed to wait for request limit", append(fields, logger.ErrorField(err))...)
		return nil, &TransportError{Op: r.trID, URL: endpoint, Err: err}
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(canonicalJSON(r.body))
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, &TransportError{Op: r.trID, URL: endpoint, Err: err}
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", creds.AppKey)
	req.Header.Set("appsecret", creds.AppSecret)
	req.Header.Set("tr_id", r.trID)
	if r.signed {
		payload := r.query
		if r.body != nil {
			payload = r.body
		}
		req.Header.Set("hashkey", Sign(payload))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.BrokerLatency.WithLabelValues(r.trID).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BrokerRequests.WithLabelValues(r.trID, "transport").Inc()
		c.log.ErrorContext(ctx, "Failed to send request to KIS API", append(fields, logger.ErrorField(err))...)
		return nil, &TransportError{Op: r.trID, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.BrokerRequests.WithLabelValues(r.trID, "transport").Inc()
		c.log.ErrorContext(ctx, "Failed to read response body from KIS API", append(fields, logger.ErrorField(err))...)
		return nil, &TransportError{Op: r.trID, URL: endpoint, Err: err}
	}

	var decoded Response
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode != http.StatusOK {
		apiErr := &BrokerAPIError{StatusCode: resp.StatusCode, TrID: r.trID, Body: raw}
		if decodeErr == nil {
			apiErr.Code, apiErr.Message = errorDetails(decoded)
		}
		metrics.BrokerRequests.WithLabelValues(r.trID, "error").Inc()
		c.log.ErrorContext(ctx, "Received non-OK response from KIS API", append(fields,
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("msg_cd", apiErr.Code),
			logger.StringField("msg", apiErr.Message))...)
		return nil, apiErr
	}

	if decodeErr != nil {
		metrics.BrokerRequests.WithLabelValues(r.trID, "error").Inc()
		c.log.ErrorContext(ctx, "Failed to decode response body from KIS API", append(fields, logger.ErrorField(decodeErr))...)
		return nil, &BrokerAPIError{StatusCode: resp.StatusCode, TrID: r.trID, Message: "undecodable response body", Body: raw}
	}

	if code := stringValue(decoded, "error_code"); code != "" {
		metrics.BrokerRequests.WithLabelValues(r.trID, "error").Inc()
		c.log.ErrorContext(ctx, "KIS API returned an error body", append(fields, logger.StringField("error_code", code))...)
		return nil, &BrokerAPIError{
			StatusCode: resp.StatusCode,
			TrID:       r.trID,
			Code:       code,
			Message:    stringValue(decoded, "error_description"),
			Body:       raw,
		}
	}

	metrics.BrokerRequests.WithLabelValues(r.trID, "ok").Inc()
	return decoded, nil
}

// errorDetails extracts the brokerage's error code and message from a decoded body.
func errorDetails(body Response) (code, message string) {
	code = stringValue(body, "error_code")
	message = stringValue(body, "error_description")
	if code == "" {
		code = stringValue(body, "msg_cd")
	}
	if message == "" {
		message = stringValue(body, "msg1")
	}
	return code, message
}

func stringValue(body Response, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}
