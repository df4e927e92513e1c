package kis

import (
	"time"
)

// Transaction ids selecting the server-side operation of each endpoint.
const (
	TrIDInquirePrice   = "FHKST01010100"
	TrIDInquireBalance = "TTTC8434R"
	TrIDOrderCashBuy   = "TTTC0802U"
	TrIDOrderCashSell  = "TTTC0801U"
	// TrIDNews is a placeholder; the brokerage does not document a news endpoint of this shape.
	TrIDNews = "NEWS001"
)

const (
	pathToken        = "/oauth2/tokenP"
	pathInquirePrice = "/uapi/domestic-stock/v1/quotations/inquire-price"
	pathBalance      = "/uapi/domestic-stock/v1/trading/inquire-balance"
	pathOrderCash    = "/uapi/domestic-stock/v1/trading/order-cash"
	pathNews         = "/uapi/news"
)

const (
	// DefaultMarketCode selects the stock market ("J"); "Q" selects KOSDAQ.
	DefaultMarketCode = "J"

	defaultTokenType      = "Bearer"
	defaultTokenExpiresIn = 86400
)

// Response is the raw decoded JSON body returned by the brokerage.
type Response map[string]interface{}

// Credentials identify one trading account at the brokerage.
type Credentials struct {
	AccountID     uint
	AccountNumber string
	AppKey        string
	AppSecret     string
}

// Token is a bearer credential issued by the brokerage.
type Token struct {
	Value     string
	Type      string
	IssuedAt  time.Time
	ExpiresIn int64 // seconds
}

// ExpiresAt returns the brokerage-side expiry.
func (t Token) ExpiresAt() time.Time {
	return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// ValidAt reports whether the token may still be used at now, treating it as
// expiring margin earlier than the brokerage does.
func (t Token) ValidAt(now time.Time, margin time.Duration) bool {
	if t.Value == "" {
		return false
	}
	return now.Before(t.ExpiresAt().Add(-margin))
}

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

type OrderMethod string

const (
	MethodMarket OrderMethod = "MARKET"
	MethodLimit  OrderMethod = "LIMIT"
)

// OrderRequest is an instruction to buy or sell a domestic stock for cash.
type OrderRequest struct {
	Symbol   string
	Side     OrderSide
	Method   OrderMethod
	Quantity int64
	Price    *int64 // required iff Method is LIMIT
}

// Validate checks the order invariants before anything is sent.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return &ContractViolation{Field: "symbol", Reason: "must not be empty"}
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return &ContractViolation{Field: "side", Reason: "must be BUY or SELL"}
	}
	if r.Quantity <= 0 {
		return &ContractViolation{Field: "quantity", Reason: "must be positive"}
	}
	switch r.Method {
	case MethodLimit:
		if r.Price == nil || *r.Price <= 0 {
			return &ContractViolation{Field: "price", Reason: "required and positive for LIMIT orders"}
		}
	case MethodMarket:
		if r.Price != nil {
			return &ContractViolation{Field: "price", Reason: "must be omitted for MARKET orders"}
		}
	default:
		return &ContractViolation{Field: "method", Reason: "must be MARKET or LIMIT"}
	}
	return nil
}

// trID returns the transaction id for the order side.
func (r OrderRequest) trID() string {
	if r.Side == SideSell {
		return TrIDOrderCashSell
	}
	return TrIDOrderCashBuy
}

// SideCode maps the side to the brokerage order-type code.
func (r OrderRequest) SideCode() string {
	if r.Side == SideSell {
		return "01"
	}
	return "02"
}

// DivisionCode maps the method to ORD_DVSN.
func (r OrderRequest) DivisionCode() string {
	if r.Method == MethodMarket {
		return "01"
	}
	return "00"
}

// SplitAccountNumber splits a 10 digit account number into CANO (8) and ACNT_PRDT_CD (2).
func SplitAccountNumber(accountNumber string) (cano, productCode string, err error) {
	if len(accountNumber) != 10 {
		return "", "", &ContractViolation{Field: "account_number", Reason: "must be exactly 10 digits"}
	}
	for _, r := range accountNumber {
		if r < '0' || r > '9' {
			return "", "", &ContractViolation{Field: "account_number", Reason: "must contain digits only"}
		}
	}
	return accountNumber[:8], accountNumber[8:], nil
}
