package kis

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitErrorCode is returned by the token endpoint when more than one
// issuance is requested per minute for the same app key.
const RateLimitErrorCode = "EGW00133"

// RateLimitBackoff is the minimum wait before retrying a rate limited issuance.
const RateLimitBackoff = 60 * time.Second

// ErrTokenWaitTimeout is returned to a caller that gave up waiting for an
// issuance started by another caller for the same account.
var ErrTokenWaitTimeout = errors.New("kis: timed out waiting for in-flight token issuance")

// TransportError reports that the brokerage could not be reached or did not answer in time.
// The request may or may not have been processed.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("kis: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError reports a rejected token issuance.
type AuthError struct {
	StatusCode  int
	Code        string
	Description string
	// Local is set when the issuance was refused by this process before reaching the brokerage.
	Local bool
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("kis: token issuance rejected (status %d): %s %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("kis: token issuance rejected (status %d): %s", e.StatusCode, e.Description)
}

// RateLimited reports whether the issuance hit the one-per-minute limit.
func (e *AuthError) RateLimited() bool {
	return e.Code == RateLimitErrorCode
}

// RetryAfter is the back-off the caller should honour before retrying.
func (e *AuthError) RetryAfter() time.Duration {
	if e.RateLimited() {
		return RateLimitBackoff
	}
	return 0
}

// BrokerAPIError reports a non-200 (or error-wrapped 200) answer to an operational call.
type BrokerAPIError struct {
	StatusCode int
	TrID       string
	Code       string
	Message    string
	Body       []byte
}

func (e *BrokerAPIError) Error() string {
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("kis: %s failed (status %d): %s %s", e.TrID, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("kis: %s failed (status %d): %s", e.TrID, e.StatusCode, string(e.Body))
}

// ContractViolation reports caller input that can never be sent, such as a malformed account number.
type ContractViolation struct {
	Field  string
	Reason string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("kis: invalid %s: %s", e.Field, e.Reason)
}

// IsRateLimited reports whether err is (or wraps) a rate limited AuthError.
func IsRateLimited(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.RateLimited()
}
