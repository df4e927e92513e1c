package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-kis-trader/internal/trading/service"
	"golang-kis-trader/pkg/common"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// userID reads the caller from the X-User-ID header. Authentication happens in front of this service.
func userID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Request().Header.Get(common.HeaderUserID), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing or invalid " + common.HeaderUserID + " header"})
}

func pathID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// optionalUint reads an optional numeric query parameter.
func optionalUint(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	id := uint(v)
	return &id, nil
}

// errorStatus maps service and brokerage errors to HTTP status codes.
func errorStatus(err error) int {
	var (
		violation    *kis.ContractViolation
		authErr      *kis.AuthError
		apiErr       *kis.BrokerAPIError
		transportErr *kis.TransportError
	)
	switch {
	case errors.As(err, &violation), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTradingAccountNotFound), errors.Is(err, service.ErrStrategyNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrOrderRejected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &authErr):
		if authErr.RateLimited() {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	case errors.Is(err, kis.ErrTokenWaitTimeout):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.As(err, &transportErr):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// errorBody writes the error response for err, merging extra into the body.
func errorBody(c echo.Context, log *logger.Logger, err error, extra echo.Map) error {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.ErrorContext(c.Request().Context(), "Request failed", logger.ErrorField(err),
			logger.StringField("path", c.Path()))
		message = "Internal server error"
	}

	var authErr *kis.AuthError
	if errors.As(err, &authErr) && authErr.RetryAfter() > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(authErr.RetryAfter().Seconds())))
	}

	body := echo.Map{"error": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}

func respondError(c echo.Context, log *logger.Logger, err error) error {
	return errorBody(c, log, err, nil)
}
