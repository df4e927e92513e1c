package http

import (
	"net/http"

	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/service"
	"golang-kis-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TradingAccountHandler handles HTTP requests for trading accounts.
type TradingAccountHandler struct {
	accountService service.TradingAccountService
	logger         *logger.Logger
}

// NewTradingAccountHandler creates a new TradingAccountHandler.
func NewTradingAccountHandler(accountService service.TradingAccountService, logger *logger.Logger) *TradingAccountHandler {
	return &TradingAccountHandler{accountService: accountService, logger: logger}
}

// RegisterRoutes registers the trading account routes to the Echo group.
func (h *TradingAccountHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateTradingAccount)
	g.GET("", h.GetTradingAccounts)
}

// CreateTradingAccount godoc
// @Summary Register a trading account
// @Description Register a KIS account with its app key and secret
// @Tags trading-accounts
// @Accept  json
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   account body dto.CreateTradingAccountRequest true "Account to register"
// @Success 201 {object} dto.TradingAccountResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /trading-accounts [post]
func (h *TradingAccountHandler) CreateTradingAccount(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CreateTradingAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	account, err := h.accountService.CreateTradingAccount(c.Request().Context(), uid, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, account)
}

// GetTradingAccounts godoc
// @Summary List trading accounts
// @Tags trading-accounts
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Success 200 {array} dto.TradingAccountResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /trading-accounts [get]
func (h *TradingAccountHandler) GetTradingAccounts(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}

	accounts, err := h.accountService.GetTradingAccounts(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, accounts)
}
