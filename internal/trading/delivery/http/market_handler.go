package http

import (
	"net/http"

	"golang-kis-trader/internal/trading/service"
	"golang-kis-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler serves quotes, balances and news read from the brokerage.
type MarketHandler struct {
	marketService  service.MarketService
	balanceService service.BalanceService
	newsService    service.NewsService
	logger         *logger.Logger
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketService service.MarketService, balanceService service.BalanceService, newsService service.NewsService, logger *logger.Logger) *MarketHandler {
	return &MarketHandler{
		marketService:  marketService,
		balanceService: balanceService,
		newsService:    newsService,
		logger:         logger,
	}
}

// RegisterRoutes registers the market routes to the API root group.
func (h *MarketHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/market/price/:symbol", h.GetCurrentPrice)
	g.GET("/balance", h.GetBalance)
	g.GET("/news", h.GetNews)
}

// GetCurrentPrice godoc
// @Summary Get the current price of a symbol
// @Tags market
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   symbol path string true "Stock code"
// @Param   trading_account_id query int false "Trading account, defaults to the first active one"
// @Param   market_code query string false "Market division code" default(J)
// @Success 200 {object} dto.PriceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 504 {object} dto.ErrorResponse
// @Router /market/price/{symbol} [get]
func (h *MarketHandler) GetCurrentPrice(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}
	accountID, err := optionalUint(c, "trading_account_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid trading_account_id"})
	}

	price, err := h.marketService.GetCurrentPrice(c.Request().Context(), uid, accountID, c.Param("symbol"), c.QueryParam("market_code"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, price)
}

// GetBalance godoc
// @Summary Get account holdings
// @Tags market
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   trading_account_id query int false "Trading account, defaults to the first active one"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 504 {object} dto.ErrorResponse
// @Router /balance [get]
func (h *MarketHandler) GetBalance(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}
	accountID, err := optionalUint(c, "trading_account_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid trading_account_id"})
	}

	balance, err := h.balanceService.GetBalance(c.Request().Context(), uid, accountID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, balance)
}

// GetNews godoc
// @Summary Get news for a symbol
// @Description Merges the brokerage news endpoint with the configured RSS feeds
// @Tags market
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   symbol query string false "Stock code"
// @Success 200 {object} dto.NewsResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /news [get]
func (h *MarketHandler) GetNews(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}

	news, err := h.newsService.GetNews(c.Request().Context(), uid, c.QueryParam("symbol"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, news)
}
