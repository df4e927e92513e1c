package http

import (
	"net/http"

	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/service"
	"golang-kis-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalHandler exposes the VWAP model on caller supplied data.
type SignalHandler struct {
	signalService service.SignalService
	logger        *logger.Logger
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(signalService service.SignalService, logger *logger.Logger) *SignalHandler {
	return &SignalHandler{signalService: signalService, logger: logger}
}

// RegisterRoutes registers the signal routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/vwap", h.CalculateVWAPSignal)
	g.POST("/risk", h.CheckRisk)
}

// CalculateVWAPSignal godoc
// @Summary Compute VWAP, bands and a signal
// @Description Prices and volumes are joined on their timestamps
// @Tags signals
// @Accept  json
// @Produce  json
// @Param   samples body dto.VWAPSignalRequest true "Samples and current price"
// @Success 200 {object} dto.VWAPSignalResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /signals/vwap [post]
func (h *SignalHandler) CalculateVWAPSignal(c echo.Context) error {
	var req dto.VWAPSignalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	resp, err := h.signalService.CalculateVWAPSignal(&req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// CheckRisk godoc
// @Summary Check stop loss and take profit
// @Tags signals
// @Accept  json
// @Produce  json
// @Param   position body dto.RiskCheckRequest true "Entry and current price"
// @Success 200 {object} vwap.RiskVerdict
// @Failure 400 {object} dto.ErrorResponse
// @Router /signals/risk [post]
func (h *SignalHandler) CheckRisk(c echo.Context) error {
	var req dto.RiskCheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	verdict, err := h.signalService.CheckRisk(&req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, verdict)
}
