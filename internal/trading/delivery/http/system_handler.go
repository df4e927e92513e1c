package http

import (
	"net/http"

	"golang-kis-trader/internal/trading/service"
	"golang-kis-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SystemHandler reports service status.
type SystemHandler struct {
	systemService service.SystemService
	logger        *logger.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(systemService service.SystemService, logger *logger.Logger) *SystemHandler {
	return &SystemHandler{systemService: systemService, logger: logger}
}

// RegisterRoutes registers the system routes to the Echo group.
func (h *SystemHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/status", h.GetStatus)
}

// GetStatus godoc
// @Summary Get system status
// @Description api_status is connected when the caller has at least one active trading account
// @Tags system
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Success 200 {object} dto.SystemStatusResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /system/status [get]
func (h *SystemHandler) GetStatus(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}

	status, err := h.systemService.GetStatus(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, status)
}

// Health godoc
// @Summary Liveness probe
// @Tags system
// @Produce  json
// @Success 200 {object} map[string]string
// @Router /health [get]
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
