package http

import (
	"net/http"

	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/service"
	"golang-kis-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StrategyHandler handles HTTP requests for strategies.
type StrategyHandler struct {
	strategyService service.StrategyService
	signalService   service.SignalService
	logger          *logger.Logger
}

// NewStrategyHandler creates a new StrategyHandler.
func NewStrategyHandler(strategyService service.StrategyService, signalService service.SignalService, logger *logger.Logger) *StrategyHandler {
	return &StrategyHandler{strategyService: strategyService, signalService: signalService, logger: logger}
}

// RegisterRoutes registers the strategy routes to the Echo group.
func (h *StrategyHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateStrategy)
	g.GET("", h.GetStrategies)
	g.GET("/:id", h.GetStrategy)
	g.PUT("/:id", h.UpdateStrategy)
	g.DELETE("/:id", h.DeleteStrategy)
	g.POST("/:id/evaluate", h.EvaluateStrategy)
}

// CreateStrategy godoc
// @Summary Create a strategy
// @Description Create a VWAP strategy. Unset parameters take their defaults.
// @Tags strategies
// @Accept  json
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   strategy body dto.CreateStrategyRequest true "Strategy to create"
// @Success 201 {object} entity.Strategy
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /strategies [post]
func (h *StrategyHandler) CreateStrategy(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CreateStrategyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	strategy, err := h.strategyService.CreateStrategy(c.Request().Context(), uid, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, strategy)
}

// GetStrategies godoc
// @Summary List strategies
// @Tags strategies
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Success 200 {array} entity.Strategy
// @Failure 500 {object} dto.ErrorResponse
// @Router /strategies [get]
func (h *StrategyHandler) GetStrategies(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}

	strategies, err := h.strategyService.GetStrategies(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, strategies)
}

// GetStrategy godoc
// @Summary Get a strategy by ID
// @Tags strategies
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   id path int true "Strategy ID"
// @Success 200 {object} entity.Strategy
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /strategies/{id} [get]
func (h *StrategyHandler) GetStrategy(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid strategy ID"})
	}

	strategy, err := h.strategyService.GetStrategy(c.Request().Context(), uid, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, strategy)
}

// UpdateStrategy godoc
// @Summary Update a strategy
// @Description Only the fields present in the payload are changed
// @Tags strategies
// @Accept  json
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   id path int true "Strategy ID"
// @Param   strategy body dto.UpdateStrategyRequest true "Fields to change"
// @Success 200 {object} entity.Strategy
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /strategies/{id} [put]
func (h *StrategyHandler) UpdateStrategy(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid strategy ID"})
	}

	var req dto.UpdateStrategyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	strategy, err := h.strategyService.UpdateStrategy(c.Request().Context(), uid, id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, strategy)
}

// DeleteStrategy godoc
// @Summary Delete a strategy
// @Tags strategies
// @Param   X-User-ID header int true "Caller user ID"
// @Param   id path int true "Strategy ID"
// @Success 204 {object} nil
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /strategies/{id} [delete]
func (h *StrategyHandler) DeleteStrategy(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid strategy ID"})
	}

	if err := h.strategyService.DeleteStrategy(c.Request().Context(), uid, id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// EvaluateStrategy godoc
// @Summary Evaluate a strategy now
// @Description Quotes the symbol, runs the VWAP model and places an order for auto order strategies.
// @Description Without samples in the payload the intraday samples recorded for the symbol are used.
// @Tags strategies
// @Accept  json
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   id path int true "Strategy ID"
// @Param   samples body dto.EvaluateStrategyRequest false "Optional samples and entry price"
// @Success 200 {object} dto.EvaluationResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /strategies/{id}/evaluate [post]
func (h *StrategyHandler) EvaluateStrategy(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid strategy ID"})
	}

	var req dto.EvaluateStrategyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	result, err := h.signalService.EvaluateStrategy(c.Request().Context(), uid, id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, result)
}
