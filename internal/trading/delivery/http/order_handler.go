package http

import (
	"net/http"

	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/service"
	"golang-kis-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService service.OrderService
	logger       *logger.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService service.OrderService, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// RegisterRoutes registers the order routes to the Echo group.
func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.PlaceOrder)
	g.GET("", h.GetOrders)
}

// PlaceOrder godoc
// @Summary Place a cash order
// @Description Records the order and sends it to the brokerage once. A failed order is returned with the error.
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   order body dto.CreateOrderRequest true "Order to place"
// @Success 201 {object} entity.Order
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 504 {object} dto.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	order, err := h.orderService.PlaceOrder(c.Request().Context(), uid, &req)
	if err != nil {
		if order != nil {
			return errorBody(c, h.logger, err, echo.Map{"order": order})
		}
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// GetOrders godoc
// @Summary List orders
// @Tags orders
// @Produce  json
// @Param   X-User-ID header int true "Caller user ID"
// @Param   skip query int false "Offset"
// @Param   limit query int false "Page size" default(100)
// @Success 200 {array} entity.Order
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) GetOrders(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return unauthorized(c)
	}

	var param dto.ListOrdersParam
	if err := c.Bind(&param); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query parameters"})
	}

	orders, err := h.orderService.GetOrders(c.Request().Context(), uid, param)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, orders)
}
