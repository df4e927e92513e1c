package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/logger"
	"golang-kis-trader/pkg/metrics"
	"golang-kis-trader/pkg/telegram"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const defaultOrderPageSize = 100

// OrderService places orders and keeps their audit trail.
//
// Every order is recorded as PENDING before it is sent and is sent exactly
// once. The record then moves to SUBMITTED, FAILED, or UNKNOWN when the
// request may have reached the brokerage without an answer coming back.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uint, req *dto.CreateOrderRequest) (*entity.Order, error)
	GetOrders(ctx context.Context, userID uint, param dto.ListOrdersParam) ([]entity.Order, error)
}

// NewOrderService creates a new order service.
func NewOrderService(gateway BrokerGateway, accountRepo repository.TradingAccountRepository, orderRepo repository.OrderRepository, notifier telegram.Notifier, logger *logger.Logger) OrderService {
	return &orderService{
		gateway:     gateway,
		accountRepo: accountRepo,
		orderRepo:   orderRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

type orderService struct {
	gateway     BrokerGateway
	accountRepo repository.TradingAccountRepository
	orderRepo   repository.OrderRepository
	notifier    telegram.Notifier
	logger      *logger.Logger
}

// PlaceOrder returns the stored order even when placing it failed, together with the error.
func (s *orderService) PlaceOrder(ctx context.Context, userID uint, req *dto.CreateOrderRequest) (*entity.Order, error) {
	orderReq := kis.OrderRequest{
		Symbol:   req.Symbol,
		Side:     kis.OrderSide(req.OrderType),
		Method:   kis.OrderMethod(req.OrderMethod),
		Quantity: req.Quantity,
		Price:    req.Price,
	}
	if err := orderReq.Validate(); err != nil {
		return nil, err
	}

	account, err := findActiveAccount(ctx, s.accountRepo, userID, req.TradingAccountID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]interface{}{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["side_code"] = orderReq.SideCode()
	metadata["division_code"] = orderReq.DivisionCode()
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return nil, invalidInput("metadata: %v", err)
	}

	order := &entity.Order{
		UserID:           userID,
		TradingAccountID: account.ID,
		ClientOrderID:    uuid.NewString(),
		Symbol:           orderReq.Symbol,
		OrderType:        string(orderReq.Side),
		OrderMethod:      string(orderReq.Method),
		Quantity:         orderReq.Quantity,
		Price:            orderReq.Price,
		Status:           entity.OrderStatusPending,
		StrategyID:       req.StrategyID,
		OrderMetadata:    datatypes.JSON(rawMetadata),
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record pending order", logger.ErrorField(err), logger.Field("user_id", userID))
		return nil, err
	}

	fields := []logger.ZapField{
		logger.Field("order_id", order.ID),
		logger.StringField("client_order_id", order.ClientOrderID),
		logger.Field("trading_account_id", account.ID),
		logger.StringField("symbol", order.Symbol),
		logger.StringField("side", order.OrderType),
	}

	resp, placeErr := s.gateway.PlaceOrder(ctx, credentialsOf(account), orderReq)
	placeErr = s.applyOutcome(order, resp, placeErr)

	// The order was already sent; a failure to store the outcome must not look like a failed order.
	if err := s.orderRepo.Update(context.WithoutCancel(ctx), order); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record order outcome", append(fields, logger.ErrorField(err), logger.StringField("status", string(order.Status)))...)
	}

	metrics.Orders.WithLabelValues(order.OrderType, string(order.Status)).Inc()
	if err := s.notifier.SendMessage(telegram.FormatOrderMessage(order)); err != nil {
		s.logger.WarnContext(ctx, "Failed to send order notification", append(fields, logger.ErrorField(err))...)
	}

	if placeErr != nil {
		s.logger.ErrorContext(ctx, "Order was not accepted", append(fields, logger.ErrorField(placeErr), logger.StringField("status", string(order.Status)))...)
		return order, placeErr
	}

	s.logger.InfoContext(ctx, "Order submitted", append(fields, logger.StringField("kis_order_no", order.KISOrderNo))...)
	return order, nil
}

// applyOutcome moves the order out of PENDING and returns the error to report, if any.
func (s *orderService) applyOutcome(order *entity.Order, resp kis.Response, placeErr error) error {
	var transportErr *kis.TransportError
	if errors.As(placeErr, &transportErr) {
		order.Status = entity.OrderStatusUnknown
		order.ErrorMessage = placeErr.Error()
		return placeErr
	}

	var apiErr *kis.BrokerAPIError
	if errors.As(placeErr, &apiErr) && len(apiErr.Body) > 0 && json.Valid(apiErr.Body) {
		order.BrokerResponse = datatypes.JSON(apiErr.Body)
	}
	if placeErr != nil {
		order.Status = entity.OrderStatusFailed
		order.ErrorMessage = placeErr.Error()
		return placeErr
	}

	if raw, err := json.Marshal(resp); err == nil {
		order.BrokerResponse = datatypes.JSON(raw)
	}

	if rtCd := stringField(resp, "rt_cd"); rtCd != "" && rtCd != "0" {
		order.Status = entity.OrderStatusFailed
		order.ErrorMessage = fmt.Sprintf("%s %s", stringField(resp, "msg_cd"), stringField(resp, "msg1"))
		return fmt.Errorf("%w: %s", ErrOrderRejected, order.ErrorMessage)
	}

	order.Status = entity.OrderStatusSubmitted
	order.KISOrderNo = stringField(objectField(resp, "output"), "ODNO")
	return nil
}

func (s *orderService) GetOrders(ctx context.Context, userID uint, param dto.ListOrdersParam) ([]entity.Order, error) {
	if param.Offset < 0 {
		param.Offset = 0
	}
	if param.Limit <= 0 || param.Limit > defaultOrderPageSize {
		param.Limit = defaultOrderPageSize
	}

	orders, err := s.orderRepo.FindByUser(ctx, userID, param.Offset, param.Limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list orders", logger.ErrorField(err), logger.Field("user_id", userID))
		return nil, err
	}
	return orders, nil
}
