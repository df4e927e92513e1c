package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedOrder(t *testing.T, env *testEnv, id uint) entity.Order {
	t.Helper()
	var order entity.Order
	require.NoError(t, env.db.First(&order, id).Error)
	return order
}

func TestOrderService_PlaceOrder(t *testing.T) {
	tests := []struct {
		name       string
		resp       kis.Response
		err        error
		wantStatus entity.OrderStatus
		wantErr    func(t *testing.T, err error)
	}{
		{
			name:       "accepted",
			resp:       kis.Response{"rt_cd": "0", "msg1": "주문 전송 완료", "output": map[string]interface{}{"ODNO": "0000117057"}},
			wantStatus: entity.OrderStatusSubmitted,
			wantErr:    func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:       "rejected in body",
			resp:       kis.Response{"rt_cd": "1", "msg_cd": "APBK0919", "msg1": "주문가능금액을 초과 했습니다"},
			wantStatus: entity.OrderStatusFailed,
			wantErr:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrOrderRejected) },
		},
		{
			name:       "broker error",
			err:        &kis.BrokerAPIError{StatusCode: 500, TrID: kis.TrIDOrderCashSell, Body: []byte(`{"msg_cd":"EGW00201"}`)},
			wantStatus: entity.OrderStatusFailed,
			wantErr: func(t *testing.T, err error) {
				var apiErr *kis.BrokerAPIError
				assert.True(t, errors.As(err, &apiErr))
			},
		},
		{
			name:       "no answer",
			err:        &kis.TransportError{Op: kis.TrIDOrderCashSell, URL: "https://example", Err: context.DeadlineExceeded},
			wantStatus: entity.OrderStatusUnknown,
			wantErr: func(t *testing.T, err error) {
				var transportErr *kis.TransportError
				assert.True(t, errors.As(err, &transportErr))
			},
		},
		{
			name:       "token rejected",
			err:        &kis.AuthError{StatusCode: 403, Code: kis.RateLimitErrorCode},
			wantStatus: entity.OrderStatusFailed,
			wantErr:    func(t *testing.T, err error) { assert.True(t, kis.IsRateLimited(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.gateway.orderResp = tt.resp
			env.gateway.orderErr = tt.err

			order, err := env.orderService().PlaceOrder(context.Background(), 1, &dto.CreateOrderRequest{
				Symbol: "069500", OrderType: "SELL", OrderMethod: "MARKET", Quantity: 10,
				Metadata: map[string]interface{}{"note": "rebalance"},
			})
			tt.wantErr(t, err)
			require.NotNil(t, order)

			require.Len(t, env.gateway.orders, 1, "sent exactly once")
			sent := env.gateway.orders[0]
			assert.Equal(t, kis.SideSell, sent.Side)
			assert.Equal(t, kis.MethodMarket, sent.Method)
			assert.Nil(t, sent.Price)
			assert.Equal(t, env.account.ID, env.gateway.creds[0].AccountID)

			persisted := storedOrder(t, env, order.ID)
			assert.Equal(t, tt.wantStatus, persisted.Status)
			_, parseErr := uuid.Parse(persisted.ClientOrderID)
			assert.NoError(t, parseErr)

			var metadata map[string]interface{}
			require.NoError(t, json.Unmarshal(persisted.OrderMetadata, &metadata))
			assert.Equal(t, "01", metadata["side_code"])
			assert.Equal(t, "01", metadata["division_code"])
			assert.Equal(t, "rebalance", metadata["note"])

			if tt.wantStatus == entity.OrderStatusSubmitted {
				assert.Equal(t, "0000117057", persisted.KISOrderNo)
				assert.Empty(t, persisted.ErrorMessage)
			} else {
				assert.NotEmpty(t, persisted.ErrorMessage)
			}
			assert.Len(t, env.notifier.messages, 1)
		})
	}
}

func TestOrderService_PlaceOrderRejectsBeforeRecording(t *testing.T) {
	env := newTestEnv(t)
	svc := env.orderService()
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, 1, &dto.CreateOrderRequest{Symbol: "069500", OrderType: "BUY", OrderMethod: "LIMIT", Quantity: 1})
	var violation *kis.ContractViolation
	assert.True(t, errors.As(err, &violation))

	_, err = svc.PlaceOrder(ctx, 42, &dto.CreateOrderRequest{Symbol: "069500", OrderType: "BUY", OrderMethod: "MARKET", Quantity: 1})
	assert.ErrorIs(t, err, ErrTradingAccountNotFound)

	other := uint(999)
	_, err = svc.PlaceOrder(ctx, 1, &dto.CreateOrderRequest{TradingAccountID: &other, Symbol: "069500", OrderType: "BUY", OrderMethod: "MARKET", Quantity: 1})
	assert.ErrorIs(t, err, ErrTradingAccountNotFound)

	assert.Empty(t, env.gateway.orders)
	var count int64
	require.NoError(t, env.db.Model(&entity.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.notifier.messages)
}

func TestOrderService_LimitOrderAndNotifierFailure(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.err = errors.New("telegram down")
	env.gateway.orderResp = kis.Response{"rt_cd": "0", "output": map[string]interface{}{"ODNO": "1"}}

	order, err := env.orderService().PlaceOrder(context.Background(), 1, &dto.CreateOrderRequest{
		TradingAccountID: &env.account.ID, Symbol: "005930", OrderType: "BUY", OrderMethod: "LIMIT",
		Quantity: 2, Price: utils.ToPointer(int64(71500)),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusSubmitted, order.Status)
	require.NotNil(t, order.Price)
	assert.Equal(t, int64(71500), *order.Price)
	assert.Equal(t, int64(71500), *env.gateway.orders[0].Price)
}

func TestOrderService_GetOrders(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.orderResp = kis.Response{"rt_cd": "0", "output": map[string]interface{}{"ODNO": "1"}}
	svc := env.orderService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.PlaceOrder(ctx, 1, &dto.CreateOrderRequest{Symbol: "005930", OrderType: "BUY", OrderMethod: "MARKET", Quantity: 1})
		require.NoError(t, err)
	}

	orders, err := svc.GetOrders(ctx, 1, dto.ListOrdersParam{Offset: -5, Limit: 0})
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	orders, err = svc.GetOrders(ctx, 1, dto.ListOrdersParam{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = svc.GetOrders(ctx, 2, dto.ListOrdersParam{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}
