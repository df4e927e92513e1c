package kis

import (
	"errors"
	"testing"
	"time"

	"golang-kis-trader/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAccountNumber(t *testing.T) {
	cano, product, err := SplitAccountNumber("5012345601")
	require.NoError(t, err)
	assert.Equal(t, "50123456", cano)
	assert.Equal(t, "01", product)

	for _, bad := range []string{"", "501234560", "50123456012", "50123456AB"} {
		_, _, err := SplitAccountNumber(bad)
		var violation *ContractViolation
		assert.True(t, errors.As(err, &violation), bad)
	}
}

func TestOrderRequest_Validate(t *testing.T) {
	price := utils.ToPointer(int64(10000))
	tests := []struct {
		name      string
		order     OrderRequest
		wantField string
	}{
		{"market ok", OrderRequest{Symbol: "069500", Side: SideBuy, Method: MethodMarket, Quantity: 1}, ""},
		{"limit ok", OrderRequest{Symbol: "069500", Side: SideSell, Method: MethodLimit, Quantity: 1, Price: price}, ""},
		{"missing symbol", OrderRequest{Side: SideBuy, Method: MethodMarket, Quantity: 1}, "symbol"},
		{"bad side", OrderRequest{Symbol: "069500", Side: "HOLD", Method: MethodMarket, Quantity: 1}, "side"},
		{"zero quantity", OrderRequest{Symbol: "069500", Side: SideBuy, Method: MethodMarket}, "quantity"},
		{"limit without price", OrderRequest{Symbol: "069500", Side: SideBuy, Method: MethodLimit, Quantity: 1}, "price"},
		{"market with price", OrderRequest{Symbol: "069500", Side: SideBuy, Method: MethodMarket, Quantity: 1, Price: price}, "price"},
		{"bad method", OrderRequest{Symbol: "069500", Side: SideBuy, Method: "STOP", Quantity: 1}, "method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var violation *ContractViolation
			require.True(t, errors.As(err, &violation))
			assert.Equal(t, tt.wantField, violation.Field)
		})
	}
}

func TestOrderRequest_Codes(t *testing.T) {
	buy := OrderRequest{Side: SideBuy, Method: MethodLimit}
	sell := OrderRequest{Side: SideSell, Method: MethodMarket}

	assert.Equal(t, "02", buy.SideCode())
	assert.Equal(t, "00", buy.DivisionCode())
	assert.Equal(t, TrIDOrderCashBuy, buy.trID())

	assert.Equal(t, "01", sell.SideCode())
	assert.Equal(t, "01", sell.DivisionCode())
	assert.Equal(t, TrIDOrderCashSell, sell.trID())
}

func TestToken_ValidAt(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := Token{Value: "v", IssuedAt: issued, ExpiresIn: 86400}
	margin := 5 * time.Minute

	assert.True(t, tok.ValidAt(issued, margin))
	assert.True(t, tok.ValidAt(issued.Add(24*time.Hour-margin-time.Second), margin))
	assert.False(t, tok.ValidAt(issued.Add(24*time.Hour-margin), margin))
	assert.False(t, tok.ValidAt(issued.Add(25*time.Hour), margin))
	assert.False(t, Token{IssuedAt: issued, ExpiresIn: 86400}.ValidAt(issued, margin))
}
