package spot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceMarketOrderFillsImmediately(t *testing.T) {
	o := PlaceOrder(OrderRequest{
		Symbol: "BTC/USDT",
		Side:   SideBuy,
		Type:   TypeMarket,
		Qty:    0.5,
	}, 85000)

	assert.Equal(t, StatusFilled, o.Status)
	assert.Equal(t, 0.5, o.FilledQty)
	assert.Equal(t, 85000.0, o.AvgPrice)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, o.CreatedAt, o.UpdatedAt)
}

func TestPlaceLimitOrderRestsOpen(t *testing.T) {
	o := PlaceOrder(OrderRequest{
		Symbol: "BTC/USDT",
		Side:   SideSell,
		Type:   TypeLimit,
		Qty:    1,
		Price:  90000,
	}, 85000)

	assert.Equal(t, StatusOpen, o.Status)
	assert.Equal(t, 90000.0, o.Price)
	assert.Zero(t, o.FilledQty)
	assert.Zero(t, o.AvgPrice)
}

func TestTryFillLimitOrdersCrossing(t *testing.T) {
	orders := []Order{
		PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeLimit, Qty: 1, Price: 85000}, 86000),
		PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideSell, Type: TypeLimit, Qty: 2, Price: 84000}, 86000),
	}

	// Price at 84500: buy limit 85000 crosses (84500 <= 85000), sell
	// limit 84000 crosses (84500 >= 84000).
	filled := TryFillLimitOrders(orders, 84500)

	require.Len(t, filled, 2)
	for i, o := range filled {
		assert.Equal(t, StatusFilled, o.Status, "order %d", i)
		assert.Equal(t, o.Qty, o.FilledQty)
		assert.Equal(t, 84500.0, o.AvgPrice)
	}
}

func TestTryFillLimitOrdersNonCrossingUntouched(t *testing.T) {
	buy := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeLimit, Qty: 1, Price: 80000}, 86000)
	sell := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideSell, Type: TypeLimit, Qty: 1, Price: 90000}, 86000)
	orders := []Order{buy, sell}

	out := TryFillLimitOrders(orders, 85000)

	require.Len(t, out, 2)
	assert.Equal(t, buy, out[0], "non-crossing buy must pass through unchanged, including UpdatedAt")
	assert.Equal(t, sell, out[1], "non-crossing sell must pass through unchanged, including UpdatedAt")
}

func TestTryFillLimitOrdersSkipsMarketAndTerminal(t *testing.T) {
	market := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeMarket, Qty: 1}, 86000)
	canceled := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeLimit, Qty: 1, Price: 99999}, 86000)
	canceled = CancelOrder([]Order{canceled}, canceled.ID)[0]
	require.Equal(t, StatusCanceled, canceled.Status)

	out := TryFillLimitOrders([]Order{market, canceled}, 1)

	assert.Equal(t, market, out[0])
	assert.Equal(t, canceled, out[1], "terminal orders are never re-evaluated")
}

func TestTryFillLimitOrdersReturnsNewCollection(t *testing.T) {
	orders := []Order{
		PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeLimit, Qty: 1, Price: 85000}, 86000),
	}

	out := TryFillLimitOrders(orders, 84000)

	assert.Equal(t, StatusOpen, orders[0].Status, "input collection must not be mutated")
	assert.Equal(t, StatusFilled, out[0].Status)
}

func TestCancelOpenOrder(t *testing.T) {
	o := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeLimit, Qty: 1, Price: 85000}, 86000)

	out := CancelOrder([]Order{o}, o.ID)

	assert.Equal(t, StatusCanceled, out[0].Status)
}

func TestCancelTerminalOrderIsNoOp(t *testing.T) {
	filled := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeMarket, Qty: 1}, 86000)
	require.Equal(t, StatusFilled, filled.Status)

	out := CancelOrder([]Order{filled}, filled.ID)
	assert.Equal(t, filled, out[0])

	resting := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeLimit, Qty: 1, Price: 1}, 2)
	untouched := CancelOrder([]Order{resting}, "")
	assert.Equal(t, StatusOpen, untouched[0].Status, "empty id cancels nothing")
}

func TestCancelUnknownIDIsNoOp(t *testing.T) {
	o := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeLimit, Qty: 1, Price: 85000}, 86000)

	out := CancelOrder([]Order{o}, "missing")
	assert.Equal(t, o, out[0])
}

func TestSplitOrders(t *testing.T) {
	open := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideBuy, Type: TypeLimit, Qty: 1, Price: 1}, 2)
	filled := PlaceOrder(OrderRequest{Symbol: "BTC/USDT", Side: SideSell, Type: TypeMarket, Qty: 1}, 2)

	gotOpen, gotHistory := SplitOrders([]Order{open, filled})

	require.Len(t, gotOpen, 1)
	require.Len(t, gotHistory, 1)
	assert.Equal(t, open.ID, gotOpen[0].ID)
	assert.Equal(t, filled.ID, gotHistory[0].ID)
}
