package spot

import (
	"time"

	"github.com/google/uuid"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type OrderType string

const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusFilled   Status = "FILLED"
	StatusCanceled Status = "CANCELED"
)

// Order is a simulated spot order. FILLED and CANCELED are terminal; a
// terminal order is never re-evaluated.
type Order struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Type      OrderType `json:"type"`
	Price     float64   `json:"price,omitempty"`
	Qty       float64   `json:"qty"`
	Status    Status    `json:"status"`
	FilledQty float64   `json:"filledQty"`
	AvgPrice  float64   `json:"avgPrice,omitempty"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// OrderRequest is the client's order specification.
type OrderRequest struct {
	Symbol string    `json:"symbol" binding:"required"`
	Side   Side      `json:"side" binding:"required,oneof=buy sell"`
	Type   OrderType `json:"type" binding:"required,oneof=market limit"`
	Qty    float64   `json:"qty" binding:"required,gt=0"`
	Price  float64   `json:"price"`
}

// PlaceOrder builds a new order from the request. Market orders fill
// immediately at lastPrice for the full quantity; limit orders are left
// OPEN carrying their limit price for later evaluation.
func PlaceOrder(req OrderRequest, lastPrice float64) Order {
	now := time.Now().UnixMilli()
	o := Order{
		ID:        uuid.NewString(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Qty:       req.Qty,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.Type == TypeLimit {
		o.Price = req.Price
		return o
	}

	o.Status = StatusFilled
	o.FilledQty = o.Qty
	o.AvgPrice = lastPrice
	return o
}

// TryFillLimitOrders fills every OPEN limit order whose limit crosses
// lastPrice: buys when lastPrice <= limit, sells when lastPrice >= limit.
// Fills are whole-quantity at lastPrice; no partial fills, no priority, no
// interaction between orders. Non-matching orders pass through unchanged.
func TryFillLimitOrders(orders []Order, lastPrice float64) []Order {
	now := time.Now().UnixMilli()
	out := make([]Order, len(orders))
	for i, o := range orders {
		if o.Status != StatusOpen || o.Type != TypeLimit || o.Price == 0 {
			out[i] = o
			continue
		}

		crossed := lastPrice <= o.Price
		if o.Side == SideSell {
			crossed = lastPrice >= o.Price
		}
		if !crossed {
			out[i] = o
			continue
		}

		o.Status = StatusFilled
		o.FilledQty = o.Qty
		o.AvgPrice = lastPrice
		o.UpdatedAt = now
		out[i] = o
	}
	return out
}

// CancelOrder transitions a matching OPEN order to CANCELED. Terminal
// orders are left untouched; a miss is not an error.
func CancelOrder(orders []Order, id string) []Order {
	now := time.Now().UnixMilli()
	out := make([]Order, len(orders))
	for i, o := range orders {
		if o.ID == id && o.Status == StatusOpen {
			o.Status = StatusCanceled
			o.UpdatedAt = now
		}
		out[i] = o
	}
	return out
}

// SplitOrders partitions a collection into open orders and history.
func SplitOrders(orders []Order) (open, history []Order) {
	for _, o := range orders {
		if o.Status == StatusOpen {
			open = append(open, o)
		} else {
			history = append(history, o)
		}
	}
	return open, history
}
