// Package spot is the simulated spot-trading widget: a synthetic market
// feed driven by a bounded random walk, plus a toy order simulator. It is
// self-contained and never touches the backend.
package spot

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	startPrice = 85600.0

	tapeCap    = 60
	bookLevels = 18
)

// Ticker is the per-tick market summary. High/low/volume run since the
// last anchor reset; change is relative to the anchor open.
type Ticker struct {
	Symbol       string  `json:"symbol"`
	Last         float64 `json:"last"`
	Change24hPct float64 `json:"change24hPct"`
	High24h      float64 `json:"high24h"`
	Low24h       float64 `json:"low24h"`
	Vol24h       float64 `json:"vol24h"`
	TS           int64   `json:"ts"`
}

// BookLevel is one price level of the synthesized ladder.
type BookLevel struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// OrderBook holds the bid/ask ladders. The book is resynthesized from
// scratch every tick; it has no memory between ticks.
type OrderBook struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
	TS   int64       `json:"ts"`
}

// Trade is one synthetic tape entry.
type Trade struct {
	ID    string  `json:"id"`
	Side  Side    `json:"side"`
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
	TS    int64   `json:"ts"`
}

// Snapshot is one tick's worth of market data.
type Snapshot struct {
	Ticker    Ticker    `json:"ticker"`
	OrderBook OrderBook `json:"orderBook"`
	Trades    []Trade   `json:"trades"`
}

// Feed generates the synthetic market. Snapshot is a pull: each call
// advances the walk one tick. Callers poll on their own schedule.
type Feed struct {
	mu     sync.Mutex
	symbol string

	last   float64
	open   float64
	high   float64
	low    float64
	volume float64

	trades []Trade
	book   OrderBook
}

// NewFeed creates a feed for symbol, seeded with a few ticks so the first
// snapshot already has a tape and a book.
func NewFeed(symbol string) *Feed {
	f := &Feed{
		symbol: symbol,
		last:   startPrice,
		open:   startPrice * (1 - 0.02),
		high:   startPrice,
		low:    startPrice,
	}
	for i := 0; i < 5; i++ {
		f.tick()
	}
	return f
}

// Snapshot advances one tick and returns the resulting market state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tick()
}

// LastPrice returns the current last price without advancing the walk.
func (f *Feed) LastPrice() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return round(f.last, 2)
}

// ResetAnchor re-anchors the running 24h stats at the current price.
func (f *Feed) ResetAnchor() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = f.last
	f.high = f.last
	f.low = f.last
	f.volume = 0
}

func (f *Feed) tick() Snapshot {
	ts := time.Now().UnixMilli()

	// Bounded drift with a low-probability larger jump, clamped positive.
	drift := rnd(-0.35, 0.35)
	jump := 0.0
	if rand.Float64() < 0.02 {
		jump = rnd(-25, 25)
	}
	f.last = math.Max(1, f.last+drift+jump)

	f.high = math.Max(f.high, f.last)
	f.low = math.Min(f.low, f.last)

	// A small burst of trades around the new price, prepended to the tape.
	tradeCount := 2 + rand.Intn(4)
	burst := make([]Trade, 0, tradeCount)
	for i := 0; i < tradeCount; i++ {
		side := SideSell
		if rand.Float64() > 0.5 {
			side = SideBuy
		}
		qty := round(rnd(0.0005, 0.03), 6)
		f.volume += qty
		burst = append(burst, Trade{
			ID:    uuid.NewString(),
			Side:  side,
			Price: round(f.last+rnd(-2.5, 2.5), 2),
			Qty:   qty,
			TS:    ts - int64(i)*120,
		})
	}
	f.trades = append(burst, f.trades...)
	if len(f.trades) > tapeCap {
		f.trades = f.trades[:tapeCap]
	}

	// Fresh ladder around the new price at deterministic offsets.
	bids := make([]BookLevel, 0, bookLevels)
	asks := make([]BookLevel, 0, bookLevels)
	for i := 1; i <= bookLevels; i++ {
		step := 1 + float64(i)*0.8
		bids = append(bids, BookLevel{Price: round(f.last-step, 2), Qty: round(rnd(0.01, 0.35), 6)})
		asks = append(asks, BookLevel{Price: round(f.last+step, 2), Qty: round(rnd(0.01, 0.35), 6)})
	}
	f.book = OrderBook{Bids: bids, Asks: asks, TS: ts}

	ticker := Ticker{
		Symbol:       f.symbol,
		Last:         round(f.last, 2),
		Change24hPct: round((f.last-f.open)/f.open*100, 2),
		High24h:      round(f.high, 2),
		Low24h:       round(f.low, 2),
		Vol24h:       round(f.volume, 4),
		TS:           ts,
	}

	return Snapshot{
		Ticker:    ticker,
		OrderBook: f.book,
		Trades:    append([]Trade(nil), f.trades...),
	}
}

func rnd(min, max float64) float64 {
	return rand.Float64()*(max-min) + min
}

func round(n float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(n*p) / p
}
