package spot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crmkit/portal-api/internal/storage"
)

// Service wires the feed and the order simulator to device storage. Orders
// live under a single storage key; every change is persisted wholesale.
// Mutations hold mu across the whole load-modify-save cycle so the fill
// processor and the handlers never overwrite each other's writes.
type Service struct {
	feed    *Feed
	storage *storage.Store

	mu sync.Mutex
}

// NewService creates a spot service over the feed and device storage.
func NewService(feed *Feed, st *storage.Store) *Service {
	return &Service{feed: feed, storage: st}
}

// Orders loads the persisted order collection. Corrupt or missing data
// degrades to an empty collection.
func (s *Service) Orders() []Order {
	var orders []Order
	s.storage.Load(storage.KeySpot, &orders)
	return orders
}

// Snapshot advances the feed one tick, runs a fill pass against the new
// price, and returns the market state.
func (s *Service) Snapshot() Snapshot {
	snap := s.feed.Snapshot()
	s.applyFills(snap.Ticker.Last)
	return snap
}

// Place records a new simulated order against the feed's current price and
// persists the updated collection.
func (s *Service) Place(req OrderRequest) (Order, error) {
	o := PlaceOrder(req, s.feed.LastPrice())

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := append([]Order{o}, s.Orders()...)
	if err := s.storage.Save(storage.KeySpot, orders); err != nil {
		return Order{}, err
	}

	log.Info().
		Str("order_id", o.ID).
		Str("side", string(o.Side)).
		Str("type", string(o.Type)).
		Float64("qty", o.Qty).
		Str("status", string(o.Status)).
		Msg("simulated order placed")

	return o, nil
}

// Cancel transitions an OPEN order to CANCELED and persists. Cancelling a
// terminal or unknown order is a no-op.
func (s *Service) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.Orders()
	updated := CancelOrder(orders, id)
	if !changed(orders, updated) {
		return nil
	}
	log.Info().Str("order_id", id).Msg("simulated order canceled")
	return s.storage.Save(storage.KeySpot, updated)
}

// Start runs the background fill processor: each interval it advances the
// feed and applies the limit-fill pass. Blocks until ctx is done.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	logger := log.With().Str("component", "spot_fill_processor").Logger()
	logger.Info().Dur("interval", interval).Msg("starting spot fill processor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down spot fill processor")
			return
		case <-ticker.C:
			snap := s.feed.Snapshot()
			s.applyFills(snap.Ticker.Last)
		}
	}
}

func (s *Service) applyFills(lastPrice float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.Orders()
	updated := TryFillLimitOrders(orders, lastPrice)
	if !changed(orders, updated) {
		return
	}

	for i := range updated {
		if updated[i].Status == StatusFilled && orders[i].Status == StatusOpen {
			log.Info().
				Str("order_id", updated[i].ID).
				Float64("limit", updated[i].Price).
				Float64("fill_price", lastPrice).
				Msg("limit order filled")
		}
	}

	if err := s.storage.Save(storage.KeySpot, updated); err != nil {
		log.Error().Err(err).Msg("failed to persist filled orders")
	}
}

func changed(before, after []Order) bool {
	for i := range before {
		if before[i].Status != after[i].Status {
			return true
		}
	}
	return false
}
