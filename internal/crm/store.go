// Package crm is the domain store for the five backend collections. It
// keeps a read-through cache that is refreshed wholesale after every
// mutation; a failed collection fetch never discards previously good data
// and never fails its siblings.
package crm

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/crmkit/portal-api/internal/api"
)

// Store caches the backend collections and exposes mutations that write
// through to the backend and then re-fetch everything.
type Store struct {
	client *api.Client

	mu            sync.RWMutex
	customers     []Customer
	orders        []Order
	visits        []Visit
	finance       []FinanceRecord
	employees     []Employee
	customerIndex map[int64]Customer
}

// NewStore creates an empty domain store over the upstream client.
func NewStore(client *api.Client) *Store {
	return &Store{
		client:        client,
		customerIndex: make(map[int64]Customer),
	}
}

// RefreshAll fetches the five collections concurrently. Each collection's
// failure is isolated: the previous cached value is retained and the error
// logged, while the other fetches proceed independently.
func (s *Store) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(5)

	go func() {
		defer wg.Done()
		refresh(ctx, s.client, "/customers", func(list []Customer) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.customers = list
			s.rebuildCustomerIndex()
		})
	}()
	go func() {
		defer wg.Done()
		refresh(ctx, s.client, "/orders", func(list []Order) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.orders = list
		})
	}()
	go func() {
		defer wg.Done()
		refresh(ctx, s.client, "/visits", func(list []Visit) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.visits = list
		})
	}()
	go func() {
		defer wg.Done()
		refresh(ctx, s.client, "/finance-records", func(list []FinanceRecord) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.finance = list
		})
	}()
	go func() {
		defer wg.Done()
		refresh(ctx, s.client, "/employees", func(list []Employee) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.employees = list
		})
	}()

	wg.Wait()
}

func refresh[T any](ctx context.Context, client *api.Client, path string, apply func([]T)) {
	var list []T
	if err := client.Get(ctx, path, &list); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("collection refresh failed, keeping cached data")
		return
	}
	apply(list)
}

// rebuildCustomerIndex recomputes the id lookup. Callers hold the lock.
func (s *Store) rebuildCustomerIndex() {
	index := make(map[int64]Customer, len(s.customers))
	for _, c := range s.customers {
		index[c.ID] = c
	}
	s.customerIndex = index
}

// Customers returns a copy of the cached customer collection.
func (s *Store) Customers() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Customer(nil), s.customers...)
}

// Orders returns a copy of the cached order collection.
func (s *Store) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Order(nil), s.orders...)
}

// Visits returns a copy of the cached visit collection.
func (s *Store) Visits() []Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Visit(nil), s.visits...)
}

// Finance returns a copy of the cached finance collection.
func (s *Store) Finance() []FinanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]FinanceRecord(nil), s.finance...)
}

// Employees returns a copy of the cached employee collection.
func (s *Store) Employees() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Employee(nil), s.employees...)
}

// CustomerByID looks up a cached customer through the derived index.
func (s *Store) CustomerByID(id int64) (Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customerIndex[id]
	return c, ok
}

// Summarize computes the dashboard rollup from the cache.
func (s *Store) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		Customers: len(s.customers),
		Orders:    len(s.orders),
		Visits:    len(s.visits),
		Employees: len(s.employees),
	}
	for _, o := range s.orders {
		sum.TotalOrder += o.Amount
	}
	for _, f := range s.finance {
		if f.Type == "invoice" && f.Status == "pending" {
			sum.PendingInvoice += f.Amount
		}
		if f.Type == "payment" && f.Status == "done" {
			sum.DonePayment += f.Amount
		}
	}
	return sum
}

// mutate performs a single write call and, when it succeeds, re-fetches all
// collections. Write failures propagate; cached data is left untouched.
func (s *Store) mutate(ctx context.Context, write func() error) error {
	if err := write(); err != nil {
		return err
	}
	s.RefreshAll(ctx)
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	var created Customer
	err := s.mutate(ctx, func() error {
		return s.client.Post(ctx, "/customers", in, &created)
	})
	return created, err
}

func (s *Store) UpdateCustomer(ctx context.Context, id int64, in CustomerInput) (Customer, error) {
	var updated Customer
	err := s.mutate(ctx, func() error {
		return s.client.Put(ctx, fmt.Sprintf("/customers/%d", id), in, &updated)
	})
	return updated, err
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	return s.mutate(ctx, func() error {
		return s.client.Delete(ctx, fmt.Sprintf("/customers/%d", id))
	})
}

func (s *Store) CreateOrder(ctx context.Context, in OrderInput) (Order, error) {
	var created Order
	err := s.mutate(ctx, func() error {
		return s.client.Post(ctx, "/orders", in, &created)
	})
	return created, err
}

func (s *Store) UpdateOrder(ctx context.Context, id int64, in OrderInput) (Order, error) {
	var updated Order
	err := s.mutate(ctx, func() error {
		return s.client.Put(ctx, fmt.Sprintf("/orders/%d", id), in, &updated)
	})
	return updated, err
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	return s.mutate(ctx, func() error {
		return s.client.Delete(ctx, fmt.Sprintf("/orders/%d", id))
	})
}

func (s *Store) CreateVisit(ctx context.Context, in VisitInput) (Visit, error) {
	var created Visit
	err := s.mutate(ctx, func() error {
		return s.client.Post(ctx, "/visits", in, &created)
	})
	return created, err
}

func (s *Store) UpdateVisit(ctx context.Context, id int64, in VisitInput) (Visit, error) {
	var updated Visit
	err := s.mutate(ctx, func() error {
		return s.client.Put(ctx, fmt.Sprintf("/visits/%d", id), in, &updated)
	})
	return updated, err
}

func (s *Store) DeleteVisit(ctx context.Context, id int64) error {
	return s.mutate(ctx, func() error {
		return s.client.Delete(ctx, fmt.Sprintf("/visits/%d", id))
	})
}

func (s *Store) CreateFinanceRecord(ctx context.Context, in FinanceInput) (FinanceRecord, error) {
	var created FinanceRecord
	err := s.mutate(ctx, func() error {
		return s.client.Post(ctx, "/finance-records", in, &created)
	})
	return created, err
}

func (s *Store) UpdateFinanceRecord(ctx context.Context, id int64, in FinanceInput) (FinanceRecord, error) {
	var updated FinanceRecord
	err := s.mutate(ctx, func() error {
		return s.client.Put(ctx, fmt.Sprintf("/finance-records/%d", id), in, &updated)
	})
	return updated, err
}

func (s *Store) DeleteFinanceRecord(ctx context.Context, id int64) error {
	return s.mutate(ctx, func() error {
		return s.client.Delete(ctx, fmt.Sprintf("/finance-records/%d", id))
	})
}

func (s *Store) CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error) {
	var created Employee
	err := s.mutate(ctx, func() error {
		return s.client.Post(ctx, "/employees", in, &created)
	})
	return created, err
}

func (s *Store) UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (Employee, error) {
	var updated Employee
	err := s.mutate(ctx, func() error {
		return s.client.Put(ctx, fmt.Sprintf("/employees/%d", id), in, &updated)
	})
	return updated, err
}

func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	return s.mutate(ctx, func() error {
		return s.client.Delete(ctx, fmt.Sprintf("/employees/%d", id))
	})
}

// News is served pass-through rather than cached; the optional status
// filter partitions the listing.

func (s *Store) ListNews(ctx context.Context, status string) ([]NewsItem, error) {
	path := "/news"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var list []NewsItem
	if err := s.client.Get(ctx, path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) CreateNews(ctx context.Context, in NewsInput) (NewsItem, error) {
	var created NewsItem
	err := s.client.Post(ctx, "/news", in, &created)
	return created, err
}

func (s *Store) UpdateNews(ctx context.Context, id int64, in NewsInput) (NewsItem, error) {
	var updated NewsItem
	err := s.client.Put(ctx, fmt.Sprintf("/news/%d", id), in, &updated)
	return updated, err
}

func (s *Store) DeleteNews(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/news/%d", id))
}
