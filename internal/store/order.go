package store

import (
	"sync"

	"github.com/efreitasn/tradesim/internal/domain"
)

// OrderStore is a thread-safe in-memory journal of orders,
// with a primary index by order_id and a secondary index by account_id.
// Orders are stored once they reach a terminal state and are not
// modified afterwards.
type OrderStore struct {
	mu            sync.RWMutex
	orders        map[string]*domain.Order
	accountOrders map[string][]*domain.Order // account_id → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:        make(map[string]*domain.Order),
		accountOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the
// account's secondary index.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = o
	s.accountOrders[o.AccountID] = append(s.accountOrders[o.AccountID], o)
}

// CreateUnindexed adds an order reachable by order_id only. It is used for
// orders whose account does not exist, so a later registration under that
// ID does not inherit them.
func (s *OrderStore) CreateUnindexed(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = o
}

// Get retrieves an order by ID. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListByAccount returns orders for an account in reverse chronological order
// (newest first). If status is non-nil, only orders matching that status
// are included. Pagination is 1-based. Returns the matching orders for the
// requested page and the total count of matching orders (before pagination).
func (s *OrderStore) ListByAccount(accountID string, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.accountOrders[accountID]

	filtered := make([]*domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)

	start := (page - 1) * limit
	if start >= total {
		return []*domain.Order{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return filtered[start:end], total
}
