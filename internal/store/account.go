package store

import (
	"sort"
	"sync"

	"github.com/efreitasn/tradesim/internal/domain"
)

// AccountStore is a thread-safe in-memory store for accounts,
// keyed by account ID. The store lock only guards the map; each
// account serializes its own mutations.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Create adds an account to the store. It returns
// domain.ErrAccountAlreadyExists if an account with the same ID
// already exists.
func (s *AccountStore) Create(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return domain.ErrAccountAlreadyExists
	}
	s.accounts[a.ID] = a
	return nil
}

// Get retrieves an account by ID. It returns
// domain.ErrUnknownAccount if the account does not exist.
func (s *AccountStore) Get(id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrUnknownAccount
	}
	return a, nil
}

// Exists returns true if an account with the given ID exists.
func (s *AccountStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[id]
	return ok
}

// IDs returns all account IDs in ascending order.
func (s *AccountStore) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
