package store

import (
	"sort"
	"sync"

	"github.com/efreitasn/tradesim/internal/domain"
)

type subscriptionKey struct {
	accountID string
	event     string
}

// WebhookStore is a thread-safe in-memory store for webhook subscriptions.
// There is at most one subscription per (account, event) pair. Webhooks are
// stored and returned by value so callers never share mutable state with
// the store.
type WebhookStore struct {
	mu    sync.RWMutex
	byID  map[string]subscriptionKey
	byKey map[subscriptionKey]domain.Webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		byID:  make(map[string]subscriptionKey),
		byKey: make(map[subscriptionKey]domain.Webhook),
	}
}

// Upsert stores w unless the account already subscribes to the event, in
// which case the existing subscription keeps its ID and only its URL (and
// UpdatedAt, if the URL changed) is replaced. It returns the stored
// subscription and whether it was newly created.
func (s *WebhookStore) Upsert(w domain.Webhook) (domain.Webhook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subscriptionKey{accountID: w.AccountID, event: w.Event}
	if existing, ok := s.byKey[key]; ok {
		if existing.URL != w.URL {
			existing.URL = w.URL
			existing.UpdatedAt = w.UpdatedAt
			s.byKey[key] = existing
		}
		return existing, false
	}

	s.byKey[key] = w
	s.byID[w.WebhookID] = key
	return w, true
}

// Get retrieves a webhook by ID, or domain.ErrWebhookNotFound.
func (s *WebhookStore) Get(id string) (domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.byID[id]
	if !ok {
		return domain.Webhook{}, domain.ErrWebhookNotFound
	}
	return s.byKey[key], nil
}

// Lookup returns the account's subscription to event, if any.
func (s *WebhookStore) Lookup(accountID, event string) (domain.Webhook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.byKey[subscriptionKey{accountID: accountID, event: event}]
	return w, ok
}

// ListByAccount returns the account's subscriptions ordered by event.
func (s *WebhookStore) ListByAccount(accountID string) []domain.Webhook {
	s.mu.RLock()
	result := make([]domain.Webhook, 0)
	for key, w := range s.byKey {
		if key.accountID == accountID {
			result = append(result, w)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Event < result[j].Event
	})
	return result
}

// Delete removes a webhook by ID, or returns domain.ErrWebhookNotFound.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.byID[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	delete(s.byID, id)
	delete(s.byKey, key)
	return nil
}
