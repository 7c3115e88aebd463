package store

import (
	"sync"

	"github.com/efreitasn/tradesim/internal/domain"
)

// TradeStore is the market-wide trade tape: a thread-safe in-memory
// log of every executed trade, keyed by symbol. Trades are append-only
// and chronological.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string][]domain.Trade // symbol → trades (chronological)
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		trades: make(map[string][]domain.Trade),
	}
}

// Append adds a trade to its symbol's chronological list.
func (s *TradeStore) Append(t domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades[t.Symbol] = append(s.trades[t.Symbol], t)
}

// GetBySymbol returns the most recent trades for a symbol, oldest first.
// A limit <= 0 returns all of them. Returns an empty slice if no trades
// exist for the symbol.
func (s *TradeStore) GetBySymbol(symbol string, limit int) []domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[symbol]
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	result := make([]domain.Trade, len(trades))
	copy(result, trades)
	return result
}

// Volume returns the number of trades and the total quantity traded
// for a symbol.
func (s *TradeStore) Volume(symbol string) (count int, quantity int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.trades[symbol] {
		quantity += t.Quantity
	}
	return len(s.trades[symbol]), quantity
}
