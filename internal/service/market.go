package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/store"
)

// Trade tape limits.
const (
	DefaultTradeLimit = 50
	MaxTradeLimit     = 500
)

// Quote is an instrument's current state plus the volume traded through
// the engine since startup.
type Quote struct {
	domain.InstrumentSnapshot
	TradeCount int
	Volume     int64
}

// InstrumentDetail is a Quote with the full price history, oldest first.
type InstrumentDetail struct {
	Quote
	History []decimal.Decimal
}

// MarketService serves read-only market data.
type MarketService struct {
	registry *domain.Registry
	trades   *store.TradeStore
}

// NewMarketService creates a new MarketService.
func NewMarketService(registry *domain.Registry, trades *store.TradeStore) *MarketService {
	return &MarketService{registry: registry, trades: trades}
}

// Snapshot lists every instrument ordered by symbol.
func (s *MarketService) Snapshot() []Quote {
	snaps := s.registry.Snapshot()
	quotes := make([]Quote, len(snaps))
	for i, snap := range snaps {
		quotes[i] = s.quote(snap)
	}
	return quotes
}

// Instrument returns one instrument with its price history.
func (s *MarketService) Instrument(symbol string) (InstrumentDetail, error) {
	symbol = normalizeSymbol(symbol)
	inst, err := s.registry.Get(symbol)
	if err != nil {
		return InstrumentDetail{}, err
	}
	history, err := s.registry.History(symbol)
	if err != nil {
		return InstrumentDetail{}, err
	}
	return InstrumentDetail{
		Quote:   s.quote(inst.Snapshot()),
		History: history,
	}, nil
}

// Tape is the tail of a symbol's trade log, oldest first.
type Tape struct {
	Symbol string
	Trades []domain.Trade
}

// Trades returns the most recent executions of symbol. A zero limit
// selects DefaultTradeLimit.
func (s *MarketService) Trades(symbol string, limit int) (Tape, error) {
	symbol = normalizeSymbol(symbol)
	if !s.registry.Exists(symbol) {
		return Tape{}, domain.ErrUnknownInstrument
	}
	if limit == 0 {
		limit = DefaultTradeLimit
	}
	if limit < 1 || limit > MaxTradeLimit {
		return Tape{}, &domain.ValidationError{
			Message: fmt.Sprintf("limit must be between 1 and %d", MaxTradeLimit),
		}
	}
	return Tape{Symbol: symbol, Trades: s.trades.GetBySymbol(symbol, limit)}, nil
}

func (s *MarketService) quote(snap domain.InstrumentSnapshot) Quote {
	count, volume := s.trades.Volume(snap.Symbol)
	return Quote{InstrumentSnapshot: snap, TradeCount: count, Volume: volume}
}
