package domain

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a user's ledger: cash balance, per-symbol holdings and the
// append-only history of executed trades.
//
// Balance, holdings and history form one unit guarded by mu. They are only
// reachable through the methods below, each of which applies its changes
// entirely under the lock, so no caller can observe a debit without the
// matching holding credit.
type Account struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	balance  decimal.Decimal
	holdings map[string]int64
	history  []Trade
	seq      int64
}

// Holding is a positive position in a single symbol.
type Holding struct {
	Symbol   string
	Quantity int64
}

// AccountSnapshot is a point-in-time, internally consistent copy of an
// account's state.
type AccountSnapshot struct {
	AccountID string
	Balance   decimal.Decimal
	Holdings  []Holding // positive quantities only, ordered by symbol
	History   []Trade   // oldest first
	CreatedAt time.Time
}

// NewAccount creates an account with the given starting balance, no
// holdings and no history.
func NewAccount(id string, initialBalance decimal.Decimal, createdAt time.Time) (*Account, error) {
	if initialBalance.IsNegative() {
		return nil, &ValidationError{Message: "initial_balance must be >= 0"}
	}
	return &Account{
		ID:        id,
		CreatedAt: createdAt,
		balance:   initialBalance,
		holdings:  make(map[string]int64),
		history:   []Trade{},
	}, nil
}

// Deposit credits a positive amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, &ValidationError{Message: "amount must be greater than 0"}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.balance = a.balance.Add(amount)
	return a.balance, nil
}

// RecordBuy debits quantity × price, credits the holding and appends a buy
// trade. It fails with ErrInsufficientFunds, leaving the account untouched,
// if the balance does not cover the cost, and with ErrInvalidQuantity if the
// resulting holding would not fit in an int64.
func (a *Account) RecordBuy(symbol string, quantity int64, price decimal.Decimal, at time.Time) (Trade, error) {
	if quantity <= 0 {
		return Trade{}, ErrInvalidQuantity
	}
	cost := Notional(quantity, price)

	a.mu.Lock()
	defer a.mu.Unlock()

	if quantity > math.MaxInt64-a.holdings[symbol] {
		return Trade{}, ErrInvalidQuantity
	}
	if a.balance.LessThan(cost) {
		return Trade{}, ErrInsufficientFunds
	}

	a.balance = a.balance.Sub(cost)
	a.holdings[symbol] += quantity
	return a.appendTrade(symbol, SideBuy, quantity, price, at), nil
}

// RecordSell credits quantity × price, debits the holding and appends a
// sell trade. It fails with ErrInsufficientHoldings, leaving the account
// untouched, if fewer than quantity units are held.
func (a *Account) RecordSell(symbol string, quantity int64, price decimal.Decimal, at time.Time) (Trade, error) {
	if quantity <= 0 {
		return Trade{}, ErrInvalidQuantity
	}
	proceeds := Notional(quantity, price)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.holdings[symbol] < quantity {
		return Trade{}, ErrInsufficientHoldings
	}

	a.balance = a.balance.Add(proceeds)
	a.holdings[symbol] -= quantity
	if a.holdings[symbol] == 0 {
		delete(a.holdings, symbol)
	}
	return a.appendTrade(symbol, SideSell, quantity, price, at), nil
}

// appendTrade must be called with mu held.
func (a *Account) appendTrade(symbol string, side Side, quantity int64, price decimal.Decimal, at time.Time) Trade {
	a.seq++
	t := Trade{
		TradeID:    uuid.New().String(),
		Seq:        a.seq,
		AccountID:  a.ID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: at,
	}
	a.history = append(a.history, t)
	return t
}

// Balance returns the current cash balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Quantity returns the held quantity of symbol, 0 if none.
func (a *Account) Quantity(symbol string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holdings[symbol]
}

// Snapshot copies balance, holdings and history under a single lock
// acquisition.
func (a *Account) Snapshot() AccountSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	holdings := make([]Holding, 0, len(a.holdings))
	for symbol, qty := range a.holdings {
		if qty > 0 {
			holdings = append(holdings, Holding{Symbol: symbol, Quantity: qty})
		}
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})

	history := make([]Trade, len(a.history))
	copy(history, a.history)

	return AccountSnapshot{
		AccountID: a.ID,
		Balance:   a.balance,
		Holdings:  holdings,
		History:   history,
		CreatedAt: a.CreatedAt,
	}
}

// Quantity returns the held quantity of symbol in the snapshot.
func (s AccountSnapshot) Quantity(symbol string) int64 {
	for _, h := range s.Holdings {
		if h.Symbol == symbol {
			return h.Quantity
		}
	}
	return 0
}
