package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/store"
)

// Executor fills orders instantly at the instrument's current simulated
// price against a single account.
type Executor struct {
	registry   *domain.Registry
	accounts   *store.AccountStore
	orderStore *store.OrderStore
	tradeStore *store.TradeStore
	now        func() time.Time
}

// NewExecutor creates a new Executor with the given dependencies.
func NewExecutor(
	registry *domain.Registry,
	accounts *store.AccountStore,
	orderStore *store.OrderStore,
	tradeStore *store.TradeStore,
) *Executor {
	return &Executor{
		registry:   registry,
		accounts:   accounts,
		orderStore: orderStore,
		tradeStore: tradeStore,
		now:        time.Now,
	}
}

// Execute validates and applies a single order.
//
// The order moves submitted → validated → executed, or ends rejected at
// the first failing check. The execution price is one atomic read of the
// instrument's current price; a price update that lands after that read
// does not affect the order. The account is changed entirely or not at
// all, and ledger errors are returned unchanged.
//
// The returned order is always non-nil and has been journaled in its
// terminal state. Orders for an account that does not exist are journaled
// by order ID only and never listed under that account ID.
func (e *Executor) Execute(accountID, symbol string, quantity int64, side domain.Side) (*domain.Order, domain.Trade, error) {
	order := domain.NewOrder(uuid.New().String(), accountID, symbol, side, quantity, e.now())
	account, accountErr := e.accounts.Get(accountID)

	trade, err := e.execute(order, account, accountErr)
	if err != nil {
		if rerr := order.Reject(err, e.now()); rerr != nil {
			return order, domain.Trade{}, rerr
		}
		if account == nil {
			e.orderStore.CreateUnindexed(order)
		} else {
			e.orderStore.Create(order)
		}
		return order, domain.Trade{}, err
	}

	if err := order.Execute(trade); err != nil {
		return order, domain.Trade{}, err
	}
	e.orderStore.Create(order)
	e.tradeStore.Append(trade)
	return order, trade, nil
}

func (e *Executor) execute(order *domain.Order, account *domain.Account, accountErr error) (domain.Trade, error) {
	// Step 1: Validate the request itself.
	if order.Quantity <= 0 {
		return domain.Trade{}, domain.ErrInvalidQuantity
	}
	if !order.Side.Valid() {
		return domain.Trade{}, &domain.ValidationError{Message: "side must be 'buy' or 'sell'"}
	}

	// Step 2: Resolve the account and the instrument.
	if accountErr != nil {
		return domain.Trade{}, accountErr
	}
	inst, err := e.registry.Get(order.Symbol)
	if err != nil {
		return domain.Trade{}, err
	}

	if err := order.Advance(domain.OrderStatusValidated); err != nil {
		return domain.Trade{}, err
	}

	// Step 3: Fix the execution price.
	price := inst.Price()

	// Step 4: Apply to the ledger.
	if order.Side == domain.SideBuy {
		return account.RecordBuy(order.Symbol, order.Quantity, price, e.now())
	}
	return account.RecordSell(order.Symbol, order.Quantity, price, e.now())
}
