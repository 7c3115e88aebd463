package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/engine"
	"github.com/efreitasn/tradesim/internal/store"
)

var accountIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Order list pagination bounds.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ValidOrderStatuses lists the order statuses accepted as a list filter.
// Only terminal orders are journaled, so the transient states never match.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusExecuted: true,
	domain.OrderStatusRejected: true,
}

// RegisterAccountRequest represents the input for account registration.
type RegisterAccountRequest struct {
	AccountID      string
	InitialBalance decimal.Decimal
}

// ListOrdersRequest represents the input for listing an account's orders.
type ListOrdersRequest struct {
	AccountID string
	Status    string // empty for all
	Page      int
	Limit     int
}

// OrderPage is one page of an account's journaled orders, newest first.
type OrderPage struct {
	Orders []*domain.Order
	Page   int
	Limit  int
	Total  int
}

// AccountService handles account registration, deposits, snapshots and
// performance reports.
type AccountService struct {
	accounts *store.AccountStore
	orders   *store.OrderStore
	prices   engine.PriceSource
	now      func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts *store.AccountStore, orders *store.OrderStore, prices engine.PriceSource) *AccountService {
	return &AccountService{
		accounts: accounts,
		orders:   orders,
		prices:   prices,
		now:      time.Now,
	}
}

// Register validates the request and opens a new account.
func (s *AccountService) Register(req RegisterAccountRequest) (domain.AccountSnapshot, error) {
	if !accountIDRegex.MatchString(req.AccountID) {
		return domain.AccountSnapshot{}, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.InitialBalance.IsNegative() {
		return domain.AccountSnapshot{}, &domain.ValidationError{
			Message: "initial_balance must be >= 0",
		}
	}
	if !domain.HasCentPrecision(req.InitialBalance) {
		return domain.AccountSnapshot{}, &domain.ValidationError{
			Message: "initial_balance must have at most 2 decimal places",
		}
	}

	account, err := domain.NewAccount(req.AccountID, req.InitialBalance, s.now().UTC())
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	if err := s.accounts.Create(account); err != nil {
		return domain.AccountSnapshot{}, err
	}
	return account.Snapshot(), nil
}

// Snapshot returns a consistent view of the account's balance, holdings
// and trade history.
func (s *AccountService) Snapshot(accountID string) (domain.AccountSnapshot, error) {
	account, err := s.accounts.Get(accountID)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	return account.Snapshot(), nil
}

// Deposit credits amount to the account and returns the resulting snapshot.
func (s *AccountService) Deposit(accountID string, amount decimal.Decimal) (domain.AccountSnapshot, error) {
	account, err := s.accounts.Get(accountID)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	if !domain.HasCentPrecision(amount) {
		return domain.AccountSnapshot{}, &domain.ValidationError{
			Message: "amount must have at most 2 decimal places",
		}
	}
	if _, err := account.Deposit(amount); err != nil {
		return domain.AccountSnapshot{}, err
	}
	return account.Snapshot(), nil
}

// Performance values the account's open positions at current prices.
func (s *AccountService) Performance(accountID string) (engine.Performance, error) {
	account, err := s.accounts.Get(accountID)
	if err != nil {
		return engine.Performance{}, err
	}
	return engine.UnrealizedPerformance(account.Snapshot(), s.prices)
}

// ListOrders returns a page of the account's journaled orders.
func (s *AccountService) ListOrders(req ListOrdersRequest) (OrderPage, error) {
	if !s.accounts.Exists(req.AccountID) {
		return OrderPage{}, domain.ErrUnknownAccount
	}

	var status *domain.OrderStatus
	if req.Status != "" {
		st := domain.OrderStatus(req.Status)
		if !ValidOrderStatuses[st] {
			return OrderPage{}, &domain.ValidationError{
				Message: fmt.Sprintf("Unknown status: %s. Must be one of: executed, rejected", req.Status),
			}
		}
		status = &st
	}

	page, limit := req.Page, req.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if page < 1 {
		return OrderPage{}, &domain.ValidationError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > MaxPageLimit {
		return OrderPage{}, &domain.ValidationError{
			Message: fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit),
		}
	}

	orders, total := s.orders.ListByAccount(req.AccountID, status, page, limit)
	return OrderPage{Orders: orders, Page: page, Limit: limit, Total: total}, nil
}
