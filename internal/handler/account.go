package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/engine"
	"github.com/efreitasn/tradesim/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
	view
}

// NewAccountHandler creates a new AccountHandler rendering amounts in currency.
func NewAccountHandler(accountSvc *service.AccountService, currency string) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, view: view{currency: currency}}
}

type registerAccountRequest struct {
	AccountID      string           `json:"account_id"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
}

type depositRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type accountResponse struct {
	AccountID      string            `json:"account_id"`
	Balance        decimal.Decimal   `json:"balance"`
	BalanceDisplay string            `json:"balance_display"`
	Holdings       []holdingResponse `json:"holdings"`
	History        []tradeResponse   `json:"history"`
	CreatedAt      string            `json:"created_at"`
}

type positionResponse struct {
	Symbol               string          `json:"symbol"`
	Quantity             int64           `json:"quantity"`
	AverageCost          decimal.Decimal `json:"average_cost"`
	CurrentPrice         decimal.Decimal `json:"current_price"`
	Investment           decimal.Decimal `json:"investment"`
	CurrentValue         decimal.Decimal `json:"current_value"`
	UnrealizedPnL        decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLDisplay string          `json:"unrealized_pnl_display"`
}

type performanceResponse struct {
	AccountID                string             `json:"account_id"`
	Positions                []positionResponse `json:"positions"`
	TotalInvestment          decimal.Decimal    `json:"total_investment"`
	TotalInvestmentDisplay   string             `json:"total_investment_display"`
	TotalCurrentValue        decimal.Decimal    `json:"total_current_value"`
	TotalCurrentValueDisplay string             `json:"total_current_value_display"`
	UnrealizedPnL            decimal.Decimal    `json:"unrealized_pnl"`
	UnrealizedPnLDisplay     string             `json:"unrealized_pnl_display"`
	Percent                  *decimal.Decimal   `json:"percent"`
	RealizedPnL              decimal.Decimal    `json:"realized_pnl"`
	RealizedPnLDisplay       string             `json:"realized_pnl_display"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// Register handles POST /accounts.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.InitialBalance == nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "initial_balance is required")
		return
	}

	snap, err := h.accountSvc.Register(service.RegisterAccountRequest{
		AccountID:      req.AccountID,
		InitialBalance: *req.InitialBalance,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, h.account(snap))
}

// Get handles GET /accounts/{account_id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.accountSvc.Snapshot(chi.URLParam(r, "account_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.account(snap))
}

// Deposit handles POST /accounts/{account_id}/deposits.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Amount == nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "amount is required")
		return
	}

	snap, err := h.accountSvc.Deposit(chi.URLParam(r, "account_id"), *req.Amount)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.account(snap))
}

// Performance handles GET /accounts/{account_id}/performance.
func (h *AccountHandler) Performance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.accountSvc.Performance(chi.URLParam(r, "account_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.performance(perf))
}

// ListOrders handles GET /accounts/{account_id}/orders.
func (h *AccountHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListOrdersRequest{
		AccountID: chi.URLParam(r, "account_id"),
		Status:    q.Get("status"),
	}

	var err error
	if p := q.Get("page"); p != "" {
		if req.Page, err = strconv.Atoi(p); err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
			return
		}
	}
	if l := q.Get("limit"); l != "" {
		if req.Limit, err = strconv.Atoi(l); err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
	}

	page, err := h.accountSvc.ListOrders(req)
	if err != nil {
		mapError(w, err)
		return
	}

	orders := make([]orderResponse, len(page.Orders))
	for i, o := range page.Orders {
		orders[i] = h.order(o)
	}
	WriteJSON(w, http.StatusOK, orderListResponse{
		Orders: orders,
		Total:  page.Total,
		Page:   page.Page,
		Limit:  page.Limit,
	})
}

func (h *AccountHandler) account(snap domain.AccountSnapshot) accountResponse {
	holdings := make([]holdingResponse, len(snap.Holdings))
	for i, hold := range snap.Holdings {
		holdings[i] = holdingResponse{Symbol: hold.Symbol, Quantity: hold.Quantity}
	}
	return accountResponse{
		AccountID:      snap.AccountID,
		Balance:        snap.Balance,
		BalanceDisplay: h.money(snap.Balance),
		Holdings:       holdings,
		History:        h.trades(snap.History),
		CreatedAt:      formatTime(snap.CreatedAt),
	}
}

func (h *AccountHandler) performance(perf engine.Performance) performanceResponse {
	positions := make([]positionResponse, len(perf.Positions))
	for i, p := range perf.Positions {
		positions[i] = positionResponse{
			Symbol:               p.Symbol,
			Quantity:             p.Quantity,
			AverageCost:          p.AverageCost.Round(4),
			CurrentPrice:         p.CurrentPrice,
			Investment:           p.Investment.Round(4),
			CurrentValue:         p.CurrentValue,
			UnrealizedPnL:        p.UnrealizedPnL.Round(4),
			UnrealizedPnLDisplay: h.money(p.UnrealizedPnL),
		}
	}
	return performanceResponse{
		AccountID:                perf.AccountID,
		Positions:                positions,
		TotalInvestment:          perf.TotalInvestment.Round(4),
		TotalInvestmentDisplay:   h.money(perf.TotalInvestment),
		TotalCurrentValue:        perf.TotalCurrentValue,
		TotalCurrentValueDisplay: h.money(perf.TotalCurrentValue),
		UnrealizedPnL:            perf.UnrealizedPnL.Round(4),
		UnrealizedPnLDisplay:     h.money(perf.UnrealizedPnL),
		Percent:                  perf.Percent,
		RealizedPnL:              perf.RealizedPnL.Round(4),
		RealizedPnLDisplay:       h.money(perf.RealizedPnL),
	}
}
