package handler

import (
	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
)

// Money fields are encoded as decimal strings next to a *_display string
// rendered in the service currency.

type holdingResponse struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

type tradeResponse struct {
	TradeID         string          `json:"trade_id"`
	Seq             int64           `json:"seq"`
	AccountID       string          `json:"account_id"`
	Symbol          string          `json:"symbol"`
	Side            string          `json:"side"`
	Quantity        int64           `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	PriceDisplay    string          `json:"price_display"`
	Notional        decimal.Decimal `json:"notional"`
	NotionalDisplay string          `json:"notional_display"`
	ExecutedAt      string          `json:"executed_at"`
}

type orderResponse struct {
	OrderID      string         `json:"order_id"`
	AccountID    string         `json:"account_id"`
	Symbol       string         `json:"symbol"`
	Side         string         `json:"side"`
	Quantity     int64          `json:"quantity"`
	Status       string         `json:"status"`
	RejectReason *string        `json:"reject_reason"`
	Trade        *tradeResponse `json:"trade"`
	SubmittedAt  string         `json:"submitted_at"`
	CompletedAt  *string        `json:"completed_at"`
}

type view struct {
	currency string
}

func (v view) trade(t domain.Trade) tradeResponse {
	notional := t.Notional()
	return tradeResponse{
		TradeID:         t.TradeID,
		Seq:             t.Seq,
		AccountID:       t.AccountID,
		Symbol:          t.Symbol,
		Side:            string(t.Side),
		Quantity:        t.Quantity,
		Price:           t.Price,
		PriceDisplay:    domain.FormatAmount(t.Price, v.currency),
		Notional:        notional,
		NotionalDisplay: domain.FormatAmount(notional, v.currency),
		ExecutedAt:      formatTime(t.ExecutedAt),
	}
}

func (v view) trades(ts []domain.Trade) []tradeResponse {
	result := make([]tradeResponse, len(ts))
	for i, t := range ts {
		result[i] = v.trade(t)
	}
	return result
}

func (v view) order(o *domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:     o.OrderID,
		AccountID:   o.AccountID,
		Symbol:      o.Symbol,
		Side:        string(o.Side),
		Quantity:    o.Quantity,
		Status:      string(o.Status),
		SubmittedAt: formatTime(o.SubmittedAt),
		CompletedAt: formatTimePtr(o.CompletedAt),
	}
	if o.RejectReason != "" {
		reason := o.RejectReason
		resp.RejectReason = &reason
	}
	if o.Trade != nil {
		t := v.trade(*o.Trade)
		resp.Trade = &t
	}
	return resp
}

func (v view) money(d decimal.Decimal) string {
	return domain.FormatAmount(d, v.currency)
}
