package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/service"
)

// MarketHandler handles HTTP requests for market data endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
	view
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService, currency string) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc, view: view{currency: currency}}
}

type quoteResponse struct {
	Symbol        string          `json:"symbol"`
	DisplayName   string          `json:"display_name"`
	Price         decimal.Decimal `json:"price"`
	PriceDisplay  string          `json:"price_display"`
	OpenPrice     decimal.Decimal `json:"open_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Updates       int             `json:"updates"`
	TradeCount    int             `json:"trade_count"`
	Volume        int64           `json:"volume"`
}

type marketResponse struct {
	Instruments []quoteResponse `json:"instruments"`
}

type instrumentResponse struct {
	quoteResponse
	History []decimal.Decimal `json:"history"`
}

type tapeResponse struct {
	Symbol string          `json:"symbol"`
	Trades []tradeResponse `json:"trades"`
}

// Snapshot handles GET /market.
func (h *MarketHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	quotes := h.marketSvc.Snapshot()
	resp := marketResponse{Instruments: make([]quoteResponse, len(quotes))}
	for i, q := range quotes {
		resp.Instruments[i] = h.quote(q)
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Instrument handles GET /market/{symbol}.
func (h *MarketHandler) Instrument(w http.ResponseWriter, r *http.Request) {
	detail, err := h.marketSvc.Instrument(chi.URLParam(r, "symbol"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, instrumentResponse{
		quoteResponse: h.quote(detail.Quote),
		History:       detail.History,
	})
}

// Trades handles GET /market/{symbol}/trades.
func (h *MarketHandler) Trades(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		if limit, err = strconv.Atoi(l); err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
		if limit == 0 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be >= 1")
			return
		}
	}

	tape, err := h.marketSvc.Trades(chi.URLParam(r, "symbol"), limit)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tapeResponse{
		Symbol: tape.Symbol,
		Trades: h.trades(tape.Trades),
	})
}

func (h *MarketHandler) quote(q service.Quote) quoteResponse {
	return quoteResponse{
		Symbol:        q.Symbol,
		DisplayName:   q.DisplayName,
		Price:         q.Price,
		PriceDisplay:  h.money(q.Price),
		OpenPrice:     q.OpenPrice,
		ChangePercent: q.ChangePercent,
		Updates:       q.Updates,
		TradeCount:    q.TradeCount,
		Volume:        q.Volume,
	}
}
