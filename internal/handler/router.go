package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/tradesim/internal/service"
)

// Services bundles the services the router dispatches to.
type Services struct {
	Accounts *service.AccountService
	Market   *service.MarketService
	Orders   *service.OrderService
	Webhooks *service.WebhookService
}

// NewRouter creates a chi router with every route registered behind the
// request logging and JSON content-type middleware. Money is rendered for
// display in currency.
func NewRouter(svc Services, currency string, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	accountH := NewAccountHandler(svc.Accounts, currency)
	marketH := NewMarketHandler(svc.Market, currency)
	orderH := NewOrderHandler(svc.Orders, currency)
	webhookH := NewWebhookHandler(svc.Webhooks)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", accountH.Register)
		r.Route("/{account_id}", func(r chi.Router) {
			r.Get("/", accountH.Get)
			r.Post("/deposits", accountH.Deposit)
			r.Get("/performance", accountH.Performance)
			r.Get("/orders", accountH.ListOrders)
		})
	})

	r.Route("/market", func(r chi.Router) {
		r.Get("/", marketH.Snapshot)
		r.Get("/{symbol}", marketH.Instrument)
		r.Get("/{symbol}/trades", marketH.Trades)
	})

	r.Post("/orders", orderH.Execute)
	r.Get("/orders/{order_id}", orderH.GetOrder)

	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	return r
}

// requestLogging logs method, path, status and latency of every request.
// Server errors are logged at error level.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			level := slog.LevelInfo
			if ww.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON rejects request bodies that are not declared as JSON.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
