package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/store"
)

var validWebhookEvents = map[string]bool{
	domain.EventTradeExecuted: true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	AccountID string
	URL       string
	Events    []string
}

// WebhookService handles webhook subscriptions and event delivery.
type WebhookService struct {
	store    *store.WebhookStore
	accounts *store.AccountStore
	client   *http.Client
	logger   *slog.Logger
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(
	webhookStore *store.WebhookStore,
	accounts *store.AccountStore,
	webhookTimeout time.Duration,
	logger *slog.Logger,
) *WebhookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookService{
		store:    webhookStore,
		accounts: accounts,
		client:   &http.Client{Timeout: webhookTimeout},
		logger:   logger,
	}
}

// Upsert validates the request and creates or updates one subscription per
// distinct event. It reports whether any subscription was newly created.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]domain.Webhook, bool, error) {
	if !s.accounts.Exists(req.AccountID) {
		return nil, false, domain.ErrUnknownAccount
	}
	if err := validateWebhookURL(req.URL); err != nil {
		return nil, false, err
	}
	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	events := make([]string, 0, len(req.Events))
	seen := make(map[string]bool, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: " + domain.EventTradeExecuted,
			}
		}
		if !seen[event] {
			seen[event] = true
			events = append(events, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]domain.Webhook, 0, len(events))
	for _, event := range events {
		stored, created := s.store.Upsert(domain.Webhook{
			WebhookID: uuid.NewString(),
			AccountID: req.AccountID,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		})
		anyCreated = anyCreated || created
		webhooks = append(webhooks, stored)
	}
	return webhooks, anyCreated, nil
}

func validateWebhookURL(raw string) error {
	if raw == "" {
		return &domain.ValidationError{Message: "url is required"}
	}
	if len(raw) > 2048 {
		return &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return &domain.ValidationError{Message: "url must use https scheme"}
	}
	return nil
}

// List returns the account's subscriptions.
func (s *WebhookService) List(accountID string) ([]domain.Webhook, error) {
	if !s.accounts.Exists(accountID) {
		return nil, domain.ErrUnknownAccount
	}
	return s.store.ListByAccount(accountID), nil
}

// Delete removes a subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

type tradeExecutedPayload struct {
	Event     string            `json:"event"`
	Timestamp string            `json:"timestamp"`
	Data      tradeExecutedData `json:"data"`
}

type tradeExecutedData struct {
	TradeID   string          `json:"trade_id"`
	Seq       int64           `json:"seq"`
	AccountID string          `json:"account_id"`
	OrderID   string          `json:"order_id"`
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Notional  decimal.Decimal `json:"notional"`
}

// DispatchTradeExecuted notifies the order's account of the fill, if it
// subscribes to trade.executed. Delivery runs in the background and
// failures are only logged.
func (s *WebhookService) DispatchTradeExecuted(order *domain.Order, trade domain.Trade) {
	wh, ok := s.store.Lookup(order.AccountID, domain.EventTradeExecuted)
	if !ok {
		return
	}

	payload := tradeExecutedPayload{
		Event:     domain.EventTradeExecuted,
		Timestamp: trade.ExecutedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: tradeExecutedData{
			TradeID:   trade.TradeID,
			Seq:       trade.Seq,
			AccountID: trade.AccountID,
			OrderID:   order.OrderID,
			Symbol:    trade.Symbol,
			Side:      string(trade.Side),
			Quantity:  trade.Quantity,
			Price:     trade.Price,
			Notional:  trade.Notional(),
		},
	}

	go s.deliver(wh, payload)
}

func (s *WebhookService) deliver(wh domain.Webhook, payload tradeExecutedPayload) {
	log := s.logger.With(
		slog.String("webhook_id", wh.WebhookID),
		slog.String("event", wh.Event),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("webhook payload encoding failed", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		log.Warn("webhook request build failed", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.NewString())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", wh.Event)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn("webhook delivery failed", slog.String("error", err.Error()))
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warn("webhook endpoint rejected delivery", slog.Int("status", resp.StatusCode))
		return
	}
	log.Debug("webhook delivered", slog.Int("status", resp.StatusCode))
}
