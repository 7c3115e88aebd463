package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/service"
)

// WebhookHandler handles HTTP requests for webhook endpoints.
type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

type upsertWebhookRequest struct {
	AccountID string   `json:"account_id"`
	URL       string   `json:"url"`
	Events    []string `json:"events"`
}

type webhookResponse struct {
	WebhookID string `json:"webhook_id"`
	AccountID string `json:"account_id"`
	Event     string `json:"event"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type webhookListResponse struct {
	Webhooks []webhookResponse `json:"webhooks"`
}

// Upsert handles POST /webhooks. It answers 201 when any subscription was
// created and 200 when all of them already existed.
func (h *WebhookHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertWebhookRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	webhooks, created, err := h.webhookSvc.Upsert(service.UpsertWebhookRequest{
		AccountID: req.AccountID,
		URL:       req.URL,
		Events:    req.Events,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, webhookListResponse{Webhooks: webhookResponses(webhooks)})
}

// List handles GET /webhooks?account_id=.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "account_id query parameter is required")
		return
	}

	webhooks, err := h.webhookSvc.List(accountID)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, webhookListResponse{Webhooks: webhookResponses(webhooks)})
}

// Delete handles DELETE /webhooks/{webhook_id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.webhookSvc.Delete(chi.URLParam(r, "webhook_id")); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func webhookResponses(webhooks []domain.Webhook) []webhookResponse {
	result := make([]webhookResponse, len(webhooks))
	for i, wh := range webhooks {
		result[i] = webhookResponse{
			WebhookID: wh.WebhookID,
			AccountID: wh.AccountID,
			Event:     wh.Event,
			URL:       wh.URL,
			CreatedAt: formatTime(wh.CreatedAt),
			UpdatedAt: formatTime(wh.UpdatedAt),
		}
	}
	return result
}
