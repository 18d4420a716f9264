package restapi

import (
	"net/http"

	"wallet_info/internal/app/port"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultWebhookLogLimit = 50

// WebhookHandler serves the webhook management endpoint. One POST route
// multiplexes register/unregister/test actions and direct deliveries, the
// way the dashboard's API route did.
type WebhookHandler struct {
	webhooks port.WebhookService
	logger   *zap.Logger
}

// NewWebhookHandler creates the webhook handler.
func NewWebhookHandler(webhooks port.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		logger:   logger.Named("WebhookHandler"),
	}
}

type webhookPostRequest struct {
	Action    string                 `json:"action"`
	WebhookID string                 `json:"webhookId"`
	URL       string                 `json:"url"`
	Secret    string                 `json:"secret"`
	Events    []string               `json:"events"`
	Addresses []string               `json:"addresses"`
	Networks  []int64                `json:"networks"`
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
}

// Post handles POST /api/webhooks/transactions. With an action field it
// manages registrations; with webhookId+event it performs a direct delivery.
func (h *WebhookHandler) Post(c *gin.Context) {
	var req webhookPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	switch req.Action {
	case "register":
		if req.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url is required to register a webhook"})
			return
		}
		webhookID := h.webhooks.Register(req.URL, req.Secret, req.Events, req.Addresses, req.Networks)
		c.JSON(http.StatusCreated, gin.H{"webhookId": webhookID})
		return

	case "unregister":
		if !h.webhooks.Unregister(req.WebhookID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "webhook not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unregistered": req.WebhookID})
		return

	case "test":
		if err := h.webhooks.Test(c.Request.Context(), req.WebhookID); err != nil {
			h.logger.Warn("Webhook test failed", zap.String("webhookID", req.WebhookID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tested": req.WebhookID})
		return

	case "":
		// Direct delivery.
		if req.WebhookID == "" || req.Event == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "webhookId and event are required for delivery"})
			return
		}
		attempted, err := h.webhooks.Deliver(c.Request.Context(), req.WebhookID, req.Event, req.Data)
		if err != nil {
			h.logger.Warn("Webhook delivery failed",
				zap.String("webhookID", req.WebhookID),
				zap.String("event", req.Event),
				zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"delivered": attempted})
		return

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action " + req.Action})
	}
}

// Get handles GET /api/webhooks/transactions?action=logs|registrations.
func (h *WebhookHandler) Get(c *gin.Context) {
	switch c.Query("action") {
	case "logs":
		c.JSON(http.StatusOK, gin.H{"logs": h.webhooks.Logs(defaultWebhookLogLimit)})
	case "registrations":
		c.JSON(http.StatusOK, gin.H{"registrations": h.webhooks.Registrations()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be logs or registrations"})
	}
}
