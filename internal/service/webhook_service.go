package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/config"
	"wallet_info/internal/domain/entity"
	"wallet_info/internal/pkg/utils"
	"wallet_info/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var webhookJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// webhookPayload is the body posted to registered endpoints.
type webhookPayload struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

// webhookServiceImpl implements port.WebhookService with in-memory
// registrations and a bounded delivery log.
type webhookServiceImpl struct {
	client  *fasthttp.Client
	timeout time.Duration
	maxLogs int
	now     func() time.Time

	mu            sync.Mutex
	registrations map[string]*entity.WebhookRegistration
	logs          []entity.WebhookLog
	regSeq        int
	logSeq        int

	logger *zap.Logger
}

// NewWebhookService creates the webhook registry and dispatcher.
func NewWebhookService(cfg *config.Config, logger *zap.Logger) port.WebhookService {
	return &webhookServiceImpl{
		client:        &fasthttp.Client{},
		timeout:       time.Duration(cfg.Webhooks.DeliveryTimeoutMillis) * time.Millisecond,
		maxLogs:       cfg.Webhooks.MaxLogs,
		now:           time.Now,
		registrations: make(map[string]*entity.WebhookRegistration),
		logger:        logger.Named("WebhookService"),
	}
}

// Register stores a new webhook registration and returns its id. Empty filter
// slices leave that dimension unrestricted. The address allow-list is deduped
// case-insensitively since matching ignores address casing anyway.
func (s *webhookServiceImpl) Register(url, secret string, events []string, addresses []string, networks []int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.regSeq++
	webhookID := fmt.Sprintf("wh_%d_%d", s.now().UnixMilli(), s.regSeq)
	s.registrations[webhookID] = &entity.WebhookRegistration{
		ID:        webhookID,
		URL:       url,
		Secret:    secret,
		Events:    append([]string(nil), events...),
		Addresses: utils.DedupeStringsFold(addresses),
		Networks:  append([]int64(nil), networks...),
		CreatedAt: s.now(),
	}
	s.logger.Info("Registered webhook",
		zap.String("webhookID", webhookID),
		zap.String("url", url),
		zap.Strings("events", events))
	return webhookID
}

// Unregister removes a registration.
func (s *webhookServiceImpl) Unregister(webhookID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[webhookID]; !ok {
		return false
	}
	delete(s.registrations, webhookID)
	s.logger.Info("Unregistered webhook", zap.String("webhookID", webhookID))
	return true
}

// Deliver posts the event to one registration if all three filters pass. The
// returned bool reports whether a callback was attempted at all.
func (s *webhookServiceImpl) Deliver(ctx context.Context, webhookID, event string, data map[string]interface{}) (bool, error) {
	s.mu.Lock()
	registration, ok := s.registrations[webhookID]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("webhook %s not found", webhookID)
	}
	reg := *registration
	s.mu.Unlock()

	if !matchesEvent(reg.Events, event) || !matchesAddress(reg.Addresses, data) || !matchesNetwork(reg.Networks, data) {
		return false, nil
	}

	err := s.post(ctx, &reg, event, data)
	return true, err
}

// Trigger fans the event out to every matching registration.
func (s *webhookServiceImpl) Trigger(ctx context.Context, event string, data map[string]interface{}) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.registrations))
	for id := range s.registrations {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	delivered := 0
	for _, id := range ids {
		attempted, err := s.Deliver(ctx, id, event, data)
		if err != nil {
			s.logger.Warn("Webhook delivery failed",
				zap.String("webhookID", id),
				zap.String("event", event),
				zap.Error(err))
			continue
		}
		if attempted {
			delivered++
		}
	}
	s.logger.Debug("Triggered event",
		zap.String("event", event),
		zap.Int("delivered", delivered))
}

// Test sends a synthetic payload to one registration, bypassing all filters.
func (s *webhookServiceImpl) Test(ctx context.Context, webhookID string) error {
	s.mu.Lock()
	registration, ok := s.registrations[webhookID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("webhook %s not found", webhookID)
	}
	reg := *registration
	s.mu.Unlock()

	return s.post(ctx, &reg, "webhook.test", map[string]interface{}{
		"message": "Test delivery",
		"test":    true,
	})
}

// Registrations returns copies of all registrations.
func (s *webhookServiceImpl) Registrations() []entity.WebhookRegistration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.WebhookRegistration, 0, len(s.registrations))
	for _, registration := range s.registrations {
		out = append(out, *registration)
	}
	return out
}

// Logs returns the most recent limit entries in chronological order.
func (s *webhookServiceImpl) Logs(limit int) []entity.WebhookLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}
	return append([]entity.WebhookLog(nil), s.logs[len(s.logs)-limit:]...)
}

func (s *webhookServiceImpl) post(ctx context.Context, reg *entity.WebhookRegistration, event string, data map[string]interface{}) error {
	payload := webhookPayload{
		Event:     event,
		Data:      data,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
	body, err := webhookJSON.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(reg.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-Webhook-Event", event)
	if reg.Secret != "" {
		req.Header.Set("X-Webhook-Secret", reg.Secret)
		req.Header.Set("X-Webhook-Signature", signPayload(reg.Secret, body))
	}
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		err = s.client.DoDeadline(req, resp, deadline)
	} else {
		err = s.client.DoTimeout(req, resp, s.timeout)
	}
	if err == nil && resp.StatusCode() >= 400 {
		err = fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode())
	}

	status := "success"
	errText := ""
	outcome := "ok"
	if err != nil {
		status = "failed"
		errText = err.Error()
		outcome = "error"
	}
	metrics.WebhookDeliveries.WithLabelValues(outcome).Inc()

	s.mu.Lock()
	s.logSeq++
	s.logs = append(s.logs, entity.WebhookLog{
		ID:        fmt.Sprintf("whlog_%d", s.logSeq),
		WebhookID: reg.ID,
		Event:     event,
		Payload:   data,
		Status:    status,
		Timestamp: s.now(),
		Error:     errText,
	})
	if len(s.logs) > s.maxLogs {
		s.logs = s.logs[len(s.logs)-s.maxLogs:]
	}
	if stored, ok := s.registrations[reg.ID]; ok {
		triggeredAt := s.now()
		stored.LastTriggered = &triggeredAt
	}
	s.mu.Unlock()

	return err
}

func signPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func matchesEvent(events []string, event string) bool {
	if len(events) == 0 {
		return true
	}
	for _, e := range events {
		if e == "*" || e == event {
			return true
		}
	}
	return false
}

func matchesAddress(addresses []string, data map[string]interface{}) bool {
	if len(addresses) == 0 {
		return true
	}
	address, ok := data["address"].(string)
	if !ok || address == "" {
		return false
	}
	for _, a := range addresses {
		if strings.EqualFold(a, address) {
			return true
		}
	}
	return false
}

func matchesNetwork(networks []int64, data map[string]interface{}) bool {
	if len(networks) == 0 {
		return true
	}
	networkID, ok := eventNetworkID(data)
	if !ok {
		return false
	}
	for _, n := range networks {
		if n == networkID {
			return true
		}
	}
	return false
}

// eventNetworkID tolerates the numeric types a decoded JSON payload or an
// in-process caller may carry.
func eventNetworkID(data map[string]interface{}) (int64, bool) {
	switch v := data["networkId"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
