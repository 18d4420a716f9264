package port

import (
	"context"

	"wallet_info/internal/domain/entity"
)

// WebhookService owns webhook registrations and delivery.
type WebhookService interface {
	Register(url, secret string, events []string, addresses []string, networks []int64) string
	Unregister(webhookID string) bool
	// Deliver posts the event to one registration if its filters pass.
	// The returned bool reports whether the callback was attempted.
	Deliver(ctx context.Context, webhookID, event string, data map[string]interface{}) (bool, error)
	// Trigger fans an event out to every matching registration.
	Trigger(ctx context.Context, event string, data map[string]interface{})
	// Test sends a synthetic payload regardless of event filters.
	Test(ctx context.Context, webhookID string) error
	Registrations() []entity.WebhookRegistration
	Logs(limit int) []entity.WebhookLog
}
