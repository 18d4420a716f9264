package entity

import "time"

// WebhookRegistration is one registered callback endpoint with its filters.
// Empty Events/Addresses/Networks slices mean "no restriction" for that
// filter.
type WebhookRegistration struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Secret        string     `json:"-"`
	Events        []string   `json:"events"`
	Addresses     []string   `json:"addresses"`
	Networks      []int64    `json:"networks"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastTriggered *time.Time `json:"lastTriggered,omitempty"`
}

// WebhookLog records the outcome of one delivery attempt.
type WebhookLog struct {
	ID        string                 `json:"id"`
	WebhookID string                 `json:"webhookId"`
	Event     string                 `json:"event"`
	Payload   map[string]interface{} `json:"payload"`
	Status    string                 `json:"status"` // "success" or "failed"
	Timestamp time.Time              `json:"timestamp"`
	Error     string                 `json:"error,omitempty"`
}
