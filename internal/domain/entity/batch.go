package entity

import "time"

// BatchStatus tracks the lifecycle of a transaction batch.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchScheduled BatchStatus = "scheduled"
	BatchExecuting BatchStatus = "executing"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// TransactionBatch is an ordered set of transactions submitted sequentially
// under one lifecycle. Networks is always the deduplicated set of NetworkID
// values across Transactions.
type TransactionBatch struct {
	ID           string        `json:"id"`
	Description  string        `json:"description,omitempty"`
	Transactions []Transaction `json:"transactions"`
	Status       BatchStatus   `json:"status"`
	Networks     []int64       `json:"networks"`
	CreatedAt    time.Time     `json:"createdAt"`
	ScheduledFor *time.Time    `json:"scheduledFor,omitempty"`
	ExecutedAt   *time.Time    `json:"executedAt,omitempty"`
}

// TransactionTemplate is a reusable transaction skeleton.
type TransactionTemplate struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       TransactionType `json:"type"`
	NetworkID  int64           `json:"networkId"`
	To         string          `json:"to"`
	Value      string          `json:"value"`
	Data       string          `json:"data,omitempty"`
	GasLimit   string          `json:"gasLimit,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UsageCount int             `json:"usageCount"`
	LastUsed   *time.Time      `json:"lastUsed,omitempty"`
}
