package port

import (
	"context"
	"time"

	"wallet_info/internal/domain/entity"
)

// BatcherService owns all in-flight batch and template state. State is
// process-lifetime only; scheduled work is lost on restart.
type BatcherService interface {
	CreateBatch(transactions []entity.Transaction, description string, scheduledFor *time.Time) (string, error)
	ExecuteBatch(ctx context.Context, batchID string) error
	CancelScheduledBatch(batchID string) bool
	GetBatch(batchID string) (*entity.TransactionBatch, bool)
	ListBatches() []*entity.TransactionBatch

	CreateTemplate(name string, txType entity.TransactionType, networkID int64, to, value, data, gasLimit string) string
	UseTemplate(templateID string) (*entity.Transaction, bool)
	GetTemplate(templateID string) (*entity.TransactionTemplate, bool)
	ListTemplates() []*entity.TransactionTemplate
	DeleteTemplate(templateID string) bool

	ScheduleTransaction(tx entity.Transaction, executeAt time.Time) string
	CancelScheduledTransaction(scheduleID string) bool
}
