package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/config"
	"wallet_info/internal/domain/entity"
	"wallet_info/internal/infrastructure/network/definition"
	"wallet_info/internal/pkg/utils"
	"wallet_info/internal/pkg/web3err"
	"wallet_info/pkg/metrics"

	"go.uber.org/zap"
)

// scheduledSend is one standalone transaction armed for future submission.
type scheduledSend struct {
	id        string
	tx        entity.Transaction
	executeAt time.Time
	timer     *time.Timer
}

// batcherServiceImpl implements port.BatcherService. All state is in-memory
// and guarded by one mutex; timers fire on their own goroutines and re-enter
// through the same lock.
type batcherServiceImpl struct {
	sender   port.TransactionSender
	webhooks port.WebhookService
	maxPer   int
	now      func() time.Time

	mu          sync.Mutex
	batches     map[string]*entity.TransactionBatch
	timers      map[string]*time.Timer
	templates   map[string]*entity.TransactionTemplate
	schedules   map[string]*scheduledSend
	batchSeq    int
	tmplSeq     int
	scheduleSeq int

	logger *zap.Logger
}

// NewBatcherService creates the transaction batcher. webhooks may be nil when
// event delivery is disabled.
func NewBatcherService(sender port.TransactionSender, webhooks port.WebhookService, cfg *config.Config, logger *zap.Logger) port.BatcherService {
	return &batcherServiceImpl{
		sender:    sender,
		webhooks:  webhooks,
		maxPer:    cfg.Batcher.MaxTransactionsPerBatch,
		now:       time.Now,
		batches:   make(map[string]*entity.TransactionBatch),
		timers:    make(map[string]*time.Timer),
		templates: make(map[string]*entity.TransactionTemplate),
		schedules: make(map[string]*scheduledSend),
		logger:    logger.Named("BatcherService"),
	}
}

// CreateBatch registers a new batch. With a future scheduledFor the batch is
// created in scheduled state and a timer promotes it to pending when the time
// arrives.
func (s *batcherServiceImpl) CreateBatch(transactions []entity.Transaction, description string, scheduledFor *time.Time) (string, error) {
	if len(transactions) == 0 {
		return "", fmt.Errorf("batch must contain at least one transaction")
	}
	if len(transactions) > s.maxPer {
		return "", fmt.Errorf("batch exceeds maximum of %d transactions", s.maxPer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if scheduledFor != nil && !scheduledFor.After(now) {
		return "", fmt.Errorf("scheduled time must be in the future")
	}

	networks := make([]int64, 0, len(transactions))
	prepared := make([]entity.Transaction, len(transactions))
	for i, tx := range transactions {
		tx.Status = entity.StatusPending
		tx.NetworkName = definition.NetworkName(tx.NetworkID)
		tx.Category = tx.Categorize()
		prepared[i] = tx
		networks = append(networks, tx.NetworkID)
	}

	s.batchSeq++
	batchID := fmt.Sprintf("batch_%d_%d", now.UnixMilli(), s.batchSeq)
	batch := &entity.TransactionBatch{
		ID:           batchID,
		Description:  description,
		Transactions: prepared,
		Status:       entity.BatchPending,
		Networks:     utils.DedupeInt64s(networks),
		CreatedAt:    now,
	}

	if scheduledFor != nil {
		t := *scheduledFor
		batch.Status = entity.BatchScheduled
		batch.ScheduledFor = &t
		s.timers[batchID] = time.AfterFunc(t.Sub(now), func() {
			s.promoteScheduledBatch(batchID)
		})
	}

	s.batches[batchID] = batch
	s.logger.Info("Created batch",
		zap.String("batchID", batchID),
		zap.Int("transactionCount", len(prepared)),
		zap.String("status", string(batch.Status)))
	return batchID, nil
}

// promoteScheduledBatch flips a scheduled batch to pending when its timer
// fires, then runs it through the normal execution path. Cancellation races
// resolve through the status check.
func (s *batcherServiceImpl) promoteScheduledBatch(batchID string) {
	s.mu.Lock()
	batch, ok := s.batches[batchID]
	if !ok || batch.Status != entity.BatchScheduled {
		s.mu.Unlock()
		return
	}
	batch.Status = entity.BatchPending
	delete(s.timers, batchID)
	s.mu.Unlock()

	s.logger.Info("Scheduled batch is due", zap.String("batchID", batchID))

	if s.sender == nil {
		s.logger.Warn("Leaving due batch pending; no signing key configured",
			zap.String("batchID", batchID))
		return
	}
	if err := s.ExecuteBatch(context.Background(), batchID); err != nil {
		s.logger.Error("Scheduled batch execution failed",
			zap.String("batchID", batchID),
			zap.Error(err))
	}
}

// ExecuteBatch submits the batch's transactions sequentially. The first
// failed transaction marks the batch failed and leaves the remainder pending.
func (s *batcherServiceImpl) ExecuteBatch(ctx context.Context, batchID string) error {
	s.mu.Lock()
	batch, ok := s.batches[batchID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("batch %s not found", batchID)
	}
	if batch.Status != entity.BatchPending && batch.Status != entity.BatchScheduled {
		status := batch.Status
		s.mu.Unlock()
		return fmt.Errorf("batch %s is %s, not executable", batchID, status)
	}
	if s.sender == nil {
		s.mu.Unlock()
		return fmt.Errorf("no signing key configured; batch execution unavailable")
	}
	if timer, armed := s.timers[batchID]; armed {
		timer.Stop()
		delete(s.timers, batchID)
	}
	batch.Status = entity.BatchExecuting
	batch.ScheduledFor = nil
	count := len(batch.Transactions)
	s.mu.Unlock()

	s.logger.Info("Executing batch",
		zap.String("batchID", batchID),
		zap.Int("transactionCount", count))

	for i := 0; i < count; i++ {
		s.mu.Lock()
		tx := batch.Transactions[i]
		s.mu.Unlock()

		hash, err := s.sender.Send(ctx, tx)
		if err != nil {
			s.failBatch(batch, i, web3err.Classify(err, tx.NetworkName), err)
			return fmt.Errorf("transaction %d failed: %w", i+1, err)
		}

		receipt, err := s.sender.WaitReceipt(ctx, tx.NetworkID, hash)
		if err != nil {
			s.failBatch(batch, i, web3err.Classify(err, tx.NetworkName), err)
			return fmt.Errorf("transaction %d failed: %w", i+1, err)
		}
		if !receipt.Success {
			revertErr := fmt.Errorf("transaction %s reverted on %s", hash, tx.NetworkName)
			s.failBatch(batch, i, web3err.Classify(revertErr, tx.NetworkName), revertErr)
			return fmt.Errorf("transaction %d failed: %w", i+1, revertErr)
		}

		s.mu.Lock()
		batch.Transactions[i].Hash = hash
		batch.Transactions[i].Status = entity.StatusConfirmed
		batch.Transactions[i].BlockNumber = receipt.BlockNumber
		batch.Transactions[i].GasUsed = fmt.Sprintf("%d", receipt.GasUsed)
		s.mu.Unlock()

		s.triggerEvent(ctx, "transaction.confirmed", map[string]interface{}{
			"batchId":   batchID,
			"hash":      hash,
			"address":   tx.To,
			"networkId": tx.NetworkID,
		})
	}

	s.mu.Lock()
	executedAt := s.now()
	batch.Status = entity.BatchCompleted
	batch.ExecutedAt = &executedAt
	s.mu.Unlock()

	metrics.BatchExecutions.WithLabelValues(string(entity.BatchCompleted)).Inc()
	s.triggerEvent(ctx, "batch.completed", map[string]interface{}{
		"batchId":          batchID,
		"transactionCount": count,
	})
	s.logger.Info("Batch completed", zap.String("batchID", batchID))
	return nil
}

func (s *batcherServiceImpl) failBatch(batch *entity.TransactionBatch, failedIndex int, reason string, cause error) {
	s.mu.Lock()
	batch.Status = entity.BatchFailed
	batch.Transactions[failedIndex].Status = entity.StatusFailed
	batchID := batch.ID
	tx := batch.Transactions[failedIndex]
	s.mu.Unlock()

	metrics.BatchExecutions.WithLabelValues(string(entity.BatchFailed)).Inc()
	s.logger.Error("Batch failed",
		zap.String("batchID", batchID),
		zap.Int("failedIndex", failedIndex),
		zap.String("reason", reason),
		zap.Error(cause))
	s.triggerEvent(context.Background(), "batch.failed", map[string]interface{}{
		"batchId":   batchID,
		"reason":    reason,
		"address":   tx.To,
		"networkId": tx.NetworkID,
	})
}

// CancelScheduledBatch disarms a scheduled batch, returning it to pending.
// Only scheduled batches can be cancelled.
func (s *batcherServiceImpl) CancelScheduledBatch(batchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[batchID]
	if !ok || batch.Status != entity.BatchScheduled {
		return false
	}
	if timer, armed := s.timers[batchID]; armed {
		timer.Stop()
		delete(s.timers, batchID)
	}
	batch.Status = entity.BatchPending
	batch.ScheduledFor = nil
	s.logger.Info("Cancelled scheduled batch", zap.String("batchID", batchID))
	return true
}

// GetBatch returns a copy of the batch.
func (s *batcherServiceImpl) GetBatch(batchID string) (*entity.TransactionBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return nil, false
	}
	return copyBatch(batch), true
}

// ListBatches returns copies of all batches, newest first.
func (s *batcherServiceImpl) ListBatches() []*entity.TransactionBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	batches := make([]*entity.TransactionBatch, 0, len(s.batches))
	for _, batch := range s.batches {
		batches = append(batches, copyBatch(batch))
	}
	sortBatchesNewestFirst(batches)
	return batches
}

// CreateTemplate stores a reusable transaction skeleton and returns its id.
func (s *batcherServiceImpl) CreateTemplate(name string, txType entity.TransactionType, networkID int64, to, value, data, gasLimit string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tmplSeq++
	templateID := fmt.Sprintf("tmpl_%d_%d", s.now().UnixMilli(), s.tmplSeq)
	s.templates[templateID] = &entity.TransactionTemplate{
		ID:        templateID,
		Name:      name,
		Type:      txType,
		NetworkID: networkID,
		To:        to,
		Value:     value,
		Data:      data,
		GasLimit:  gasLimit,
		CreatedAt: s.now(),
	}
	s.logger.Info("Created template",
		zap.String("templateID", templateID),
		zap.String("name", name))
	return templateID
}

// UseTemplate instantiates a pending transaction from the template and bumps
// its usage counters.
func (s *batcherServiceImpl) UseTemplate(templateID string) (*entity.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.templates[templateID]
	if !ok {
		return nil, false
	}

	now := s.now()
	template.UsageCount++
	template.LastUsed = &now

	tx := &entity.Transaction{
		To:          template.To,
		Value:       template.Value,
		Data:        template.Data,
		GasLimit:    template.GasLimit,
		Timestamp:   now.UnixMilli(),
		Status:      entity.StatusPending,
		Type:        template.Type,
		NetworkID:   template.NetworkID,
		NetworkName: definition.NetworkName(template.NetworkID),
	}
	tx.Category = tx.Categorize()
	return tx, true
}

// GetTemplate returns a copy of the template.
func (s *batcherServiceImpl) GetTemplate(templateID string) (*entity.TransactionTemplate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, ok := s.templates[templateID]
	if !ok {
		return nil, false
	}
	copied := *template
	return &copied, true
}

// ListTemplates returns copies of all templates.
func (s *batcherServiceImpl) ListTemplates() []*entity.TransactionTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	templates := make([]*entity.TransactionTemplate, 0, len(s.templates))
	for _, template := range s.templates {
		copied := *template
		templates = append(templates, &copied)
	}
	return templates
}

// DeleteTemplate removes the template.
func (s *batcherServiceImpl) DeleteTemplate(templateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[templateID]; !ok {
		return false
	}
	delete(s.templates, templateID)
	return true
}

// ScheduleTransaction arms a single standalone transaction for submission at
// executeAt and returns the schedule id.
func (s *batcherServiceImpl) ScheduleTransaction(tx entity.Transaction, executeAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduleSeq++
	scheduleID := fmt.Sprintf("sched_%d_%d", s.now().UnixMilli(), s.scheduleSeq)
	entry := &scheduledSend{
		id:        scheduleID,
		tx:        tx,
		executeAt: executeAt,
	}
	entry.timer = time.AfterFunc(time.Until(executeAt), func() {
		s.fireScheduledSend(scheduleID)
	})
	s.schedules[scheduleID] = entry

	s.logger.Info("Scheduled transaction",
		zap.String("scheduleID", scheduleID),
		zap.Time("executeAt", executeAt))
	return scheduleID
}

func (s *batcherServiceImpl) fireScheduledSend(scheduleID string) {
	s.mu.Lock()
	entry, ok := s.schedules[scheduleID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.schedules, scheduleID)
	sender := s.sender
	s.mu.Unlock()

	if sender == nil {
		s.logger.Warn("Dropping scheduled transaction; no signing key configured",
			zap.String("scheduleID", scheduleID))
		return
	}

	ctx := context.Background()
	hash, err := sender.Send(ctx, entry.tx)
	if err != nil {
		s.logger.Error("Scheduled transaction failed",
			zap.String("scheduleID", scheduleID),
			zap.String("reason", web3err.Classify(err, entry.tx.NetworkName)),
			zap.Error(err))
		s.triggerEvent(ctx, "transaction.failed", map[string]interface{}{
			"scheduleId": scheduleID,
			"address":    entry.tx.To,
			"networkId":  entry.tx.NetworkID,
		})
		return
	}
	s.logger.Info("Scheduled transaction submitted",
		zap.String("scheduleID", scheduleID),
		zap.String("hash", hash))
	s.triggerEvent(ctx, "transaction.sent", map[string]interface{}{
		"scheduleId": scheduleID,
		"hash":       hash,
		"address":    entry.tx.To,
		"networkId":  entry.tx.NetworkID,
	})
}

// CancelScheduledTransaction disarms a standalone scheduled transaction.
func (s *batcherServiceImpl) CancelScheduledTransaction(scheduleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.schedules[scheduleID]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(s.schedules, scheduleID)
	s.logger.Info("Cancelled scheduled transaction", zap.String("scheduleID", scheduleID))
	return true
}

func (s *batcherServiceImpl) triggerEvent(ctx context.Context, event string, data map[string]interface{}) {
	if s.webhooks == nil {
		return
	}
	s.webhooks.Trigger(ctx, event, data)
}

func copyBatch(batch *entity.TransactionBatch) *entity.TransactionBatch {
	copied := *batch
	copied.Transactions = append([]entity.Transaction(nil), batch.Transactions...)
	copied.Networks = append([]int64(nil), batch.Networks...)
	return &copied
}

func sortBatchesNewestFirst(batches []*entity.TransactionBatch) {
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
}
