package restapi

import (
	"net/http"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BatchHandler serves batch, template and scheduling endpoints.
type BatchHandler struct {
	batcher port.BatcherService
	logger  *zap.Logger
}

// NewBatchHandler creates the batch handler.
func NewBatchHandler(batcher port.BatcherService, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		batcher: batcher,
		logger:  logger.Named("BatchHandler"),
	}
}

type createBatchRequest struct {
	Transactions []entity.Transaction `json:"transactions" binding:"required"`
	Description  string               `json:"description"`
	ScheduledFor *time.Time           `json:"scheduledFor"`
}

// CreateBatch handles POST /api/batches.
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	batchID, err := h.batcher.CreateBatch(req.Transactions, req.Description, req.ScheduledFor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, _ := h.batcher.GetBatch(batchID)
	c.JSON(http.StatusCreated, batch)
}

// ListBatches handles GET /api/batches.
func (h *BatchHandler) ListBatches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"batches": h.batcher.ListBatches()})
}

// GetBatch handles GET /api/batches/:id.
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batch, ok := h.batcher.GetBatch(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	c.JSON(http.StatusOK, batch)
}

// ExecuteBatch handles POST /api/batches/:id/execute.
func (h *BatchHandler) ExecuteBatch(c *gin.Context) {
	batchID := c.Param("id")
	if err := h.batcher.ExecuteBatch(c.Request.Context(), batchID); err != nil {
		h.logger.Warn("Batch execution failed", zap.String("batchID", batchID), zap.Error(err))
		batch, ok := h.batcher.GetBatch(batchID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "batch": batch})
		return
	}

	batch, _ := h.batcher.GetBatch(batchID)
	c.JSON(http.StatusOK, batch)
}

// CancelBatch handles POST /api/batches/:id/cancel.
func (h *BatchHandler) CancelBatch(c *gin.Context) {
	batchID := c.Param("id")
	if !h.batcher.CancelScheduledBatch(batchID) {
		c.JSON(http.StatusConflict, gin.H{"error": "batch is not scheduled"})
		return
	}
	batch, _ := h.batcher.GetBatch(batchID)
	c.JSON(http.StatusOK, batch)
}

type createTemplateRequest struct {
	Name      string                 `json:"name" binding:"required"`
	Type      entity.TransactionType `json:"type" binding:"required"`
	NetworkID int64                  `json:"networkId" binding:"required"`
	To        string                 `json:"to" binding:"required"`
	Value     string                 `json:"value"`
	Data      string                 `json:"data"`
	GasLimit  string                 `json:"gasLimit"`
}

// CreateTemplate handles POST /api/templates.
func (h *BatchHandler) CreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if !validAddress(req.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a valid 0x-prefixed address"})
		return
	}

	templateID := h.batcher.CreateTemplate(req.Name, req.Type, req.NetworkID, req.To, req.Value, req.Data, req.GasLimit)
	template, _ := h.batcher.GetTemplate(templateID)
	c.JSON(http.StatusCreated, template)
}

// ListTemplates handles GET /api/templates.
func (h *BatchHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.batcher.ListTemplates()})
}

// GetTemplate handles GET /api/templates/:id.
func (h *BatchHandler) GetTemplate(c *gin.Context) {
	template, ok := h.batcher.GetTemplate(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, template)
}

// UseTemplate handles POST /api/templates/:id/use.
func (h *BatchHandler) UseTemplate(c *gin.Context) {
	tx, ok := h.batcher.UseTemplate(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// DeleteTemplate handles DELETE /api/templates/:id.
func (h *BatchHandler) DeleteTemplate(c *gin.Context) {
	if !h.batcher.DeleteTemplate(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type scheduleTransactionRequest struct {
	Transaction entity.Transaction `json:"transaction" binding:"required"`
	ExecuteAt   time.Time          `json:"executeAt" binding:"required"`
}

// ScheduleTransaction handles POST /api/schedule.
func (h *BatchHandler) ScheduleTransaction(c *gin.Context) {
	var req scheduleTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if !req.ExecuteAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "executeAt must be in the future"})
		return
	}

	scheduleID := h.batcher.ScheduleTransaction(req.Transaction, req.ExecuteAt)
	c.JSON(http.StatusCreated, gin.H{
		"scheduleId": scheduleID,
		"executeAt":  req.ExecuteAt,
	})
}

// CancelScheduledTransaction handles DELETE /api/schedule/:id.
func (h *BatchHandler) CancelScheduledTransaction(c *gin.Context) {
	if !h.batcher.CancelScheduledTransaction(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "scheduled transaction not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
