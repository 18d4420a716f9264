package restapi

import (
	"net/http"
	"strconv"

	"wallet_info/internal/app/port"
	"wallet_info/internal/infrastructure/network/definition"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// TransactionHandler serves history, status and gas analytics endpoints.
type TransactionHandler struct {
	history port.HistoryService
	logger  *zap.Logger
}

// NewTransactionHandler creates the transaction handler.
func NewTransactionHandler(history port.HistoryService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		history: history,
		logger:  logger.Named("TransactionHandler"),
	}
}

// GetTransactions handles GET /api/transactions?address=&networkId=&limit=&offset=.
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	address := c.Query("address")
	if !validAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required and must be a valid 0x-prefixed address"})
		return
	}

	networks, err := definition.SelectNetworks(c.Query("networkId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := queryInt(c, "limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	page, err := h.history.FetchUnified(c.Request.Context(), address, networks, limit, offset)
	if err != nil {
		h.logger.Error("History fetch failed", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":      address,
		"transactions": page.Transactions,
		"total":        page.Total,
		"limit":        limit,
		"offset":       offset,
		"hasMore":      page.HasMore,
	})
}

// GetStatus handles GET /api/transactions/status?networkId=&hash=.
func (h *TransactionHandler) GetStatus(c *gin.Context) {
	hash := c.Query("hash")
	if hash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hash is required"})
		return
	}
	networkID, err := strconv.ParseInt(c.Query("networkId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "networkId is required and must be numeric"})
		return
	}

	status, err := h.history.Status(c.Request.Context(), networkID, hash)
	if err != nil {
		h.logger.Error("Status probe failed", zap.String("hash", hash), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch transaction status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hash":      hash,
		"networkId": networkID,
		"status":    status,
	})
}

// GetGasAnalytics handles GET /api/gas?address=&networkId=.
func (h *TransactionHandler) GetGasAnalytics(c *gin.Context) {
	address := c.Query("address")
	if !validAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required and must be a valid 0x-prefixed address"})
		return
	}
	networkID, err := strconv.ParseInt(c.Query("networkId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "networkId is required and must be numeric"})
		return
	}

	analytics, err := h.history.GasAnalytics(c.Request.Context(), address, networkID)
	if err != nil {
		h.logger.Error("Gas analytics failed", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute gas analytics"})
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
