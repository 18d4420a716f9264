package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Portfolio   *PortfolioHandler
	DeFi        *DeFiHandler
	Transaction *TransactionHandler
	Batch       *BatchHandler
	Webhook     *WebhookHandler
}

// RegisterRoutes mounts the JSON API onto the router.
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/portfolio", h.Portfolio.GetPortfolio)
		api.GET("/defi", h.DeFi.GetPositions)
		api.GET("/transactions", h.Transaction.GetTransactions)
		api.GET("/transactions/status", h.Transaction.GetStatus)
		api.GET("/gas", h.Transaction.GetGasAnalytics)

		api.POST("/batches", h.Batch.CreateBatch)
		api.GET("/batches", h.Batch.ListBatches)
		api.GET("/batches/:id", h.Batch.GetBatch)
		api.POST("/batches/:id/execute", h.Batch.ExecuteBatch)
		api.POST("/batches/:id/cancel", h.Batch.CancelBatch)

		api.POST("/templates", h.Batch.CreateTemplate)
		api.GET("/templates", h.Batch.ListTemplates)
		api.GET("/templates/:id", h.Batch.GetTemplate)
		api.POST("/templates/:id/use", h.Batch.UseTemplate)
		api.DELETE("/templates/:id", h.Batch.DeleteTemplate)

		api.POST("/schedule", h.Batch.ScheduleTransaction)
		api.DELETE("/schedule/:id", h.Batch.CancelScheduledTransaction)

		api.POST("/webhooks/transactions", h.Webhook.Post)
		api.GET("/webhooks/transactions", h.Webhook.Get)
	}
}
