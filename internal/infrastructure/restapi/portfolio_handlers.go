package restapi

import (
	"net/http"
	"regexp"

	"wallet_info/internal/app/port"
	"wallet_info/internal/infrastructure/network/definition"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// validAddress reports whether s is a well-formed EVM address.
func validAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// PortfolioHandler serves the aggregated portfolio endpoint.
type PortfolioHandler struct {
	portfolio port.PortfolioService
	logger    *zap.Logger
}

// NewPortfolioHandler creates the portfolio handler.
func NewPortfolioHandler(portfolio port.PortfolioService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolio: portfolio,
		logger:    logger.Named("PortfolioHandler"),
	}
}

// GetPortfolio handles GET /api/portfolio?address=&networkId=.
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
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

	summary, err := h.portfolio.FetchPortfolio(c.Request.Context(), address, networks)
	if err != nil {
		h.logger.Error("Portfolio fetch failed", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch portfolio"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
