package restapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"wallet_info/internal/app/port"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultDeFiNetworks are the mainnets queried when no selector is given.
var defaultDeFiNetworks = []int64{1, 8453, 534352}

// DeFiHandler serves the DeFi positions endpoint.
type DeFiHandler struct {
	defi   port.DeFiService
	logger *zap.Logger
}

// NewDeFiHandler creates the DeFi handler.
func NewDeFiHandler(defi port.DeFiService, logger *zap.Logger) *DeFiHandler {
	return &DeFiHandler{
		defi:   defi,
		logger: logger.Named("DeFiHandler"),
	}
}

// GetPositions handles GET /api/defi?address=&networks=.
func (h *DeFiHandler) GetPositions(c *gin.Context) {
	address := c.Query("address")
	if !validAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required and must be a valid 0x-prefixed address"})
		return
	}

	networkIDs := defaultDeFiNetworks
	if selector := strings.TrimSpace(c.Query("networks")); selector != "" {
		networkIDs = networkIDs[:0:0]
		for _, part := range strings.Split(selector, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid network id " + strconv.Quote(part)})
				return
			}
			networkIDs = append(networkIDs, id)
		}
		if len(networkIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "networks selector resolves to no networks"})
			return
		}
	}

	positions := h.defi.GetAllPositions(c.Request.Context(), address, networkIDs)
	c.JSON(http.StatusOK, gin.H{
		"address":     address,
		"positions":   positions,
		"lastUpdated": time.Now().UTC().Format(time.RFC3339),
	})
}
