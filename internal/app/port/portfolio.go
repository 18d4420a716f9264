package port

import (
	"context"

	"wallet_info/internal/domain/entity"
)

// PortfolioService aggregates a wallet's balances across networks.
type PortfolioService interface {
	FetchPortfolio(ctx context.Context, address string, networks []entity.NetworkDefinition) (*entity.PortfolioSummary, error)
}

// DeFiService aggregates protocol positions across networks.
type DeFiService interface {
	GetAllPositions(ctx context.Context, address string, networkIDs []int64) []entity.DeFiPosition
}

// HistoryPage is one page of unified transaction history.
type HistoryPage struct {
	Transactions []entity.Transaction
	Total        int
	HasMore      bool
}

// HistoryService fetches and paginates transfer history across networks.
type HistoryService interface {
	FetchUnified(ctx context.Context, address string, networks []entity.NetworkDefinition, limit, offset int) (*HistoryPage, error)
	Status(ctx context.Context, networkID int64, hash string) (entity.TransactionStatus, error)
	GasAnalytics(ctx context.Context, address string, networkID int64) (*entity.GasAnalytics, error)
}
