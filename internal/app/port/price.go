package port

import "context"

// PriceSource fetches USD prices for canonical coin ids in one call.
type PriceSource interface {
	SimplePrices(ctx context.Context, ids []string) (map[string]float64, error)
}

// PriceService resolves token symbols to USD prices with caching. A missing
// price is 0, never an error.
type PriceService interface {
	GetPrice(ctx context.Context, symbol string) float64
	GetPrices(ctx context.Context, symbols []string) map[string]float64
}
