package service

import (
	"context"
	"strings"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/config"
	"wallet_info/internal/pkg/utils"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// symbolToCoinGeckoID maps common token symbols to canonical CoinGecko ids.
// Unmapped symbols fall back to the lowercased symbol itself, which may
// resolve to no price (treated as 0, never an error).
var symbolToCoinGeckoID = map[string]string{
	"ETH":   "ethereum",
	"WETH":  "weth",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"DAI":   "dai",
	"WBTC":  "wrapped-bitcoin",
	"UNI":   "uniswap",
	"LINK":  "chainlink",
	"AAVE":  "aave",
	"SNX":   "synthetix-network-token",
	"COMP":  "compound-governance-token",
	"MKR":   "maker",
	"YFI":   "yearn-finance",
	"SUSHI": "sushi",
	"CRV":   "curve-dao-token",
	"BASE":  "ethereum", // Base settles in ETH
	"SCRL":  "scroll",
}

func coinGeckoID(symbol string) string {
	if id, ok := symbolToCoinGeckoID[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// priceServiceImpl implements port.PriceService with a TTL cache keyed by
// lowercase symbol.
type priceServiceImpl struct {
	source port.PriceSource
	cache  *cache.Cache
	logger *zap.Logger
}

// NewPriceService creates a new price lookup service.
func NewPriceService(source port.PriceSource, cfg *config.Config, logger *zap.Logger) port.PriceService {
	return &priceServiceImpl{
		source: source,
		cache: cache.New(
			time.Duration(cfg.Prices.CacheTTLMinutes)*time.Minute,
			time.Duration(cfg.Prices.CleanupIntervalMinutes)*time.Minute,
		),
		logger: logger.Named("PriceService"),
	}
}

// GetPrice returns the cached USD price for a symbol, fetching on a miss.
// An unavailable price is 0.
func (s *priceServiceImpl) GetPrice(ctx context.Context, symbol string) float64 {
	cacheKey := strings.ToLower(symbol)
	if cached, found := s.cache.Get(cacheKey); found {
		if price, ok := cached.(float64); ok {
			return price
		}
	}

	id := coinGeckoID(symbol)
	prices, err := s.source.SimplePrices(ctx, []string{id})
	if err != nil {
		s.logger.Warn("Failed to fetch price", zap.String("symbol", symbol), zap.Error(err))
		return 0
	}

	price := prices[id]
	s.cache.Set(cacheKey, price, cache.DefaultExpiration)
	return price
}

// GetPrices resolves a list of symbols in one upstream call. The returned
// map has exactly one entry per unique input symbol; symbols without a
// price map to 0. Every resolved symbol is cached.
func (s *priceServiceImpl) GetPrices(ctx context.Context, symbols []string) map[string]float64 {
	uniqueSymbols := utils.DedupeStrings(symbols)
	result := make(map[string]float64, len(uniqueSymbols))
	if len(uniqueSymbols) == 0 {
		return result
	}

	var missing []string
	for _, symbol := range uniqueSymbols {
		if cached, found := s.cache.Get(strings.ToLower(symbol)); found {
			if price, ok := cached.(float64); ok {
				result[symbol] = price
				continue
			}
		}
		missing = append(missing, symbol)
	}
	if len(missing) == 0 {
		return result
	}

	ids := make([]string, 0, len(missing))
	for _, symbol := range missing {
		ids = append(ids, coinGeckoID(symbol))
	}
	ids = utils.DedupeStrings(ids)

	prices, err := s.source.SimplePrices(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to fetch batched prices",
			zap.Int("symbolCount", len(missing)),
			zap.Error(err))
		// Partial result: cached entries plus 0 for the rest.
		for _, symbol := range missing {
			result[symbol] = 0
		}
		return result
	}

	for _, symbol := range missing {
		price := prices[coinGeckoID(symbol)]
		result[symbol] = price
		s.cache.Set(strings.ToLower(symbol), price, cache.DefaultExpiration)
	}
	s.logger.Debug("Cached batched prices", zap.Int("count", len(missing)))
	return result
}
