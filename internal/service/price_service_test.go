package service

import (
	"context"
	"fmt"
	"testing"

	"wallet_info/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPriceConfig() *config.Config {
	return &config.Config{
		Prices: config.PriceConfig{
			CacheTTLMinutes:        5,
			CleanupIntervalMinutes: 10,
		},
	}
}

func TestGetPricesOneEntryPerUniqueSymbol(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{
		"ethereum": 3000,
		"usd-coin": 1,
	}}
	svc := NewPriceService(source, testPriceConfig(), zap.NewNop())

	prices := svc.GetPrices(context.Background(), []string{"ETH", "USDC", "ETH", "MYSTERY"})

	require.Len(t, prices, 3)
	assert.Equal(t, 3000.0, prices["ETH"])
	assert.Equal(t, 1.0, prices["USDC"])
	assert.Equal(t, 0.0, prices["MYSTERY"])
	for symbol, price := range prices {
		assert.GreaterOrEqual(t, price, 0.0, "price for %s", symbol)
	}
}

func TestGetPricesUsesCacheOnSecondCall(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"ethereum": 3000}}
	svc := NewPriceService(source, testPriceConfig(), zap.NewNop())

	first := svc.GetPrices(context.Background(), []string{"ETH"})
	second := svc.GetPrices(context.Background(), []string{"ETH"})

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}

func TestGetPricesBatchesIntoOneUpstreamCall(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{
		"ethereum": 3000,
		"usd-coin": 1,
		"dai":      1,
	}}
	svc := NewPriceService(source, testPriceConfig(), zap.NewNop())

	svc.GetPrices(context.Background(), []string{"ETH", "USDC", "DAI"})

	assert.Equal(t, 1, source.calls)
	assert.ElementsMatch(t, []string{"ethereum", "usd-coin", "dai"}, source.lastIDs)
}

func TestGetPricesUpstreamFailureYieldsZeros(t *testing.T) {
	source := &fakePriceSource{err: fmt.Errorf("network unreachable")}
	svc := NewPriceService(source, testPriceConfig(), zap.NewNop())

	prices := svc.GetPrices(context.Background(), []string{"ETH", "USDC"})

	require.Len(t, prices, 2)
	assert.Equal(t, 0.0, prices["ETH"])
	assert.Equal(t, 0.0, prices["USDC"])
}

func TestGetPriceCachesSingleLookup(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"ethereum": 3000}}
	svc := NewPriceService(source, testPriceConfig(), zap.NewNop())

	assert.Equal(t, 3000.0, svc.GetPrice(context.Background(), "ETH"))
	assert.Equal(t, 3000.0, svc.GetPrice(context.Background(), "eth"))
	assert.Equal(t, 1, source.calls)
}
