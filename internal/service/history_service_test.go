package service

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"wallet_info/internal/app/port"
	"wallet_info/internal/config"
	"wallet_info/internal/domain/entity"
	"wallet_info/internal/infrastructure/network/definition"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testHistoryConfig() *config.Config {
	return &config.Config{
		Retry: config.RetryConfig{
			MaxRetries:    3,
			BaseDelayMs:   1,
			MaxDelayMs:    5,
			BackoffFactor: 2,
		},
	}
}

func historyNetworks(t *testing.T, ids ...int64) []entity.NetworkDefinition {
	t.Helper()
	out := make([]entity.NetworkDefinition, 0, len(ids))
	for _, id := range ids {
		network, ok := definition.NetworkByChainID(id)
		require.True(t, ok)
		out = append(out, network)
	}
	return out
}

func TestFetchUnifiedMergesSortedDescending(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.transfers[1] = []port.AssetTransfer{
		{Hash: "0xa", From: deadAddress, To: "0xother", Value: 1, Asset: "ETH", Timestamp: 100, BlockNumber: 10},
		{Hash: "0xb", From: "0xother", To: deadAddress, Value: 2, Asset: "USDC", Timestamp: 300, BlockNumber: 30},
	}
	indexer.transfers[8453] = []port.AssetTransfer{
		{Hash: "0xc", From: deadAddress, To: "0xother", Value: 3, Asset: "ETH", Timestamp: 200, BlockNumber: 20},
	}

	svc := NewHistoryService(indexer, &fakeChain{}, testHistoryConfig(), zap.NewNop())
	page, err := svc.FetchUnified(context.Background(), deadAddress, historyNetworks(t, 1, 8453), 50, 0)

	require.NoError(t, err)
	require.Len(t, page.Transactions, 3)
	assert.Equal(t, "0xb", page.Transactions[0].Hash)
	assert.Equal(t, "0xc", page.Transactions[1].Hash)
	assert.Equal(t, "0xa", page.Transactions[2].Hash)
	assert.Equal(t, 3, page.Total)
	assert.False(t, page.HasMore)
}

func TestFetchUnifiedCategorizesByDirection(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.transfers[1] = []port.AssetTransfer{
		// Case-insensitive match of the queried address.
		{Hash: "0xin", From: "0xother", To: "0x0000000000000000000000000000000000DEAD", Timestamp: 2},
		{Hash: "0xout", From: deadAddress, To: "0xother", Timestamp: 1},
	}

	svc := NewHistoryService(indexer, &fakeChain{}, testHistoryConfig(), zap.NewNop())
	page, err := svc.FetchUnified(context.Background(), deadAddress, historyNetworks(t, 1), 50, 0)

	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, entity.CategoryReceive, page.Transactions[0].Category)
	assert.Equal(t, entity.CategorySend, page.Transactions[1].Category)
}

func TestFetchUnifiedPagination(t *testing.T) {
	indexer := newFakeIndexer()
	for i := 0; i < 10; i++ {
		indexer.transfers[1] = append(indexer.transfers[1], port.AssetTransfer{
			Hash: fmt.Sprintf("0x%d", i), From: deadAddress, To: "0xother", Timestamp: int64(i),
		})
	}

	svc := NewHistoryService(indexer, &fakeChain{}, testHistoryConfig(), zap.NewNop())

	page, err := svc.FetchUnified(context.Background(), deadAddress, historyNetworks(t, 1), 4, 0)
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 4)
	assert.Equal(t, 10, page.Total)
	assert.True(t, page.HasMore)

	last, err := svc.FetchUnified(context.Background(), deadAddress, historyNetworks(t, 1), 4, 8)
	require.NoError(t, err)
	assert.Len(t, last.Transactions, 2)
	assert.False(t, last.HasMore)

	beyond, err := svc.FetchUnified(context.Background(), deadAddress, historyNetworks(t, 1), 4, 50)
	require.NoError(t, err)
	assert.Empty(t, beyond.Transactions)
	assert.False(t, beyond.HasMore)
}

func TestFetchUnifiedRetriesRetryableErrors(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.transferErrs[1] = []error{fmt.Errorf("request timeout")}
	indexer.transfers[1] = []port.AssetTransfer{
		{Hash: "0xa", From: deadAddress, To: "0xother", Timestamp: 1},
	}

	svc := NewHistoryService(indexer, &fakeChain{}, testHistoryConfig(), zap.NewNop())
	page, err := svc.FetchUnified(context.Background(), deadAddress, historyNetworks(t, 1), 50, 0)

	require.NoError(t, err)
	assert.Len(t, page.Transactions, 1)
	assert.Equal(t, 2, indexer.calls["transfers"])
}

func TestStatusProbe(t *testing.T) {
	chain := &fakeChain{receipts: map[string]*entity.TransactionReceipt{
		"0xok":   {Success: true, BlockNumber: 5},
		"0xfail": {Success: false, BlockNumber: 6},
	}}

	svc := NewHistoryService(newFakeIndexer(), chain, testHistoryConfig(), zap.NewNop())
	ctx := context.Background()

	status, err := svc.Status(ctx, 1, "0xok")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConfirmed, status)

	status, err = svc.Status(ctx, 1, "0xfail")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, status)

	status, err = svc.Status(ctx, 1, "0xmissing")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, status)

	_, err = svc.Status(ctx, 999, "0xok")
	assert.Error(t, err)
}

func TestGasAnalyticsSummarizesReceipts(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.transfers[1] = []port.AssetTransfer{
		{Hash: "0x1", Timestamp: 3},
		{Hash: "0x2", Timestamp: 2},
		{Hash: "0x1", Timestamp: 1}, // duplicate hash, sampled once
	}
	chain := &fakeChain{
		receipts: map[string]*entity.TransactionReceipt{
			"0x1": {Success: true, GasUsed: 21000, EffectiveGasPrice: "1000000000"},
			"0x2": {Success: true, GasUsed: 40000, EffectiveGasPrice: "3000000000"},
		},
		gasPrice: big.NewInt(2000000000),
	}

	svc := NewHistoryService(indexer, chain, testHistoryConfig(), zap.NewNop())
	analytics, err := svc.GasAnalytics(context.Background(), deadAddress, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(1), analytics.NetworkID)
	assert.Equal(t, "2000000000", analytics.AverageGasPrice)
	assert.Equal(t, "2000000000", analytics.MedianGasPrice)
	assert.Equal(t, "2000000000", analytics.SuggestedGasPrice)
	assert.Equal(t, "30500", analytics.GasUsed)
	assert.Equal(t, "high", analytics.Efficiency)
	assert.NotEmpty(t, analytics.Recommendations)
}

func TestGasAnalyticsNoHistory(t *testing.T) {
	svc := NewHistoryService(newFakeIndexer(), &fakeChain{gasPrice: big.NewInt(100)}, testHistoryConfig(), zap.NewNop())

	analytics, err := svc.GasAnalytics(context.Background(), deadAddress, 1)
	require.NoError(t, err)
	assert.Equal(t, "0", analytics.AverageGasPrice)
	assert.Equal(t, "0", analytics.GasUsed)
	assert.Equal(t, "unknown", analytics.Efficiency)
	assert.NotEmpty(t, analytics.Recommendations)
}
