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

const deadAddress = "0x0000000000000000000000000000000000dEaD"

func testBalanceConfig() *config.Config {
	return &config.Config{
		Alchemy: config.AlchemyConfig{
			RateLimit:            1000,
			BurstLimit:           100,
			MaxConcurrentFetches: 4,
		},
	}
}

func mainnetOnly(t *testing.T) []entity.NetworkDefinition {
	t.Helper()
	network, ok := definition.NetworkByChainID(1)
	require.True(t, ok)
	return []entity.NetworkDefinition{network}
}

func TestFetchPortfolioFiltersZeroBalances(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.balances[1] = []port.RawTokenBalance{
		{ContractAddress: "0xusdc", Balance: "0xf4240"}, // 1000000
		{ContractAddress: "0xzero", Balance: "0x0"},
	}
	indexer.metadata["0xusdc"] = &entity.TokenMetadata{Name: "USD Coin", Symbol: "USDC", Decimals: 6}

	chain := &fakeChain{nativeErr: fmt.Errorf("node down")}
	prices := &fakePriceService{prices: map[string]float64{"USDC": 1}}

	svc := NewBalanceService(indexer, chain, prices, testBalanceConfig(), zap.NewNop())
	summary, err := svc.FetchPortfolio(context.Background(), deadAddress, mainnetOnly(t))

	require.NoError(t, err)
	require.Len(t, summary.Tokens, 1)
	token := summary.Tokens[0]
	assert.Equal(t, "USDC", token.Symbol)
	assert.Equal(t, 1.0, token.Balance)
	assert.Equal(t, 1.0, token.USDValue)
	assert.Equal(t, entity.StandardERC20, token.Standard)
}

func TestFetchPortfolioAssignsSequentialIDs(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.balances[1] = []port.RawTokenBalance{
		{ContractAddress: "0xusdc", Balance: "0xf4240"},
		{ContractAddress: "0xdai", Balance: "0xde0b6b3a7640000"}, // 1e18
	}
	indexer.metadata["0xusdc"] = &entity.TokenMetadata{Name: "USD Coin", Symbol: "USDC", Decimals: 6}
	indexer.metadata["0xdai"] = &entity.TokenMetadata{Name: "Dai", Symbol: "DAI", Decimals: 18}

	chain := &fakeChain{nativeWei: big.NewInt(2e18)}
	prices := &fakePriceService{prices: map[string]float64{"ETH": 3000, "USDC": 1, "DAI": 1}}

	svc := NewBalanceService(indexer, chain, prices, testBalanceConfig(), zap.NewNop())
	summary, err := svc.FetchPortfolio(context.Background(), deadAddress, mainnetOnly(t))

	require.NoError(t, err)
	require.Len(t, summary.Tokens, 3)
	for i, token := range summary.Tokens {
		assert.Equal(t, i+1, token.ID)
	}
	assert.Equal(t, 3, summary.TokenCount)
	assert.InDelta(t, 2*3000+1+1, summary.TotalValue, 1e-9)
	assert.InDelta(t, summary.TotalValue, summary.NetworkBreakdown["Ethereum"], 1e-9)
}

func TestFetchPortfolioIncludesNativeBalance(t *testing.T) {
	indexer := newFakeIndexer()
	chain := &fakeChain{nativeWei: big.NewInt(5e17)} // 0.5 ETH
	prices := &fakePriceService{prices: map[string]float64{"ETH": 2000}}

	svc := NewBalanceService(indexer, chain, prices, testBalanceConfig(), zap.NewNop())
	summary, err := svc.FetchPortfolio(context.Background(), deadAddress, mainnetOnly(t))

	require.NoError(t, err)
	require.Len(t, summary.Tokens, 1)
	native := summary.Tokens[0]
	assert.Equal(t, entity.StandardNative, native.Standard)
	assert.Equal(t, "ETH", native.Symbol)
	assert.InDelta(t, 0.5, native.Balance, 1e-9)
	assert.InDelta(t, 1000, native.USDValue, 1e-9)
}

func TestFetchPortfolioIncludesNFTHoldings(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.nfts[1] = []port.NFTHolding{
		{ContractAddress: "0xpunk", Name: "Punk", Symbol: "PUNK", TokenID: "42", TokenType: "ERC721"},
		{ContractAddress: "0xgame", Name: "Game Item", Symbol: "ITEM", TokenID: "7", TokenType: "ERC1155", Balance: 3},
	}
	chain := &fakeChain{nativeErr: fmt.Errorf("node down")}
	prices := &fakePriceService{prices: map[string]float64{}}

	svc := NewBalanceService(indexer, chain, prices, testBalanceConfig(), zap.NewNop())
	summary, err := svc.FetchPortfolio(context.Background(), deadAddress, mainnetOnly(t))

	require.NoError(t, err)
	require.Len(t, summary.Tokens, 2)
	assert.Equal(t, entity.StandardERC721, summary.Tokens[0].Standard)
	assert.Equal(t, 1.0, summary.Tokens[0].Balance)
	assert.Equal(t, entity.StandardERC1155, summary.Tokens[1].Standard)
	assert.Equal(t, 3.0, summary.Tokens[1].Balance)
}

func TestFetchPortfolioPartialNetworkFailure(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.balances[1] = []port.RawTokenBalance{
		{ContractAddress: "0xusdc", Balance: "0xf4240"},
	}
	indexer.metadata["0xusdc"] = &entity.TokenMetadata{Name: "USD Coin", Symbol: "USDC", Decimals: 6}

	chain := &fakeChain{nativeErr: fmt.Errorf("node down")}
	prices := &fakePriceService{prices: map[string]float64{"USDC": 1}}

	ethereum, ok := definition.NetworkByChainID(1)
	require.True(t, ok)
	base, ok := definition.NetworkByChainID(8453)
	require.True(t, ok)

	svc := NewBalanceService(indexer, chain, prices, testBalanceConfig(), zap.NewNop())
	summary, err := svc.FetchPortfolio(context.Background(), deadAddress,
		[]entity.NetworkDefinition{ethereum, base})

	// Base contributes nothing but the fetch still succeeds.
	require.NoError(t, err)
	require.Len(t, summary.Tokens, 1)
	assert.Equal(t, int64(1), summary.Tokens[0].NetworkID)
}
