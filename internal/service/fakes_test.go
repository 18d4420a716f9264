package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"wallet_info/internal/app/port"
	"wallet_info/internal/domain/entity"
)

// fakeIndexer scripts indexing API responses per network.
type fakeIndexer struct {
	mu           sync.Mutex
	balances     map[int64][]port.RawTokenBalance
	metadata     map[string]*entity.TokenMetadata
	nfts         map[int64][]port.NFTHolding
	transfers    map[int64][]port.AssetTransfer
	transferErrs map[int64][]error
	calls        map[string]int
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{
		balances:     make(map[int64][]port.RawTokenBalance),
		metadata:     make(map[string]*entity.TokenMetadata),
		nfts:         make(map[int64][]port.NFTHolding),
		transfers:    make(map[int64][]port.AssetTransfer),
		transferErrs: make(map[int64][]error),
		calls:        make(map[string]int),
	}
}

func (f *fakeIndexer) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeIndexer) GetTokenBalances(_ context.Context, network entity.NetworkDefinition, _ string) ([]port.RawTokenBalance, error) {
	f.count("balances")
	return f.balances[network.ChainID], nil
}

func (f *fakeIndexer) GetTokenMetadata(_ context.Context, _ entity.NetworkDefinition, contractAddress string) (*entity.TokenMetadata, error) {
	f.count("metadata")
	meta, ok := f.metadata[contractAddress]
	if !ok {
		return nil, fmt.Errorf("no metadata for %s", contractAddress)
	}
	return meta, nil
}

func (f *fakeIndexer) GetNFTs(_ context.Context, network entity.NetworkDefinition, _ string) ([]port.NFTHolding, error) {
	f.count("nfts")
	return f.nfts[network.ChainID], nil
}

func (f *fakeIndexer) GetAssetTransfers(_ context.Context, network entity.NetworkDefinition, _ string, _ int) ([]port.AssetTransfer, error) {
	f.count("transfers")
	f.mu.Lock()
	errs := f.transferErrs[network.ChainID]
	if len(errs) > 0 {
		err := errs[0]
		f.transferErrs[network.ChainID] = errs[1:]
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()
	return f.transfers[network.ChainID], nil
}

// fakeChain scripts node RPC responses.
type fakeChain struct {
	nativeWei *big.Int
	nativeErr error
	receipts  map[string]*entity.TransactionReceipt
	gasPrice  *big.Int
}

func (f *fakeChain) NativeBalance(_ context.Context, _ entity.NetworkDefinition, _ string) (*big.Int, error) {
	if f.nativeErr != nil {
		return nil, f.nativeErr
	}
	if f.nativeWei == nil {
		return big.NewInt(0), nil
	}
	return f.nativeWei, nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, _ entity.NetworkDefinition, hash string) (*entity.TransactionReceipt, error) {
	return f.receipts[hash], nil
}

func (f *fakeChain) SuggestGasPrice(_ context.Context, _ entity.NetworkDefinition) (*big.Int, error) {
	if f.gasPrice == nil {
		return big.NewInt(0), nil
	}
	return f.gasPrice, nil
}

// fakePriceSource scripts CoinGecko responses and counts calls.
type fakePriceSource struct {
	mu      sync.Mutex
	prices  map[string]float64
	err     error
	calls   int
	lastIDs []string
}

func (f *fakePriceSource) SimplePrices(_ context.Context, ids []string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastIDs = append([]string(nil), ids...)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		if price, ok := f.prices[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

// fakeSender scripts transaction submission. failAt is the 1-based index of
// the Send call that should fail; 0 disables failure.
type fakeSender struct {
	mu       sync.Mutex
	sends    int
	failAt   int
	revertAt int
	hashes   []string
}

func (f *fakeSender) Send(_ context.Context, _ entity.Transaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.failAt != 0 && f.sends == f.failAt {
		return "", fmt.Errorf("insufficient funds for gas")
	}
	hash := fmt.Sprintf("0xhash%d", f.sends)
	f.hashes = append(f.hashes, hash)
	return hash, nil
}

func (f *fakeSender) WaitReceipt(_ context.Context, _ int64, hash string) (*entity.TransactionReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	success := true
	if f.revertAt != 0 && hash == fmt.Sprintf("0xhash%d", f.revertAt) {
		success = false
	}
	return &entity.TransactionReceipt{
		Success:     success,
		BlockNumber: 100,
		GasUsed:     21000,
	}, nil
}

// fakePriceService returns fixed prices keyed by symbol.
type fakePriceService struct {
	prices map[string]float64
}

func (f *fakePriceService) GetPrice(_ context.Context, symbol string) float64 {
	return f.prices[symbol]
}

func (f *fakePriceService) GetPrices(_ context.Context, symbols []string) map[string]float64 {
	out := make(map[string]float64)
	for _, symbol := range symbols {
		if _, ok := out[symbol]; ok {
			continue
		}
		out[symbol] = f.prices[symbol]
	}
	return out
}
