package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/domain/entity"
	"wallet_info/internal/infrastructure/network/definition"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const defaultConnectionTimeout = 10 * time.Second

// EVMClientProvider dials and caches one ethclient per chain.
type EVMClientProvider struct {
	apiKey  string
	clients map[int64]*ethclient.Client
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewEVMClientProvider creates a provider. apiKey is appended to each
// network's Alchemy RPC base URL.
func NewEVMClientProvider(apiKey string, logger *zap.Logger) *EVMClientProvider {
	return &EVMClientProvider{
		apiKey:  apiKey,
		clients: make(map[int64]*ethclient.Client),
		logger:  logger.Named("EVMClientProvider"),
	}
}

// Client returns the cached ethclient for a network, dialing on first use.
func (p *EVMClientProvider) Client(network entity.NetworkDefinition) (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[network.ChainID]; ok {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectionTimeout)
	defer cancel()

	rpcURL := fmt.Sprintf("%s/%s", network.RPCURL, p.apiKey)
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		p.logger.Error("Failed to dial RPC", zap.String("network", network.Name), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to RPC for %s: %w", network.Name, err)
	}

	p.logger.Info("Created new EVM client", zap.String("network", network.Name), zap.Int64("chainID", network.ChainID))
	p.clients[network.ChainID] = c
	return c, nil
}

// evmReader implements port.ChainReader on top of the client provider.
type evmReader struct {
	provider *EVMClientProvider
	logger   *zap.Logger
}

// NewEVMReader creates a ChainReader backed by the shared client provider.
func NewEVMReader(provider *EVMClientProvider, logger *zap.Logger) port.ChainReader {
	return &evmReader{
		provider: provider,
		logger:   logger.Named("EVMReader"),
	}
}

// NativeBalance fetches the latest native balance in wei.
func (r *evmReader) NativeBalance(ctx context.Context, network entity.NetworkDefinition, address string) (*big.Int, error) {
	c, err := r.provider.Client(network)
	if err != nil {
		return nil, err
	}
	balance, err := c.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance for %s on %s: %w", address, network.Name, err)
	}
	return balance, nil
}

// TransactionReceipt returns the receipt, or (nil, nil) while the
// transaction is still pending.
func (r *evmReader) TransactionReceipt(ctx context.Context, network entity.NetworkDefinition, hash string) (*entity.TransactionReceipt, error) {
	c, err := r.provider.Client(network)
	if err != nil {
		return nil, err
	}
	receipt, err := c.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt for %s on %s: %w", hash, network.Name, err)
	}
	effectivePrice := ""
	if receipt.EffectiveGasPrice != nil {
		effectivePrice = receipt.EffectiveGasPrice.String()
	}
	return &entity.TransactionReceipt{
		Success:           receipt.Status == 1,
		BlockNumber:       receipt.BlockNumber.Int64(),
		GasUsed:           receipt.GasUsed,
		EffectiveGasPrice: effectivePrice,
	}, nil
}

// SuggestGasPrice returns the node's current gas price suggestion in wei.
func (r *evmReader) SuggestGasPrice(ctx context.Context, network entity.NetworkDefinition) (*big.Int, error) {
	c, err := r.provider.Client(network)
	if err != nil {
		return nil, err
	}
	price, err := c.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price on %s: %w", network.Name, err)
	}
	return price, nil
}

// receiptNetwork resolves a chain id to its network definition.
func receiptNetwork(networkID int64) (entity.NetworkDefinition, error) {
	n, ok := definition.NetworkByChainID(networkID)
	if !ok {
		return entity.NetworkDefinition{}, fmt.Errorf("unsupported network id %d", networkID)
	}
	return n, nil
}
