package service

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/config"
	"wallet_info/internal/domain/entity"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// balanceServiceImpl implements port.PortfolioService.
type balanceServiceImpl struct {
	indexer       port.TokenIndexer
	chain         port.ChainReader
	prices        port.PriceService
	metadataCache *cache.Cache
	limiter       *rate.Limiter
	maxConcurrent int
	logger        *zap.Logger
}

// NewBalanceService creates the multi-chain balance aggregator.
func NewBalanceService(
	indexer port.TokenIndexer,
	chain port.ChainReader,
	prices port.PriceService,
	cfg *config.Config,
	logger *zap.Logger,
) port.PortfolioService {
	return &balanceServiceImpl{
		indexer:       indexer,
		chain:         chain,
		prices:        prices,
		metadataCache: cache.New(30*time.Minute, 10*time.Minute),
		limiter:       rate.NewLimiter(rate.Limit(cfg.Alchemy.RateLimit), cfg.Alchemy.BurstLimit),
		maxConcurrent: cfg.Alchemy.MaxConcurrentFetches,
		logger:        logger.Named("BalanceService"),
	}
}

// FetchPortfolio fans out one fetch per network, joins whatever succeeded,
// prices the flattened list and assigns row ids 1..N in list order. A
// failing network contributes an empty list; partial results are always
// returned.
func (s *balanceServiceImpl) FetchPortfolio(ctx context.Context, address string, networks []entity.NetworkDefinition) (*entity.PortfolioSummary, error) {
	s.logger.Info("Fetching portfolio",
		zap.String("address", address),
		zap.Int("networkCount", len(networks)))

	perNetwork := make([][]entity.TokenBalance, len(networks))
	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrent)

	for i, network := range networks {
		idx, net := i, network
		eg.Go(func() error {
			tokens, err := s.fetchNetworkBalances(childCtx, net, address)
			if err != nil {
				// Best-effort fan-out: a failed network never aborts the
				// whole fetch.
				s.logger.Warn("Failed to fetch balances for network",
					zap.String("network", net.Name),
					zap.String("address", address),
					zap.Error(err))
				return nil
			}
			perNetwork[idx] = tokens
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		s.logger.Error("Portfolio fan-out aborted", zap.Error(err))
		return nil, err
	}

	var flattened []entity.TokenBalance
	for _, tokens := range perNetwork {
		flattened = append(flattened, tokens...)
	}

	symbols := make([]string, 0, len(flattened))
	for _, token := range flattened {
		symbols = append(symbols, token.Symbol)
	}
	prices := s.prices.GetPrices(ctx, symbols)

	var totalValue float64
	networkBreakdown := make(map[string]float64)
	for i := range flattened {
		flattened[i].ID = i + 1
		flattened[i].USDValue = flattened[i].Balance * prices[flattened[i].Symbol]
		totalValue += flattened[i].USDValue
		networkBreakdown[flattened[i].NetworkName] += flattened[i].USDValue
	}

	s.logger.Info("Portfolio fetch complete",
		zap.String("address", address),
		zap.Int("tokenCount", len(flattened)),
		zap.Float64("totalValue", totalValue))

	return &entity.PortfolioSummary{
		Address:          address,
		TotalValue:       totalValue,
		TokenCount:       len(flattened),
		NetworkBreakdown: networkBreakdown,
		Tokens:           flattened,
		LastUpdated:      time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *balanceServiceImpl) fetchNetworkBalances(ctx context.Context, network entity.NetworkDefinition, address string) ([]entity.TokenBalance, error) {
	var tokens []entity.TokenBalance

	// Native balance first; a failure here is downgraded like any other
	// per-unit failure so ERC-20s are still reported.
	if native, err := s.fetchNativeBalance(ctx, network, address); err != nil {
		s.logger.Warn("Failed to fetch native balance",
			zap.String("network", network.Name),
			zap.String("address", address),
			zap.Error(err))
	} else if native != nil {
		tokens = append(tokens, *native)
	}

	erc20s, err := s.fetchERC20Balances(ctx, network, address)
	if err != nil {
		return nil, err
	}
	tokens = append(tokens, erc20s...)

	nfts, err := s.fetchNFTBalances(ctx, network, address)
	if err != nil {
		s.logger.Warn("Failed to fetch NFT holdings",
			zap.String("network", network.Name),
			zap.String("address", address),
			zap.Error(err))
	} else {
		tokens = append(tokens, nfts...)
	}

	return tokens, nil
}

func (s *balanceServiceImpl) fetchNativeBalance(ctx context.Context, network entity.NetworkDefinition, address string) (*entity.TokenBalance, error) {
	wei, err := s.chain.NativeBalance(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &entity.TokenBalance{
		ContractAddress: "",
		Name:            network.NativeName,
		Symbol:          network.NativeSymbol,
		Balance:         weiToUnit(wei, network.NativeDecimals),
		Decimals:        network.NativeDecimals,
		NetworkID:       network.ChainID,
		NetworkName:     network.Name,
		Standard:        entity.StandardNative,
	}, nil
}

func (s *balanceServiceImpl) fetchERC20Balances(ctx context.Context, network entity.NetworkDefinition, address string) ([]entity.TokenBalance, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := s.indexer.GetTokenBalances(ctx, network, address)
	if err != nil {
		return nil, err
	}

	// Zero balances are dropped before the metadata round-trips.
	nonZero := raw[:0]
	for _, balance := range raw {
		if isZeroHexBalance(balance.Balance) {
			continue
		}
		nonZero = append(nonZero, balance)
	}

	tokens := make([]entity.TokenBalance, len(nonZero))
	var mu sync.Mutex
	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrent)

	for i, balance := range nonZero {
		idx, bal := i, balance
		eg.Go(func() error {
			if err := s.limiter.Wait(childCtx); err != nil {
				return err
			}
			metadata, err := s.tokenMetadata(childCtx, network, bal.ContractAddress)
			if err != nil {
				return fmt.Errorf("metadata for %s on %s: %w", bal.ContractAddress, network.Name, err)
			}

			decimals := metadata.Decimals
			if decimals == 0 {
				decimals = 18
			}
			name := metadata.Name
			if name == "" {
				name = "Unknown Token"
			}
			symbol := metadata.Symbol
			if symbol == "" {
				symbol = "UNK"
			}

			mu.Lock()
			tokens[idx] = entity.TokenBalance{
				ContractAddress: bal.ContractAddress,
				Name:            name,
				Symbol:          symbol,
				Balance:         roundBalance(hexToUnit(bal.Balance, decimals)),
				Decimals:        decimals,
				Logo:            metadata.Logo,
				NetworkID:       network.ChainID,
				NetworkName:     network.Name,
				Standard:        entity.StandardERC20,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *balanceServiceImpl) fetchNFTBalances(ctx context.Context, network entity.NetworkDefinition, address string) ([]entity.TokenBalance, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	holdings, err := s.indexer.GetNFTs(ctx, network, address)
	if err != nil {
		return nil, err
	}

	tokens := make([]entity.TokenBalance, 0, len(holdings))
	for _, nft := range holdings {
		standard := entity.StandardERC721
		balance := 1.0
		if strings.EqualFold(nft.TokenType, "ERC1155") {
			standard = entity.StandardERC1155
			balance = float64(nft.Balance)
		}

		name := nft.Name
		if name == "" {
			name = "Unknown NFT"
		}
		symbol := nft.Symbol
		if symbol == "" {
			symbol = "NFT"
		}

		tokens = append(tokens, entity.TokenBalance{
			ContractAddress: nft.ContractAddress,
			Name:            name,
			Symbol:          symbol,
			Balance:         balance,
			Decimals:        0,
			Logo:            nft.Logo,
			NetworkID:       network.ChainID,
			NetworkName:     network.Name,
			Standard:        standard,
			TokenID:         nft.TokenID,
		})
	}
	return tokens, nil
}

func (s *balanceServiceImpl) tokenMetadata(ctx context.Context, network entity.NetworkDefinition, contractAddress string) (*entity.TokenMetadata, error) {
	cacheKey := fmt.Sprintf("%d_%s", network.ChainID, strings.ToLower(contractAddress))
	if cached, found := s.metadataCache.Get(cacheKey); found {
		if metadata, ok := cached.(*entity.TokenMetadata); ok {
			return metadata, nil
		}
	}

	metadata, err := s.indexer.GetTokenMetadata(ctx, network, contractAddress)
	if err != nil {
		return nil, err
	}
	s.metadataCache.Set(cacheKey, metadata, cache.DefaultExpiration)
	return metadata, nil
}

func isZeroHexBalance(balance string) bool {
	trimmed := strings.TrimPrefix(balance, "0x")
	if trimmed == "" {
		return true
	}
	return strings.Trim(trimmed, "0") == ""
}

func hexToUnit(hexBalance string, decimals int) float64 {
	raw, ok := new(big.Int).SetString(strings.TrimPrefix(hexBalance, "0x"), 16)
	if !ok {
		return 0
	}
	return weiToUnit(raw, decimals)
}

func weiToUnit(raw *big.Int, decimals int) float64 {
	if raw == nil {
		return 0
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), divisor).Float64()
	return value
}

func roundBalance(value float64) float64 {
	return math.Round(value*1e6) / 1e6
}
