package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/config"
	"wallet_info/internal/domain/entity"
	"wallet_info/internal/infrastructure/network/definition"
	"wallet_info/internal/pkg/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	historyFetchCount = 100
	gasSampleCount    = 50
	gasReceiptCap     = 20
)

// historyServiceImpl implements port.HistoryService.
type historyServiceImpl struct {
	indexer   port.TokenIndexer
	chain     port.ChainReader
	retryOpts retry.Options
	logger    *zap.Logger
}

// NewHistoryService creates the cross-network transfer history fetcher.
func NewHistoryService(indexer port.TokenIndexer, chain port.ChainReader, cfg *config.Config, logger *zap.Logger) port.HistoryService {
	return &historyServiceImpl{
		indexer: indexer,
		chain:   chain,
		retryOpts: retry.Options{
			MaxRetries:    cfg.Retry.MaxRetries,
			BaseDelay:     time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
			MaxDelay:      time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
			BackoffFactor: cfg.Retry.BackoffFactor,
		},
		logger: logger.Named("HistoryService"),
	}
}

// FetchUnified pulls transfer history for every requested network, merges it
// into one list sorted newest-first and applies offset/limit pagination.
// Each per-network fetch runs under bounded retry; a network that still fails
// after retries contributes nothing.
func (s *historyServiceImpl) FetchUnified(ctx context.Context, address string, networks []entity.NetworkDefinition, limit, offset int) (*port.HistoryPage, error) {
	perNetwork := make([][]entity.Transaction, len(networks))
	eg, childCtx := errgroup.WithContext(ctx)

	for i, network := range networks {
		idx, net := i, network
		eg.Go(func() error {
			var transfers []port.AssetTransfer
			err := retry.Do(childCtx, s.retryOpts, func() error {
				var fetchErr error
				transfers, fetchErr = s.indexer.GetAssetTransfers(childCtx, net, address, historyFetchCount)
				return fetchErr
			})
			if err != nil {
				s.logger.Warn("Failed to fetch transfers after retries",
					zap.String("network", net.Name),
					zap.String("address", address),
					zap.Error(err))
				return nil
			}
			perNetwork[idx] = s.toTransactions(transfers, net, address)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var merged []entity.Transaction
	for _, txs := range perNetwork {
		merged = append(merged, txs...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})

	total := len(merged)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	s.logger.Info("Unified history fetched",
		zap.String("address", address),
		zap.Int("total", total),
		zap.Int("returned", end-offset))

	return &port.HistoryPage{
		Transactions: merged[offset:end],
		Total:        total,
		HasMore:      end < total,
	}, nil
}

// Status probes the chain for the transaction's receipt. A missing receipt
// means pending.
func (s *historyServiceImpl) Status(ctx context.Context, networkID int64, hash string) (entity.TransactionStatus, error) {
	network, err := historyNetwork(networkID)
	if err != nil {
		return "", err
	}
	receipt, err := s.chain.TransactionReceipt(ctx, network, hash)
	if err != nil {
		return "", err
	}
	if receipt == nil {
		return entity.StatusPending, nil
	}
	if receipt.Success {
		return entity.StatusConfirmed, nil
	}
	return entity.StatusFailed, nil
}

// GasAnalytics samples the address's recent transactions on one network and
// summarizes gas price and usage, with a current suggested price from the
// node. Receipt lookups are capped to keep the probe cheap.
func (s *historyServiceImpl) GasAnalytics(ctx context.Context, address string, networkID int64) (*entity.GasAnalytics, error) {
	network, err := historyNetwork(networkID)
	if err != nil {
		return nil, err
	}

	var transfers []port.AssetTransfer
	err = retry.Do(ctx, s.retryOpts, func() error {
		var fetchErr error
		transfers, fetchErr = s.indexer.GetAssetTransfers(ctx, network, address, gasSampleCount)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sample transfers on %s: %w", network.Name, err)
	}

	hashes := make([]string, 0, gasReceiptCap)
	seen := make(map[string]struct{})
	for _, transfer := range transfers {
		if _, dup := seen[transfer.Hash]; dup {
			continue
		}
		seen[transfer.Hash] = struct{}{}
		hashes = append(hashes, transfer.Hash)
		if len(hashes) == gasReceiptCap {
			break
		}
	}

	var (
		mu        sync.Mutex
		gasPrices []*big.Int
		totalGas  uint64
		sampled   int
	)
	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(5)
	for _, hash := range hashes {
		h := hash
		eg.Go(func() error {
			receipt, err := s.chain.TransactionReceipt(childCtx, network, h)
			if err != nil || receipt == nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			sampled++
			totalGas += receipt.GasUsed
			if receipt.EffectiveGasPrice != "" {
				if price, ok := new(big.Int).SetString(receipt.EffectiveGasPrice, 10); ok {
					gasPrices = append(gasPrices, price)
				}
			}
			return nil
		})
	}
	_ = eg.Wait()

	suggested := ""
	if price, err := s.chain.SuggestGasPrice(ctx, network); err != nil {
		s.logger.Warn("Failed to get suggested gas price",
			zap.String("network", network.Name), zap.Error(err))
	} else {
		suggested = price.String()
	}

	analytics := &entity.GasAnalytics{
		NetworkID:         networkID,
		AverageGasPrice:   averageBigInt(gasPrices),
		MedianGasPrice:    medianBigInt(gasPrices),
		SuggestedGasPrice: suggested,
		GasUsed:           "0",
		Efficiency:        "unknown",
		Recommendations:   []string{},
	}
	if sampled > 0 {
		avgGas := totalGas / uint64(sampled)
		analytics.GasUsed = fmt.Sprintf("%d", avgGas)
		analytics.Efficiency = gasEfficiency(avgGas)
	}
	analytics.Recommendations = gasRecommendations(analytics.Efficiency, network)
	return analytics, nil
}

func (s *historyServiceImpl) toTransactions(transfers []port.AssetTransfer, network entity.NetworkDefinition, address string) []entity.Transaction {
	transactions := make([]entity.Transaction, 0, len(transfers))
	for _, transfer := range transfers {
		category := entity.CategorySend
		if strings.EqualFold(transfer.To, address) {
			category = entity.CategoryReceive
		}

		symbol := transfer.Asset
		if symbol == "" {
			symbol = network.NativeSymbol
		}

		amount := strconv.FormatFloat(transfer.Value, 'f', -1, 64)
		tx := entity.Transaction{
			Hash:        transfer.Hash,
			From:        transfer.From,
			To:          transfer.To,
			Value:       amount,
			Timestamp:   transfer.Timestamp,
			BlockNumber: transfer.BlockNumber,
			Status:      entity.StatusConfirmed,
			Type:        entity.TypeTransfer,
			NetworkID:   network.ChainID,
			NetworkName: network.Name,
			Category:    category,
			Tokens: &entity.TokenLegs{
				From: &entity.TokenLeg{
					Address: transfer.ContractAddress,
					Symbol:  symbol,
					Amount:  amount,
				},
			},
		}
		transactions = append(transactions, tx)
	}
	return transactions
}

func averageBigInt(values []*big.Int) string {
	if len(values) == 0 {
		return "0"
	}
	sum := new(big.Int)
	for _, v := range values {
		sum.Add(sum, v)
	}
	return sum.Div(sum, big.NewInt(int64(len(values)))).String()
}

func medianBigInt(values []*big.Int) string {
	if len(values) == 0 {
		return "0"
	}
	sorted := make([]*big.Int, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid].String()
	}
	return new(big.Int).Div(new(big.Int).Add(sorted[mid-1], sorted[mid]), big.NewInt(2)).String()
}

func gasEfficiency(avgGasUsed uint64) string {
	switch {
	case avgGasUsed < 50000:
		return "high"
	case avgGasUsed < 150000:
		return "medium"
	default:
		return "low"
	}
}

func gasRecommendations(efficiency string, network entity.NetworkDefinition) []string {
	recommendations := []string{}
	switch efficiency {
	case "low":
		recommendations = append(recommendations,
			"Recent transactions consumed heavy gas; consider batching contract calls")
	case "medium":
		recommendations = append(recommendations,
			"Moderate gas usage; off-peak submission can lower fees")
	case "high":
		recommendations = append(recommendations,
			"Gas usage is already efficient for this address")
	default:
		recommendations = append(recommendations,
			"Not enough recent activity to assess gas efficiency")
	}
	if network.ChainID == 1 {
		recommendations = append(recommendations,
			"Mainnet fees vary widely; an L2 deployment of the same flow is usually cheaper")
	}
	return recommendations
}

func historyNetwork(networkID int64) (entity.NetworkDefinition, error) {
	network, ok := definition.NetworkByChainID(networkID)
	if !ok {
		return entity.NetworkDefinition{}, fmt.Errorf("unsupported network id %d", networkID)
	}
	return network, nil
}
