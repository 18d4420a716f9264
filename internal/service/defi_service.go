package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"wallet_info/internal/app/port"
	"wallet_info/internal/client"
	"wallet_info/internal/domain/entity"
	"wallet_info/internal/infrastructure/network/definition"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	uniswapV3SubgraphURL  = "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3"
	aerodromeSubgraphURL  = "https://api.thegraph.com/subgraphs/name/aerodrome-finance/aerodrome"
	aaveAPIBaseURL        = "https://aave-api-v2.aave.com"
	compoundAPIBaseURL    = "https://api.compound.finance"
	uniswapPositionsQuery = `query($owner: String!) {
  positions(where: { owner: $owner, liquidity_gt: 0 }, first: 50) {
    id
    liquidity
    pool { feeTier token0 { symbol } token1 { symbol } }
  }
}`
	aerodromePositionsQuery = `query($owner: String!) {
  liquidityPositions(where: { user: $owner, liquidityTokenBalance_gt: 0 }, first: 50) {
    id
    liquidityTokenBalance
    pair { token0 { symbol } token1 { symbol } }
  }
}`
)

// protocolAdapter fetches one protocol's positions on one network.
type protocolAdapter func(ctx context.Context, address string) ([]entity.DeFiPosition, error)

// defiServiceImpl implements port.DeFiService. Adapters are registered per
// chain id; each adapter is fail-soft and a failing protocol only logs a
// warning.
type defiServiceImpl struct {
	subgraph *client.SubgraphClient
	rest     *client.RESTClient
	adapters map[int64][]protocolAdapter

	uniswapURL   string
	aerodromeURL string
	aaveURL      string
	compoundURL  string

	logger *zap.Logger
}

// NewDeFiService creates the position aggregator with the built-in protocol
// adapters for mainnet, Base and Scroll.
func NewDeFiService(subgraph *client.SubgraphClient, rest *client.RESTClient, logger *zap.Logger) port.DeFiService {
	s := &defiServiceImpl{
		subgraph:     subgraph,
		rest:         rest,
		adapters:     make(map[int64][]protocolAdapter),
		uniswapURL:   uniswapV3SubgraphURL,
		aerodromeURL: aerodromeSubgraphURL,
		aaveURL:      aaveAPIBaseURL,
		compoundURL:  compoundAPIBaseURL,
		logger:       logger.Named("DeFiService"),
	}

	s.adapters[1] = []protocolAdapter{
		s.uniswapV3Positions,
		s.aavePositions,
		s.compoundPositions,
	}
	s.adapters[8453] = []protocolAdapter{
		s.aerodromePositions,
	}
	// No indexed protocol APIs for Scroll yet; the chain stays queryable so
	// adapters can be added without touching callers.
	s.adapters[534352] = nil

	return s
}

// GetAllPositions runs every registered adapter for the requested networks
// and merges the results. Errors never propagate; a failed protocol simply
// contributes nothing.
func (s *defiServiceImpl) GetAllPositions(ctx context.Context, address string, networkIDs []int64) []entity.DeFiPosition {
	positions := make([]entity.DeFiPosition, 0)
	var mu sync.Mutex
	eg, childCtx := errgroup.WithContext(ctx)

	for _, networkID := range networkIDs {
		adapters, ok := s.adapters[networkID]
		if !ok {
			s.logger.Debug("No DeFi adapters for network",
				zap.Int64("networkID", networkID),
				zap.String("network", definition.NetworkName(networkID)))
			continue
		}
		for _, adapter := range adapters {
			fetch := adapter
			eg.Go(func() error {
				found, err := fetch(childCtx, address)
				if err != nil {
					s.logger.Warn("Protocol position fetch failed",
						zap.Int64("networkID", networkID),
						zap.Error(err))
					return nil
				}
				mu.Lock()
				positions = append(positions, found...)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = eg.Wait()

	s.logger.Info("Aggregated DeFi positions",
		zap.String("address", address),
		zap.Int("positionCount", len(positions)))
	return positions
}

type uniswapPositionsData struct {
	Positions []struct {
		ID        string `json:"id"`
		Liquidity string `json:"liquidity"`
		Pool      struct {
			FeeTier string `json:"feeTier"`
			Token0  struct {
				Symbol string `json:"symbol"`
			} `json:"token0"`
			Token1 struct {
				Symbol string `json:"symbol"`
			} `json:"token1"`
		} `json:"pool"`
	} `json:"positions"`
}

func (s *defiServiceImpl) uniswapV3Positions(ctx context.Context, address string) ([]entity.DeFiPosition, error) {
	var data uniswapPositionsData
	err := s.subgraph.Query(ctx, s.uniswapURL, uniswapPositionsQuery,
		map[string]interface{}{"owner": strings.ToLower(address)}, &data)
	if err != nil {
		return nil, fmt.Errorf("uniswap v3: %w", err)
	}

	positions := make([]entity.DeFiPosition, 0, len(data.Positions))
	for _, p := range data.Positions {
		positions = append(positions, entity.DeFiPosition{
			Type:      entity.PositionLiquidity,
			Protocol:  "Uniswap V3",
			NetworkID: 1,
			Value:     p.Liquidity,
			APR:       "",
			Details: map[string]interface{}{
				"positionId": p.ID,
				"pair":       p.Pool.Token0.Symbol + "/" + p.Pool.Token1.Symbol,
				"feeTier":    p.Pool.FeeTier,
			},
		})
	}
	return positions, nil
}

type aaveUserData struct {
	Reserves []struct {
		Reserve struct {
			Symbol        string `json:"symbol"`
			LiquidityRate string `json:"liquidityRate"`
		} `json:"reserve"`
		CurrentATokenBalance string `json:"currentATokenBalance"`
	} `json:"reserves"`
}

func (s *defiServiceImpl) aavePositions(ctx context.Context, address string) ([]entity.DeFiPosition, error) {
	var data aaveUserData
	url := fmt.Sprintf("%s/data/users/%s", s.aaveURL, strings.ToLower(address))
	if err := s.rest.GetJSON(ctx, url, &data); err != nil {
		return nil, fmt.Errorf("aave: %w", err)
	}

	positions := make([]entity.DeFiPosition, 0, len(data.Reserves))
	for _, r := range data.Reserves {
		if r.CurrentATokenBalance == "" || r.CurrentATokenBalance == "0" {
			continue
		}
		positions = append(positions, entity.DeFiPosition{
			Type:      entity.PositionLending,
			Protocol:  "Aave V2",
			NetworkID: 1,
			Value:     r.CurrentATokenBalance,
			APR:       r.Reserve.LiquidityRate,
			Details: map[string]interface{}{
				"asset": r.Reserve.Symbol,
			},
		})
	}
	return positions, nil
}

type compoundAccountData struct {
	Accounts []struct {
		Tokens []struct {
			Symbol string `json:"symbol"`
			Supply struct {
				Value string `json:"value"`
			} `json:"supply_balance_underlying"`
		} `json:"tokens"`
	} `json:"accounts"`
}

func (s *defiServiceImpl) compoundPositions(ctx context.Context, address string) ([]entity.DeFiPosition, error) {
	var data compoundAccountData
	url := fmt.Sprintf("%s/api/v2/account?addresses[]=%s", s.compoundURL, strings.ToLower(address))
	if err := s.rest.GetJSON(ctx, url, &data); err != nil {
		return nil, fmt.Errorf("compound: %w", err)
	}

	var positions []entity.DeFiPosition
	for _, account := range data.Accounts {
		for _, token := range account.Tokens {
			if token.Supply.Value == "" || token.Supply.Value == "0" {
				continue
			}
			positions = append(positions, entity.DeFiPosition{
				Type:      entity.PositionLending,
				Protocol:  "Compound",
				NetworkID: 1,
				Value:     token.Supply.Value,
				APR:       "",
				Details: map[string]interface{}{
					"asset": token.Symbol,
				},
			})
		}
	}
	return positions, nil
}

type aerodromePositionsData struct {
	LiquidityPositions []struct {
		ID                    string `json:"id"`
		LiquidityTokenBalance string `json:"liquidityTokenBalance"`
		Pair                  struct {
			Token0 struct {
				Symbol string `json:"symbol"`
			} `json:"token0"`
			Token1 struct {
				Symbol string `json:"symbol"`
			} `json:"token1"`
		} `json:"pair"`
	} `json:"liquidityPositions"`
}

func (s *defiServiceImpl) aerodromePositions(ctx context.Context, address string) ([]entity.DeFiPosition, error) {
	var data aerodromePositionsData
	err := s.subgraph.Query(ctx, s.aerodromeURL, aerodromePositionsQuery,
		map[string]interface{}{"owner": strings.ToLower(address)}, &data)
	if err != nil {
		return nil, fmt.Errorf("aerodrome: %w", err)
	}

	positions := make([]entity.DeFiPosition, 0, len(data.LiquidityPositions))
	for _, p := range data.LiquidityPositions {
		positions = append(positions, entity.DeFiPosition{
			Type:      entity.PositionLiquidity,
			Protocol:  "Aerodrome",
			NetworkID: 8453,
			Value:     p.LiquidityTokenBalance,
			APR:       "",
			Details: map[string]interface{}{
				"positionId": p.ID,
				"pair":       p.Pair.Token0.Symbol + "/" + p.Pair.Token1.Symbol,
			},
		})
	}
	return positions, nil
}
