package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/domain/entity"
	"wallet_info/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// transferCategories is the fixed category filter for history queries.
var transferCategories = []string{"external", "internal", "erc20", "erc721", "erc1155"}

// alchemyClientImpl talks to the Alchemy JSON-RPC and NFT APIs per network.
type alchemyClientImpl struct {
	client  *fasthttp.Client
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewAlchemyClient creates a new indexing API client.
func NewAlchemyClient(apiKey string, timeout time.Duration, logger *zap.Logger) port.TokenIndexer {
	return &alchemyClientImpl{
		client:  &fasthttp.Client{},
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("AlchemyClient"),
	}
}

func (c *alchemyClientImpl) rpcURL(network entity.NetworkDefinition) string {
	return fmt.Sprintf("https://%s.g.alchemy.com/v2/%s", network.AlchemyNetwork, c.apiKey)
}

func (c *alchemyClientImpl) nftURL(network entity.NetworkDefinition, owner string) string {
	return fmt.Sprintf("https://%s.g.alchemy.com/nft/v3/%s/getNFTsForOwner?owner=%s&withMetadata=true",
		network.AlchemyNetwork, c.apiKey, owner)
}

// doJSON executes one HTTP exchange and unmarshals the response body into out.
func (c *alchemyClientImpl) doJSON(ctx context.Context, method, url string, body []byte, out interface{}) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if len(body) > 0 {
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	metrics.UpstreamDuration.WithLabelValues("alchemy").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("alchemy", "error").Inc()
		return fmt.Errorf("alchemy request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("alchemy", "error").Inc()
		return fmt.Errorf("alchemy request failed with status %d: %s", resp.StatusCode(), resp.Body())
	}
	metrics.UpstreamRequests.WithLabelValues("alchemy", "ok").Inc()

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal alchemy response: %w", err)
	}
	return nil
}

func (c *alchemyClientImpl) rpcCall(ctx context.Context, network entity.NetworkDefinition, method string, params []interface{}, out interface{}) error {
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}
	return c.doJSON(ctx, fasthttp.MethodPost, c.rpcURL(network), payload, out)
}

// GetTokenBalances fetches all ERC-20 balances for an address.
func (c *alchemyClientImpl) GetTokenBalances(ctx context.Context, network entity.NetworkDefinition, address string) ([]port.RawTokenBalance, error) {
	var resp tokenBalancesResponse
	if err := c.rpcCall(ctx, network, "alchemy_getTokenBalances", []interface{}{address, "erc20"}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("alchemy_getTokenBalances error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return []port.RawTokenBalance{}, nil
	}

	balances := make([]port.RawTokenBalance, 0, len(resp.Result.TokenBalances))
	for _, tb := range resp.Result.TokenBalances {
		balances = append(balances, port.RawTokenBalance{
			ContractAddress: tb.ContractAddress,
			Balance:         tb.TokenBalance,
		})
	}
	c.logger.Debug("Fetched token balances",
		zap.String("network", network.Name),
		zap.String("address", address),
		zap.Int("count", len(balances)))
	return balances, nil
}

// GetTokenMetadata fetches name/symbol/decimals/logo for an ERC-20 contract.
func (c *alchemyClientImpl) GetTokenMetadata(ctx context.Context, network entity.NetworkDefinition, contractAddress string) (*entity.TokenMetadata, error) {
	var resp tokenMetadataResponse
	if err := c.rpcCall(ctx, network, "alchemy_getTokenMetadata", []interface{}{contractAddress}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("alchemy_getTokenMetadata error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("alchemy_getTokenMetadata returned no result for %s", contractAddress)
	}
	return &entity.TokenMetadata{
		Name:     resp.Result.Name,
		Symbol:   resp.Result.Symbol,
		Decimals: resp.Result.Decimals,
		Logo:     resp.Result.Logo,
	}, nil
}

// GetAssetTransfers fetches transfer history for an address, newest first.
// maxCount is capped at 100, the upstream limit per request.
func (c *alchemyClientImpl) GetAssetTransfers(ctx context.Context, network entity.NetworkDefinition, address string, maxCount int) ([]port.AssetTransfer, error) {
	if maxCount <= 0 || maxCount > 100 {
		maxCount = 100
	}
	params := []interface{}{map[string]interface{}{
		"fromBlock":    "0x0",
		"toAddress":    address,
		"category":     transferCategories,
		"withMetadata": true,
		"maxCount":     fmt.Sprintf("0x%x", maxCount),
		"order":        "desc",
	}}

	var resp assetTransfersResponse
	if err := c.rpcCall(ctx, network, "alchemy_getAssetTransfers", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("alchemy_getAssetTransfers error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return []port.AssetTransfer{}, nil
	}

	transfers := make([]port.AssetTransfer, 0, len(resp.Result.Transfers))
	for _, t := range resp.Result.Transfers {
		transfers = append(transfers, port.AssetTransfer{
			Hash:            t.Hash,
			From:            t.From,
			To:              t.To,
			Value:           t.Value,
			Asset:           t.Asset,
			Category:        t.Category,
			ContractAddress: t.RawContract.Address,
			BlockNumber:     parseHexBlockNum(t.BlockNum),
			Timestamp:       parseBlockTimestamp(t.Metadata.BlockTimestamp),
		})
	}
	c.logger.Debug("Fetched asset transfers",
		zap.String("network", network.Name),
		zap.String("address", address),
		zap.Int("count", len(transfers)))
	return transfers, nil
}

// GetNFTs fetches ERC-721 and ERC-1155 holdings for an address.
func (c *alchemyClientImpl) GetNFTs(ctx context.Context, network entity.NetworkDefinition, address string) ([]port.NFTHolding, error) {
	var resp nftsForOwnerResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, c.nftURL(network, address), nil, &resp); err != nil {
		return nil, err
	}

	holdings := make([]port.NFTHolding, 0, len(resp.OwnedNfts))
	for _, nft := range resp.OwnedNfts {
		balance := 1
		if nft.Balance != "" {
			if parsed, err := strconv.Atoi(nft.Balance); err == nil {
				balance = parsed
			}
		}
		holdings = append(holdings, port.NFTHolding{
			ContractAddress: nft.Contract.Address,
			Name:            nft.Name,
			Symbol:          nft.Contract.Symbol,
			TokenID:         nft.TokenID,
			TokenType:       nft.TokenType,
			Balance:         balance,
			Logo:            nft.Image.ThumbnailURL,
		})
	}
	return holdings, nil
}

func parseHexBlockNum(blockNum string) int64 {
	hex := strings.TrimPrefix(blockNum, "0x")
	if hex == "" {
		return 0
	}
	n, err := strconv.ParseInt(hex, 16, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseBlockTimestamp(ts string) int64 {
	if ts == "" {
		return time.Now().UnixMilli()
	}
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Now().UnixMilli()
	}
	return parsed.UnixMilli()
}
