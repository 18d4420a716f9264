package port

import (
	"context"

	"wallet_info/internal/domain/entity"
)

// RawTokenBalance is an ERC-20 balance as reported by the indexing API,
// before metadata enrichment. Balance is the raw hex quantity.
type RawTokenBalance struct {
	ContractAddress string
	Balance         string
}

// NFTHolding is one owned NFT as reported by the indexing API.
type NFTHolding struct {
	ContractAddress string
	Name            string
	Symbol          string
	TokenID         string
	TokenType       string // "ERC721" or "ERC1155"
	Balance         int
	Logo            string
}

// AssetTransfer is one transfer-history entry from the indexing API.
type AssetTransfer struct {
	Hash            string
	From            string
	To              string
	Value           float64
	Asset           string
	Category        string // external/internal/erc20/erc721/erc1155
	ContractAddress string
	BlockNumber     int64
	Timestamp       int64
}

// TokenIndexer is the hosted indexing API surface the aggregators depend on.
type TokenIndexer interface {
	GetTokenBalances(ctx context.Context, network entity.NetworkDefinition, address string) ([]RawTokenBalance, error)
	GetTokenMetadata(ctx context.Context, network entity.NetworkDefinition, contractAddress string) (*entity.TokenMetadata, error)
	GetNFTs(ctx context.Context, network entity.NetworkDefinition, address string) ([]NFTHolding, error)
	GetAssetTransfers(ctx context.Context, network entity.NetworkDefinition, address string, maxCount int) ([]AssetTransfer, error)
}
