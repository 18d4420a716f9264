package entity

// TokenStandard identifies the token contract standard behind a balance.
type TokenStandard string

const (
	StandardNative  TokenStandard = "native"
	StandardERC20   TokenStandard = "erc20"
	StandardERC721  TokenStandard = "erc721"
	StandardERC1155 TokenStandard = "erc1155"
)

// TokenBalance is one row of a wallet portfolio. The numeric ID is assigned
// per fetch cycle in flattened list order and is not stable across refreshes;
// refresh-stable identity is (NetworkID, ContractAddress, TokenID).
type TokenBalance struct {
	ID              int           `json:"id"`
	ContractAddress string        `json:"contractAddress"` // empty for native tokens
	Name            string        `json:"name"`
	Symbol          string        `json:"symbol"`
	Balance         float64       `json:"balance"`
	Decimals        int           `json:"decimals"`
	Logo            string        `json:"logo,omitempty"`
	NetworkID       int64         `json:"networkId"`
	NetworkName     string        `json:"networkName"`
	USDValue        float64       `json:"usdValue"`
	Standard        TokenStandard `json:"standard"`
	TokenID         string        `json:"tokenId,omitempty"` // NFTs only
}

// TokenMetadata holds ERC-20 metadata returned by the indexer.
type TokenMetadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Logo     string `json:"logo,omitempty"`
}

// PortfolioSummary is the aggregated view returned by GET /api/portfolio.
type PortfolioSummary struct {
	Address          string             `json:"address"`
	TotalValue       float64            `json:"totalValue"`
	TokenCount       int                `json:"tokenCount"`
	NetworkBreakdown map[string]float64 `json:"networkBreakdown"`
	Tokens           []TokenBalance     `json:"tokens"`
	LastUpdated      string             `json:"lastUpdated"`
}
