package entity

// PositionType classifies a DeFi position.
type PositionType string

const (
	PositionLiquidity PositionType = "liquidity"
	PositionLending   PositionType = "lending"
	PositionStaking   PositionType = "staking"
	PositionFarming   PositionType = "farming"
)

// DeFiPosition is a single protocol position held by a wallet.
// Value and APR are kept as decimal strings exactly as the protocol APIs
// report them; Details carries protocol-specific fields.
type DeFiPosition struct {
	Type      PositionType           `json:"type"`
	Protocol  string                 `json:"protocol"`
	NetworkID int64                  `json:"networkId"`
	Value     string                 `json:"value"`
	APR       string                 `json:"apr"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
