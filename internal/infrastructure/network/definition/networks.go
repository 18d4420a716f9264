package definition

import (
	"fmt"
	"strings"

	"wallet_info/internal/domain/entity"
)

// Alchemy network slugs for the chains the dashboard supports.
const (
	AlchemyEthMainnet    = "eth-mainnet"
	AlchemyEthGoerli     = "eth-goerli"
	AlchemyEthSepolia    = "eth-sepolia"
	AlchemyBaseMainnet   = "base-mainnet"
	AlchemyBaseSepolia   = "base-sepolia"
	AlchemyScrollMainnet = "scroll-mainnet"
	AlchemyScrollSepolia = "scroll-sepolia"
)

// supportedNetworks is the static registry of chains the service knows about.
// Order matters: it is the default fan-out order for portfolio fetches.
var supportedNetworks = []entity.NetworkDefinition{
	{ChainID: 1, Name: "Ethereum", AlchemyNetwork: AlchemyEthMainnet, RPCURL: "https://eth-mainnet.g.alchemy.com/v2", NativeSymbol: "ETH", NativeName: "Ethereum", NativeDecimals: 18},
	{ChainID: 5, Name: "Goerli", AlchemyNetwork: AlchemyEthGoerli, RPCURL: "https://eth-goerli.g.alchemy.com/v2", NativeSymbol: "ETH", NativeName: "Ethereum", NativeDecimals: 18, IsTestnet: true},
	{ChainID: 11155111, Name: "Sepolia", AlchemyNetwork: AlchemyEthSepolia, RPCURL: "https://eth-sepolia.g.alchemy.com/v2", NativeSymbol: "ETH", NativeName: "Ethereum", NativeDecimals: 18, IsTestnet: true},
	{ChainID: 8453, Name: "Base", AlchemyNetwork: AlchemyBaseMainnet, RPCURL: "https://base-mainnet.g.alchemy.com/v2", NativeSymbol: "ETH", NativeName: "Ethereum", NativeDecimals: 18},
	{ChainID: 84532, Name: "Base Sepolia", AlchemyNetwork: AlchemyBaseSepolia, RPCURL: "https://base-sepolia.g.alchemy.com/v2", NativeSymbol: "ETH", NativeName: "Ethereum", NativeDecimals: 18, IsTestnet: true},
	{ChainID: 534352, Name: "Scroll", AlchemyNetwork: AlchemyScrollMainnet, RPCURL: "https://scroll-mainnet.g.alchemy.com/v2", NativeSymbol: "ETH", NativeName: "Ethereum", NativeDecimals: 18},
	{ChainID: 534351, Name: "Scroll Sepolia", AlchemyNetwork: AlchemyScrollSepolia, RPCURL: "https://scroll-sepolia.g.alchemy.com/v2", NativeSymbol: "ETH", NativeName: "Ethereum", NativeDecimals: 18, IsTestnet: true},
}

// AllNetworks returns a copy of the full registry.
func AllNetworks() []entity.NetworkDefinition {
	out := make([]entity.NetworkDefinition, len(supportedNetworks))
	copy(out, supportedNetworks)
	return out
}

// NetworkByChainID looks up a network definition by chain id.
func NetworkByChainID(chainID int64) (entity.NetworkDefinition, bool) {
	for _, n := range supportedNetworks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// AlchemyNetworkForChain maps a chain id to its Alchemy network slug.
// Unknown chain ids fall back to eth-mainnet.
func AlchemyNetworkForChain(chainID int64) string {
	if n, ok := NetworkByChainID(chainID); ok {
		return n.AlchemyNetwork
	}
	return AlchemyEthMainnet
}

// NetworkName returns the display name for a chain id, "Unknown" otherwise.
func NetworkName(chainID int64) string {
	if n, ok := NetworkByChainID(chainID); ok {
		return n.Name
	}
	return "Unknown"
}

// SelectNetworks resolves a comma-separated list of chain ids into network
// definitions. An empty selector returns all mainnet and testnet networks.
func SelectNetworks(selector string) ([]entity.NetworkDefinition, error) {
	if strings.TrimSpace(selector) == "" {
		return AllNetworks(), nil
	}
	var selected []entity.NetworkDefinition
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var chainID int64
		if _, err := fmt.Sscanf(part, "%d", &chainID); err != nil {
			return nil, fmt.Errorf("invalid network id %q", part)
		}
		n, ok := NetworkByChainID(chainID)
		if !ok {
			continue
		}
		selected = append(selected, n)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no supported networks in selector %q", selector)
	}
	return selected, nil
}
