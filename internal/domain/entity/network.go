package entity

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NetworkDefinition holds the configuration for a supported EVM network.
type NetworkDefinition struct {
	ChainID        int64  `json:"chainId" yaml:"chainId"`
	Name           string `json:"name" yaml:"name"`
	AlchemyNetwork string `json:"alchemyNetwork" yaml:"alchemyNetwork"`
	RPCURL         string `json:"rpcUrl" yaml:"rpcUrl"`
	NativeSymbol   string `json:"nativeSymbol" yaml:"nativeSymbol"`
	NativeName     string `json:"nativeName" yaml:"nativeName"`
	NativeDecimals int    `json:"nativeDecimals" yaml:"nativeDecimals"`
	IsTestnet      bool   `json:"isTestnet" yaml:"isTestnet"`
}
