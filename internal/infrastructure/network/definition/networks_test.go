package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlchemyNetworkForChainIsStable(t *testing.T) {
	expected := map[int64]string{
		1:        AlchemyEthMainnet,
		5:        AlchemyEthGoerli,
		11155111: AlchemyEthSepolia,
		8453:     AlchemyBaseMainnet,
		84532:    AlchemyBaseSepolia,
		534352:   AlchemyScrollMainnet,
		534351:   AlchemyScrollSepolia,
	}
	for chainID, slug := range expected {
		assert.Equal(t, slug, AlchemyNetworkForChain(chainID))
		// Pure mapping: repeated calls agree.
		assert.Equal(t, AlchemyNetworkForChain(chainID), AlchemyNetworkForChain(chainID))
	}
}

func TestAlchemyNetworkForChainFallsBackToMainnet(t *testing.T) {
	assert.Equal(t, AlchemyEthMainnet, AlchemyNetworkForChain(424242))
}

func TestNetworkName(t *testing.T) {
	assert.Equal(t, "Ethereum", NetworkName(1))
	assert.Equal(t, "Base", NetworkName(8453))
	assert.Equal(t, "Unknown", NetworkName(999))
}

func TestSelectNetworks(t *testing.T) {
	all, err := SelectNetworks("")
	require.NoError(t, err)
	assert.Len(t, all, len(AllNetworks()))

	selected, err := SelectNetworks("1, 8453")
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, int64(1), selected[0].ChainID)
	assert.Equal(t, int64(8453), selected[1].ChainID)

	_, err = SelectNetworks("abc")
	assert.Error(t, err)

	// Known-format ids that match nothing resolve to zero networks.
	_, err = SelectNetworks("424242")
	assert.Error(t, err)
}
