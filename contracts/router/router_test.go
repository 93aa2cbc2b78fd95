package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsedABIHasAllOperations(t *testing.T) {
	parsed, err := Parsed()
	require.NoError(t, err)

	methods := []string{
		"addLiquidityDualSyAndPt",
		"addLiquiditySingleSy",
		"addLiquiditySinglePt",
		"addLiquiditySingleToken",
		"removeLiquidityDualSyAndPt",
		"removeLiquiditySingleSy",
		"removeLiquiditySingleToken",
		"mintPyFromSy",
		"redeemPyToSy",
	}
	for _, name := range methods {
		_, exists := parsed.Methods[name]
		require.True(t, exists, "missing method %s", name)
	}
}

func TestRouterContractAddress(t *testing.T) {
	for _, chainID := range []uint64{1, 10, 56, 5000, 42161} {
		addr, err := RouterContractAddress(chainID)
		require.NoError(t, err)
		require.Equal(t, "0x888888888889758F76e7103c6CbF23ABbF58F946", addr.Hex())
	}

	_, err := RouterContractAddress(421614)
	require.ErrorIs(t, err, ErrNotAvailableOnChainID)
}
