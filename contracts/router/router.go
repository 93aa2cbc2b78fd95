package router

import (
	"errors"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Tuple components shared by the router operations. Field order is
// contract-defined; changing it silently corrupts call data.
const (
	approxComponents = `[{"name":"guessMin","type":"uint256"},{"name":"guessMax","type":"uint256"},{"name":"guessOffchain","type":"uint256"},{"name":"maxIteration","type":"uint256"},{"name":"eps","type":"uint256"}]`

	swapDataComponents = `[{"name":"swapType","type":"uint8"},{"name":"extRouter","type":"address"},{"name":"extCalldata","type":"bytes"},{"name":"needScale","type":"bool"}]`

	tokenInputComponents = `[{"name":"tokenIn","type":"address"},{"name":"netTokenIn","type":"uint256"},{"name":"tokenMintSy","type":"address"},{"name":"pendleSwap","type":"address"},{"components":` + swapDataComponents + `,"name":"swapData","type":"tuple"}]`

	tokenOutputComponents = `[{"name":"tokenOut","type":"address"},{"name":"minTokenOut","type":"uint256"},{"name":"tokenRedeemSy","type":"address"},{"name":"pendleSwap","type":"address"},{"components":` + swapDataComponents + `,"name":"swapData","type":"tuple"}]`

	orderComponents = `[{"name":"salt","type":"uint256"},{"name":"expiry","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"orderType","type":"uint8"},{"name":"token","type":"address"},{"name":"YT","type":"address"},{"name":"maker","type":"address"},{"name":"receiver","type":"address"},{"name":"makingAmount","type":"uint256"},{"name":"lnImpliedRate","type":"uint256"},{"name":"failSafeRate","type":"uint256"},{"name":"permit","type":"bytes"}]`

	fillOrderParamsComponents = `[{"components":` + orderComponents + `,"name":"order","type":"tuple"},{"name":"signature","type":"bytes"},{"name":"makingAmount","type":"uint256"}]`

	limitOrderDataComponents = `[{"name":"limitRouter","type":"address"},{"name":"epsSkipMarket","type":"uint256"},{"components":` + fillOrderParamsComponents + `,"name":"normalFills","type":"tuple[]"},{"components":` + fillOrderParamsComponents + `,"name":"flashFills","type":"tuple[]"},{"name":"optData","type":"bytes"}]`
)

// RouterABI covers the liquidity and PY operations of the Pendle router.
const RouterABI = `[` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"market","type":"address"},{"name":"netSyDesired","type":"uint256"},{"name":"netPtDesired","type":"uint256"},{"name":"minLpOut","type":"uint256"}],"name":"addLiquidityDualSyAndPt","outputs":[{"name":"netLpOut","type":"uint256"},{"name":"netSyUsed","type":"uint256"},{"name":"netPtUsed","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"market","type":"address"},{"name":"netSyIn","type":"uint256"},{"name":"minLpOut","type":"uint256"},{"components":` + approxComponents + `,"name":"guessPtReceivedFromSy","type":"tuple"},{"components":` + limitOrderDataComponents + `,"name":"limit","type":"tuple"}],"name":"addLiquiditySingleSy","outputs":[{"name":"netLpOut","type":"uint256"},{"name":"netSyFee","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"market","type":"address"},{"name":"netPtIn","type":"uint256"},{"name":"minLpOut","type":"uint256"},{"components":` + approxComponents + `,"name":"guessPtSwapToSy","type":"tuple"},{"components":` + limitOrderDataComponents + `,"name":"limit","type":"tuple"}],"name":"addLiquiditySinglePt","outputs":[{"name":"netLpOut","type":"uint256"},{"name":"netSyFee","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"market","type":"address"},{"name":"minLpOut","type":"uint256"},{"components":` + approxComponents + `,"name":"guessPtReceivedFromSy","type":"tuple"},{"components":` + tokenInputComponents + `,"name":"input","type":"tuple"},{"components":` + limitOrderDataComponents + `,"name":"limit","type":"tuple"}],"name":"addLiquiditySingleToken","outputs":[{"name":"netLpOut","type":"uint256"},{"name":"netSyFee","type":"uint256"},{"name":"netSyInterm","type":"uint256"}],"stateMutability":"payable","type":"function"},` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"market","type":"address"},{"name":"netLpToRemove","type":"uint256"},{"name":"minSyOut","type":"uint256"},{"name":"minPtOut","type":"uint256"}],"name":"removeLiquidityDualSyAndPt","outputs":[{"name":"netSyOut","type":"uint256"},{"name":"netPtOut","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"market","type":"address"},{"name":"netLpToRemove","type":"uint256"},{"name":"minSyOut","type":"uint256"},{"components":` + limitOrderDataComponents + `,"name":"limit","type":"tuple"}],"name":"removeLiquiditySingleSy","outputs":[{"name":"netSyOut","type":"uint256"},{"name":"netSyFee","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"market","type":"address"},{"name":"netLpToRemove","type":"uint256"},{"components":` + tokenOutputComponents + `,"name":"output","type":"tuple"},{"components":` + limitOrderDataComponents + `,"name":"limit","type":"tuple"}],"name":"removeLiquiditySingleToken","outputs":[{"name":"netTokenOut","type":"uint256"},{"name":"netSyFee","type":"uint256"},{"name":"netSyInterm","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"YT","type":"address"},{"name":"netSyIn","type":"uint256"},{"name":"minPyOut","type":"uint256"}],"name":"mintPyFromSy","outputs":[{"name":"netPyOut","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[{"name":"receiver","type":"address"},{"name":"YT","type":"address"},{"name":"netPyIn","type":"uint256"},{"name":"minSyOut","type":"uint256"}],"name":"redeemPyToSy","outputs":[{"name":"netSyOut","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}` +
	`]`

// ErrNotAvailableOnChainID is returned for chains without a router deployment.
var ErrNotAvailableOnChainID = errors.New("router contract not available on this chainID")

// The router is deployed at the same address on every supported mainnet.
var contractAddressByChainID = map[uint64]common.Address{
	1:     common.HexToAddress("0x888888888889758F76e7103c6CbF23ABbF58F946"), // ethereum
	10:    common.HexToAddress("0x888888888889758F76e7103c6CbF23ABbF58F946"), // optimism
	56:    common.HexToAddress("0x888888888889758F76e7103c6CbF23ABbF58F946"), // bsc
	5000:  common.HexToAddress("0x888888888889758F76e7103c6CbF23ABbF58F946"), // mantle
	42161: common.HexToAddress("0x888888888889758F76e7103c6CbF23ABbF58F946"), // arbitrum
}

// RouterContractAddress returns the router deployment for chainID.
func RouterContractAddress(chainID uint64) (common.Address, error) {
	addr, exists := contractAddressByChainID[chainID]
	if !exists {
		return common.Address{}, ErrNotAvailableOnChainID
	}
	return addr, nil
}

var (
	parseOnce sync.Once
	parsedABI abi.ABI
	parseErr  error
)

// Parsed returns the parsed router ABI.
func Parsed() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(RouterABI))
	})
	return parsedABI, parseErr
}
