package yield

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pendle-tools/pendle-agent/protocolerrors"
)

// SwapType identifies the external aggregator a token leg routes through.
// Ordinal values are contract-defined and must match the router exactly.
type SwapType uint8

const (
	SwapTypeNone SwapType = iota
	SwapTypeKyberswap
	SwapTypeOneInch
	SwapTypeNative
	SwapTypeUniswapV2
	SwapTypeUniswapV3
	SwapTypeCurve
	SwapTypeBalancer
	SwapTypeBancor
)

var swapTypeNames = map[SwapType]string{
	SwapTypeNone:      "NONE",
	SwapTypeKyberswap: "KYBERSWAP",
	SwapTypeOneInch:   "ONE_INCH",
	SwapTypeNative:    "NATIVE",
	SwapTypeUniswapV2: "UNISWAPV2",
	SwapTypeUniswapV3: "UNISWAPV3",
	SwapTypeCurve:     "CURVE",
	SwapTypeBalancer:  "BALANCER",
	SwapTypeBancor:    "BANCOR",
}

func (s SwapType) String() string {
	if name, ok := swapTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SwapType(%d)", uint8(s))
}

// SwapTypeFromInt constructs a SwapType from its contract ordinal.
func SwapTypeFromInt(value int) (SwapType, error) {
	if value < int(SwapTypeNone) || value > int(SwapTypeBancor) {
		return SwapTypeNone, protocolerrors.New(protocolerrors.KindInvalidParameters,
			fmt.Sprintf("swap type %d is out of range", value))
	}
	return SwapType(value), nil
}

// SwapTypeNames returns the ordinal table the router defines.
func SwapTypeNames() map[string]int {
	names := make(map[string]int, len(swapTypeNames))
	for swapType, name := range swapTypeNames {
		names[name] = int(swapType)
	}
	return names
}

// Approximation defaults used by the on-chain binary search when the caller
// does not pin its own bounds.
var (
	DefaultGuessMax     = exp10(18)
	DefaultEps          = exp10(15)
	DefaultMaxIteration = big.NewInt(256)
)

func exp10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// ApproxParams bounds the router's iterative approximation. Passed to the
// contract as an opaque tuple; field order is ABI-significant.
type ApproxParams struct {
	GuessMin      *big.Int `abi:"guessMin" json:"guessMin"`
	GuessMax      *big.Int `abi:"guessMax" json:"guessMax"`
	GuessOffchain *big.Int `abi:"guessOffchain" json:"guessOffchain"`
	MaxIteration  *big.Int `abi:"maxIteration" json:"maxIteration"`
	Eps           *big.Int `abi:"eps" json:"eps"`
}

// NewApproxParams builds approximation parameters. Nil arguments take the
// documented defaults: guessMin=0, guessMax=10^18, guessOffchain=0,
// maxIteration=256, eps=10^15.
func NewApproxParams(guessMin, guessMax, guessOffchain, maxIteration, eps *big.Int) ApproxParams {
	return ApproxParams{
		GuessMin:      valueOrDefault(guessMin, big.NewInt(0)),
		GuessMax:      valueOrDefault(guessMax, DefaultGuessMax),
		GuessOffchain: valueOrDefault(guessOffchain, big.NewInt(0)),
		MaxIteration:  valueOrDefault(maxIteration, DefaultMaxIteration),
		Eps:           valueOrDefault(eps, DefaultEps),
	}
}

// NewDefaultApproxParams builds the all-default tuple {0, 10^18, 0, 256, 10^15}.
func NewDefaultApproxParams() ApproxParams {
	return NewApproxParams(nil, nil, nil, nil, nil)
}

func valueOrDefault(value, fallback *big.Int) *big.Int {
	if value == nil {
		return new(big.Int).Set(fallback)
	}
	return new(big.Int).Set(value)
}

// SwapData describes the external-router leg of a token conversion.
type SwapData struct {
	SwapType    SwapType       `abi:"swapType" json:"swapType"`
	ExtRouter   common.Address `abi:"extRouter" json:"extRouter"`
	ExtCalldata []byte         `abi:"extCalldata" json:"extCalldata"`
	NeedScale   bool           `abi:"needScale" json:"needScale"`
}

// NewSwapData builds a swap descriptor. Defaults: zero-address external
// router, empty calldata, needScale=false.
func NewSwapData(swapType SwapType, extRouter common.Address, extCalldata []byte, needScale bool) SwapData {
	if extCalldata == nil {
		extCalldata = []byte{}
	}
	return SwapData{
		SwapType:    swapType,
		ExtRouter:   extRouter,
		ExtCalldata: extCalldata,
		NeedScale:   needScale,
	}
}

// TokenInput describes one token-to-SY conversion leg.
type TokenInput struct {
	TokenIn     common.Address `abi:"tokenIn" json:"tokenIn"`
	NetTokenIn  *big.Int       `abi:"netTokenIn" json:"netTokenIn"`
	TokenMintSy common.Address `abi:"tokenMintSy" json:"tokenMintSy"`
	PendleSwap  common.Address `abi:"pendleSwap" json:"pendleSwap"`
	SwapData    SwapData       `abi:"swapData" json:"swapData"`
}

func NewTokenInput(tokenIn common.Address, netTokenIn *big.Int, tokenMintSy, pendleSwap common.Address, swapData SwapData) TokenInput {
	return TokenInput{
		TokenIn:     tokenIn,
		NetTokenIn:  valueOrDefault(netTokenIn, big.NewInt(0)),
		TokenMintSy: tokenMintSy,
		PendleSwap:  pendleSwap,
		SwapData:    swapData,
	}
}

// TokenOutput describes one SY-to-token conversion leg.
type TokenOutput struct {
	TokenOut      common.Address `abi:"tokenOut" json:"tokenOut"`
	MinTokenOut   *big.Int       `abi:"minTokenOut" json:"minTokenOut"`
	TokenRedeemSy common.Address `abi:"tokenRedeemSy" json:"tokenRedeemSy"`
	PendleSwap    common.Address `abi:"pendleSwap" json:"pendleSwap"`
	SwapData      SwapData       `abi:"swapData" json:"swapData"`
}

func NewTokenOutput(tokenOut common.Address, minTokenOut *big.Int, tokenRedeemSy, pendleSwap common.Address, swapData SwapData) TokenOutput {
	return TokenOutput{
		TokenOut:      tokenOut,
		MinTokenOut:   valueOrDefault(minTokenOut, big.NewInt(0)),
		TokenRedeemSy: tokenRedeemSy,
		PendleSwap:    pendleSwap,
		SwapData:      swapData,
	}
}

// Order mirrors the limit-order tuple the router's limit leg consumes. This
// agent never fills limit orders, so orders only appear inside the empty
// LimitOrderData default.
type Order struct {
	Salt          *big.Int       `abi:"salt" json:"salt"`
	Expiry        *big.Int       `abi:"expiry" json:"expiry"`
	Nonce         *big.Int       `abi:"nonce" json:"nonce"`
	OrderType     uint8          `abi:"orderType" json:"orderType"`
	Token         common.Address `abi:"token" json:"token"`
	YT            common.Address `abi:"YT" json:"yt"`
	Maker         common.Address `abi:"maker" json:"maker"`
	Receiver      common.Address `abi:"receiver" json:"receiver"`
	MakingAmount  *big.Int       `abi:"makingAmount" json:"makingAmount"`
	LnImpliedRate *big.Int       `abi:"lnImpliedRate" json:"lnImpliedRate"`
	FailSafeRate  *big.Int       `abi:"failSafeRate" json:"failSafeRate"`
	Permit        []byte         `abi:"permit" json:"permit"`
}

// FillOrderParams pairs an order with its signature and fill amount.
type FillOrderParams struct {
	Order        Order    `abi:"order" json:"order"`
	Signature    []byte   `abi:"signature" json:"signature"`
	MakingAmount *big.Int `abi:"makingAmount" json:"makingAmount"`
}

// LimitOrderData is the limit-order leg of a router call.
type LimitOrderData struct {
	LimitRouter   common.Address    `abi:"limitRouter" json:"limitRouter"`
	EpsSkipMarket *big.Int          `abi:"epsSkipMarket" json:"epsSkipMarket"`
	NormalFills   []FillOrderParams `abi:"normalFills" json:"normalFills"`
	FlashFills    []FillOrderParams `abi:"flashFills" json:"flashFills"`
	OptData       []byte            `abi:"optData" json:"optData"`
}

// EmptyLimitOrderData builds the fixed no-limit-order default: zero-address
// router, epsSkipMarket 0, no fills, empty optData. Callers never populate
// limit orders through this agent.
func EmptyLimitOrderData() LimitOrderData {
	return LimitOrderData{
		LimitRouter:   common.Address{},
		EpsSkipMarket: big.NewInt(0),
		NormalFills:   []FillOrderParams{},
		FlashFills:    []FillOrderParams{},
		OptData:       []byte{},
	}
}
