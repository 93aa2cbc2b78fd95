package yield

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/pendle-tools/pendle-agent/account"
	"github.com/pendle-tools/pendle-agent/bigint"
	"github.com/pendle-tools/pendle-agent/contracts/router"
	"github.com/pendle-tools/pendle-agent/params"
	"github.com/pendle-tools/pendle-agent/protocolerrors"
	"github.com/pendle-tools/pendle-agent/thirdparty/pendleapi"
)

// API exposes the yield namespace over rpc. Every method takes and returns
// JSON-serializable values only; amounts travel as decimal strings.
type API struct {
	executor       *Executor
	client         *pendleapi.Client
	accountManager *account.Manager
	balanceReader  account.BalanceReader
	config         *params.Config
	log            log.Logger
}

func NewAPI(executor *Executor, client *pendleapi.Client, accountManager *account.Manager, balanceReader account.BalanceReader, config *params.Config) *API {
	return &API{
		executor:       executor,
		client:         client,
		accountManager: accountManager,
		balanceReader:  balanceReader,
		config:         config,
		log:            log.New("package", "pendle-agent/yield.API"),
	}
}

func (api *API) wallet() (*account.Manager, error) {
	if api.accountManager == nil {
		return nil, account.ErrNoWalletKey
	}
	return api.accountManager, nil
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, protocolerrors.New(protocolerrors.KindInvalidParameters,
			fmt.Sprintf("%s is not a valid address: %q", name, value))
	}
	return common.HexToAddress(value), nil
}

// optionalAddress parses value when given, otherwise returns fallback.
func optionalAddress(name, value string, fallback common.Address) (common.Address, error) {
	if value == "" {
		return fallback, nil
	}
	return parseAddress(name, value)
}

func requireAmount(name string, value *bigint.BigInt) (*big.Int, error) {
	if value == nil || value.Int == nil {
		return nil, protocolerrors.New(protocolerrors.KindInvalidParameters,
			fmt.Sprintf("%s is required", name))
	}
	if value.Int.Sign() < 0 {
		return nil, protocolerrors.New(protocolerrors.KindInvalidParameters,
			fmt.Sprintf("%s must not be negative", name))
	}
	return value.Int, nil
}

func optionalAmount(value *bigint.BigInt) *big.Int {
	if value == nil || value.Int == nil {
		return big.NewInt(0)
	}
	return value.Int
}

// ApproxOverrides carries optional caller bounds for the router's on-chain
// approximation; absent fields take the documented defaults.
type ApproxOverrides struct {
	GuessMin      *bigint.BigInt `json:"guessMin,omitempty"`
	GuessMax      *bigint.BigInt `json:"guessMax,omitempty"`
	GuessOffchain *bigint.BigInt `json:"guessOffchain,omitempty"`
	MaxIteration  *bigint.BigInt `json:"maxIteration,omitempty"`
	Eps           *bigint.BigInt `json:"eps,omitempty"`
}

func (o *ApproxOverrides) toApproxParams() ApproxParams {
	if o == nil {
		return NewDefaultApproxParams()
	}
	unwrap := func(b *bigint.BigInt) *big.Int {
		if b == nil {
			return nil
		}
		return b.Int
	}
	return NewApproxParams(unwrap(o.GuessMin), unwrap(o.GuessMax),
		unwrap(o.GuessOffchain), unwrap(o.MaxIteration), unwrap(o.Eps))
}

// WalletInfo is the rpc view of the signing wallet.
type WalletInfo struct {
	Address        string `json:"address"`
	Balance        string `json:"balance"`
	Network        string `json:"network"`
	ChainID        uint64 `json:"chainId"`
	RouterDeployed bool   `json:"routerDeployed"`
}

// GetWalletInfo reports the wallet address, native balance and network
// binding.
func (api *API) GetWalletInfo(ctx context.Context) (*WalletInfo, error) {
	wallet, err := api.wallet()
	if err != nil {
		return nil, err
	}
	balance, err := wallet.Balance(ctx, api.balanceReader)
	if err != nil {
		return nil, protocolerrors.Classify(err)
	}
	return &WalletInfo{
		Address:        wallet.Address().Hex(),
		Balance:        balance.String(),
		Network:        api.config.Network.Name,
		ChainID:        api.config.Network.ChainID,
		RouterDeployed: api.config.RouterDeployed(),
	}, nil
}

// SwapTypeNames returns the router's aggregator ordinal table.
func (api *API) SwapTypeNames() map[string]int {
	return SwapTypeNames()
}

// SupportedChains returns the chains the hosted SDK serves.
func (api *API) SupportedChains() map[string]uint64 {
	return params.SupportedChains
}

// ContractInfo describes the router binding per chain.
type ContractInfo struct {
	ActiveNetwork  string            `json:"activeNetwork"`
	ActiveChainID  uint64            `json:"activeChainId"`
	RouterAddress  string            `json:"routerAddress,omitempty"`
	RouterDeployed bool              `json:"routerDeployed"`
	RouterByChain  map[string]string `json:"routerByChain"`
}

// GetContractInfo reports the router address on the active network and on
// every hosted-SDK chain.
func (api *API) GetContractInfo() *ContractInfo {
	info := &ContractInfo{
		ActiveNetwork:  api.config.Network.Name,
		ActiveChainID:  api.config.Network.ChainID,
		RouterDeployed: api.config.RouterDeployed(),
		RouterByChain:  make(map[string]string),
	}
	if api.config.RouterAddress != nil {
		info.RouterAddress = api.config.RouterAddress.Hex()
	}
	for name, chainID := range params.SupportedChains {
		if addr, err := router.RouterContractAddress(chainID); err == nil {
			info.RouterByChain[name] = addr.Hex()
		}
	}
	return info
}

// receiverOrWallet resolves an optional receiver argument, defaulting to the
// signing wallet.
func (api *API) receiverOrWallet(receiver string) (common.Address, error) {
	if receiver != "" {
		return parseAddress("receiver", receiver)
	}
	wallet, err := api.wallet()
	if err != nil {
		return common.Address{}, err
	}
	return wallet.Address(), nil
}

// ---- Direct-chain operations (signed by the local wallet) ----

// AddLiquidityDualSyAndPt supplies both SY and PT to a market on the active
// network.
func (api *API) AddLiquidityDualSyAndPt(ctx context.Context, market string, netSyDesired, netPtDesired, minLpOut *bigint.BigInt) (*TxResult, error) {
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	netSy, err := requireAmount("netSyDesired", netSyDesired)
	if err != nil {
		return nil, err
	}
	netPt, err := requireAmount("netPtDesired", netPtDesired)
	if err != nil {
		return nil, err
	}
	return api.executor.AddLiquidityDualSyAndPt(ctx, receiver, marketAddr, netSy, netPt, optionalAmount(minLpOut))
}

// AddLiquiditySingleSy supplies SY only.
func (api *API) AddLiquiditySingleSy(ctx context.Context, market string, netSyIn, minLpOut *bigint.BigInt, approx *ApproxOverrides) (*TxResult, error) {
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	netSy, err := requireAmount("netSyIn", netSyIn)
	if err != nil {
		return nil, err
	}
	return api.executor.AddLiquiditySingleSy(ctx, receiver, marketAddr, netSy, optionalAmount(minLpOut), approx.toApproxParams())
}

// AddLiquiditySinglePt supplies PT only.
func (api *API) AddLiquiditySinglePt(ctx context.Context, market string, netPtIn, minLpOut *bigint.BigInt, approx *ApproxOverrides) (*TxResult, error) {
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	netPt, err := requireAmount("netPtIn", netPtIn)
	if err != nil {
		return nil, err
	}
	return api.executor.AddLiquiditySinglePt(ctx, receiver, marketAddr, netPt, optionalAmount(minLpOut), approx.toApproxParams())
}

// AddLiquiditySingleToken supplies an arbitrary token, converted to SY
// first. swapType selects the external aggregator for the conversion leg
// (0 = none); tokenMintSy defaults to tokenIn and pendleSwap to the zero
// address when the leg needs no routing.
func (api *API) AddLiquiditySingleToken(ctx context.Context, market, tokenIn string, netTokenIn, minLpOut *bigint.BigInt, swapType int, tokenMintSy, pendleSwap string, approx *ApproxOverrides) (*TxResult, error) {
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := parseAddress("tokenIn", tokenIn)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	amount, err := requireAmount("netTokenIn", netTokenIn)
	if err != nil {
		return nil, err
	}
	selected, err := SwapTypeFromInt(swapType)
	if err != nil {
		return nil, err
	}
	mintSyAddr, err := optionalAddress("tokenMintSy", tokenMintSy, tokenAddr)
	if err != nil {
		return nil, err
	}
	swapAddr, err := optionalAddress("pendleSwap", pendleSwap, common.Address{})
	if err != nil {
		return nil, err
	}
	input := NewTokenInput(tokenAddr, amount, mintSyAddr, swapAddr,
		NewSwapData(selected, swapAddr, nil, false))
	return api.executor.AddLiquiditySingleToken(ctx, receiver, marketAddr, optionalAmount(minLpOut), approx.toApproxParams(), input)
}

// RemoveLiquidityDualSyAndPt redeems LP into both SY and PT.
func (api *API) RemoveLiquidityDualSyAndPt(ctx context.Context, market string, netLpToRemove, minSyOut, minPtOut *bigint.BigInt) (*TxResult, error) {
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	netLp, err := requireAmount("netLpToRemove", netLpToRemove)
	if err != nil {
		return nil, err
	}
	return api.executor.RemoveLiquidityDualSyAndPt(ctx, receiver, marketAddr, netLp, optionalAmount(minSyOut), optionalAmount(minPtOut))
}

// RemoveLiquiditySingleSy redeems LP into SY only.
func (api *API) RemoveLiquiditySingleSy(ctx context.Context, market string, netLpToRemove, minSyOut *bigint.BigInt) (*TxResult, error) {
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	netLp, err := requireAmount("netLpToRemove", netLpToRemove)
	if err != nil {
		return nil, err
	}
	return api.executor.RemoveLiquiditySingleSy(ctx, receiver, marketAddr, netLp, optionalAmount(minSyOut))
}

// RemoveLiquiditySingleToken redeems LP into a single output token.
// swapType selects the external aggregator for the SY-to-token leg (0 =
// none); tokenRedeemSy defaults to tokenOut and pendleSwap to the zero
// address.
func (api *API) RemoveLiquiditySingleToken(ctx context.Context, market, tokenOut string, netLpToRemove, minTokenOut *bigint.BigInt, swapType int, tokenRedeemSy, pendleSwap string) (*TxResult, error) {
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := parseAddress("tokenOut", tokenOut)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	netLp, err := requireAmount("netLpToRemove", netLpToRemove)
	if err != nil {
		return nil, err
	}
	selected, err := SwapTypeFromInt(swapType)
	if err != nil {
		return nil, err
	}
	redeemSyAddr, err := optionalAddress("tokenRedeemSy", tokenRedeemSy, tokenAddr)
	if err != nil {
		return nil, err
	}
	swapAddr, err := optionalAddress("pendleSwap", pendleSwap, common.Address{})
	if err != nil {
		return nil, err
	}
	output := NewTokenOutput(tokenAddr, optionalAmount(minTokenOut), redeemSyAddr, swapAddr,
		NewSwapData(selected, swapAddr, nil, false))
	return api.executor.RemoveLiquiditySingleToken(ctx, receiver, marketAddr, netLp, output)
}

// MintPyFromSy splits SY into PT and YT through the given YT contract.
func (api *API) MintPyFromSy(ctx context.Context, yt string, netSyIn, minPyOut *bigint.BigInt) (*TxResult, error) {
	ytAddr, err := parseAddress("yt", yt)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	netSy, err := requireAmount("netSyIn", netSyIn)
	if err != nil {
		return nil, err
	}
	return api.executor.MintPyFromSy(ctx, receiver, ytAddr, netSy, optionalAmount(minPyOut))
}

// RedeemPyToSy recombines PT and YT back into SY.
func (api *API) RedeemPyToSy(ctx context.Context, yt string, netPyIn, minSyOut *bigint.BigInt) (*TxResult, error) {
	ytAddr, err := parseAddress("yt", yt)
	if err != nil {
		return nil, err
	}
	receiver, err := api.receiverOrWallet("")
	if err != nil {
		return nil, err
	}
	netPy, err := requireAmount("netPyIn", netPyIn)
	if err != nil {
		return nil, err
	}
	return api.executor.RedeemPyToSy(ctx, receiver, ytAddr, netPy, optionalAmount(minSyOut))
}

// ---- Hosted conversion wrappers (transaction payloads, not signed) ----

// ConvertSwap prepares a market swap through the hosted SDK. An empty
// receiver defaults to the signing wallet.
func (api *API) ConvertSwap(ctx context.Context, chainID uint64, market, receiver, tokenIn, tokenOut, amountIn string, slippage float64) (*pendleapi.SwapResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertSwap(ctx, chainID, market, to.Hex(), tokenIn, tokenOut, amountIn, slippage)
}

func (api *API) ConvertAddLiquidity(ctx context.Context, chainID uint64, market, receiver, tokenIn, amountIn string, slippage float64) (*pendleapi.AddLiquidityResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertAddLiquidity(ctx, chainID, market, to.Hex(), tokenIn, amountIn, slippage)
}

func (api *API) ConvertAddLiquidityZPI(ctx context.Context, chainID uint64, market, receiver, tokenIn, amountIn string, slippage float64) (*pendleapi.AddLiquidityResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertAddLiquidityZPI(ctx, chainID, market, to.Hex(), tokenIn, amountIn, slippage)
}

func (api *API) ConvertAddLiquidityDual(ctx context.Context, chainID uint64, market, receiver, amountToken, amountPt string, slippage float64) (*pendleapi.AddLiquidityDualResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertAddLiquidityDual(ctx, chainID, market, to.Hex(), amountToken, amountPt, slippage)
}

func (api *API) ConvertRemoveLiquidity(ctx context.Context, chainID uint64, market, receiver, amountLp, tokenOut string, slippage float64) (*pendleapi.RemoveLiquidityResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertRemoveLiquidity(ctx, chainID, market, to.Hex(), amountLp, tokenOut, slippage)
}

func (api *API) ConvertRemoveLiquidityDual(ctx context.Context, chainID uint64, market, receiver, amountLp string, slippage float64) (*pendleapi.RemoveLiquidityDualResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertRemoveLiquidityDual(ctx, chainID, market, to.Hex(), amountLp, slippage)
}

func (api *API) ConvertMintPtYt(ctx context.Context, chainID uint64, market, receiver, tokenIn, amountIn string, slippage float64) (*pendleapi.MintPtYtResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertMintPtYt(ctx, chainID, market, to.Hex(), tokenIn, amountIn, slippage)
}

func (api *API) ConvertRedeemPtYt(ctx context.Context, chainID uint64, market, receiver, amountPt, tokenOut string, slippage float64) (*pendleapi.RedeemPtYtResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertRedeemPtYt(ctx, chainID, market, to.Hex(), amountPt, tokenOut, slippage)
}

func (api *API) ConvertMintSy(ctx context.Context, chainID uint64, sy, receiver, tokenIn, amountIn string, slippage float64) (*pendleapi.MintSyResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertMintSy(ctx, chainID, sy, to.Hex(), tokenIn, amountIn, slippage)
}

func (api *API) ConvertRedeemSy(ctx context.Context, chainID uint64, sy, receiver, amountSy, tokenOut string, slippage float64) (*pendleapi.RedeemSyResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertRedeemSy(ctx, chainID, sy, to.Hex(), amountSy, tokenOut, slippage)
}

func (api *API) ConvertRolloverPt(ctx context.Context, chainID uint64, fromMarket, toMarket, receiver, amountPt string, slippage float64) (*pendleapi.RolloverResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertRolloverPt(ctx, chainID, fromMarket, toMarket, to.Hex(), amountPt, slippage)
}

func (api *API) ConvertTransferLiquidity(ctx context.Context, chainID uint64, fromMarket, toMarket, receiver, amountLp string, slippage float64) (*pendleapi.TransferLiquidityResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertTransferLiquidity(ctx, chainID, fromMarket, toMarket, to.Hex(), amountLp, slippage)
}

func (api *API) ConvertTransferLiquidityZPI(ctx context.Context, chainID uint64, fromMarket, toMarket, receiver, amountLp string, slippage float64) (*pendleapi.TransferLiquidityResult, error) {
	to, err := api.receiverOrWallet(receiver)
	if err != nil {
		return nil, err
	}
	return api.client.ConvertTransferLiquidityZPI(ctx, chainID, fromMarket, toMarket, to.Hex(), amountLp, slippage)
}

// ---- Hosted analytics wrappers ----

// defaultChainIDs returns every supported chain in ascending chain-id
// order, so the default batch grouping is stable across calls.
func defaultChainIDs() []uint64 {
	chainIDs := make([]uint64, 0, len(params.SupportedChains))
	for _, chainID := range params.SupportedChains {
		chainIDs = append(chainIDs, chainID)
	}
	sort.Slice(chainIDs, func(i, j int) bool { return chainIDs[i] < chainIDs[j] })
	return chainIDs
}

// GetMarketsBatch aggregates markets across chains; an empty chain list
// defaults to every supported chain.
func (api *API) GetMarketsBatch(ctx context.Context, chainIDs []uint64, limit int) *pendleapi.MarketsBatchResult {
	if len(chainIDs) == 0 {
		chainIDs = defaultChainIDs()
	}
	if limit <= 0 {
		limit = 20
	}
	return api.client.GetMarketsBatch(ctx, chainIDs, limit)
}

func (api *API) GetBestOpportunities(ctx context.Context, chainID uint64, minLiquidity float64) (*pendleapi.OpportunitiesResult, error) {
	return api.client.GetBestOpportunities(ctx, chainID, minLiquidity)
}

func (api *API) GetMarketDepth(ctx context.Context, chainID uint64, market string) (*pendleapi.MarketDepth, error) {
	return api.client.GetMarketDepth(ctx, chainID, market)
}

func (api *API) SimulateStrategy(ctx context.Context, chainID uint64, market string, investment float64, strategy string) (*pendleapi.SimulationResult, error) {
	return api.client.SimulateStrategy(ctx, chainID, market, investment, strategy)
}

func (api *API) GetTrendingMarkets(ctx context.Context, chainID uint64, period string) (*pendleapi.TrendingResult, error) {
	return api.client.GetTrendingMarkets(ctx, chainID, period)
}

func (api *API) GetProtocolRevenue(ctx context.Context, chainID uint64) (*pendleapi.RevenueResult, error) {
	return api.client.GetProtocolRevenue(ctx, chainID)
}
