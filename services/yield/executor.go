package yield

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/pendle-tools/pendle-agent/account"
	"github.com/pendle-tools/pendle-agent/contracts/router"
	"github.com/pendle-tools/pendle-agent/protocolerrors"
	"github.com/pendle-tools/pendle-agent/transactions"
)

// Gas limits are fixed per operation family; estimation is skipped because
// approximation-heavy router calls estimate poorly on some networks.
const (
	gasLimitLiquidity = 500_000
	gasLimitPY        = 300_000
)

const (
	StatusSuccess     = "success"
	StatusPending     = "pending"
	StatusUnavailable = "unavailable"
)

// TxResult is the normalized outcome of a direct-chain operation. A result
// is only "success" after a confirmed receipt; failures surface as
// classified errors, never as a success-shaped value.
type TxResult struct {
	Status          string `json:"status"`
	TransactionHash string `json:"transactionHash,omitempty"`
	GasUsed         uint64 `json:"gasUsed,omitempty"`
	BlockNumber     uint64 `json:"blockNumber,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// TxSender is the transaction pipeline surface the executor needs.
type TxSender interface {
	SendAndWait(ctx context.Context, params transactions.TxParams) (*gethtypes.Receipt, common.Hash, error)
}

// Executor assembles router call data and drives it through the transaction
// pipeline. routerAddress is nil when the contract is not deployed on the
// active network; every operation then returns a structured unavailable
// result without touching the chain.
type Executor struct {
	sender        TxSender
	routerAddress *common.Address
	routerABI     abi.ABI
	log           log.Logger
}

func NewExecutor(sender TxSender, routerAddress *common.Address) (*Executor, error) {
	parsed, err := router.Parsed()
	if err != nil {
		return nil, err
	}
	return &Executor{
		sender:        sender,
		routerAddress: routerAddress,
		routerABI:     parsed,
		log:           log.New("package", "pendle-agent/yield.Executor"),
	}, nil
}

// Available reports whether the router contract is bound.
func (e *Executor) Available() bool {
	return e.routerAddress != nil
}

func unavailableResult() *TxResult {
	return &TxResult{
		Status: StatusUnavailable,
		Reason: "router contract is not deployed on the active network",
	}
}

// execute packs the call in the router's positional argument order, submits
// it and normalizes the outcome.
func (e *Executor) execute(ctx context.Context, method string, gasLimit uint64, args ...interface{}) (*TxResult, error) {
	if e.routerAddress == nil {
		e.log.Warn("Operation skipped, router not deployed", "method", method)
		return unavailableResult(), nil
	}
	if e.sender == nil {
		return nil, protocolerrors.Wrap(protocolerrors.KindInvalidParameters,
			account.ErrNoWalletKey.Error(), account.ErrNoWalletKey)
	}

	data, err := e.routerABI.Pack(method, args...)
	if err != nil {
		return nil, protocolerrors.Classify(err)
	}

	receipt, hash, err := e.sender.SendAndWait(ctx, transactions.TxParams{
		To:       *e.routerAddress,
		Data:     data,
		GasLimit: gasLimit,
	})

	var pending *transactions.ErrTxPending
	if errors.As(err, &pending) {
		e.log.Warn("Transaction still pending after timeout", "method", method, "hash", pending.Hash)
		return &TxResult{Status: StatusPending, TransactionHash: pending.Hash.Hex()}, nil
	}
	if err != nil {
		return nil, protocolerrors.Classify(err)
	}

	return &TxResult{
		Status:          StatusSuccess,
		TransactionHash: hash.Hex(),
		GasUsed:         receipt.GasUsed,
		BlockNumber:     receipt.BlockNumber.Uint64(),
	}, nil
}

// AddLiquidityDualSyAndPt supplies both SY and PT to a market.
func (e *Executor) AddLiquidityDualSyAndPt(ctx context.Context, receiver, market common.Address, netSyDesired, netPtDesired, minLpOut *big.Int) (*TxResult, error) {
	return e.execute(ctx, "addLiquidityDualSyAndPt", gasLimitLiquidity,
		receiver, market, netSyDesired, netPtDesired, minLpOut)
}

// AddLiquiditySingleSy supplies SY only; the router approximates the PT swap.
func (e *Executor) AddLiquiditySingleSy(ctx context.Context, receiver, market common.Address, netSyIn, minLpOut *big.Int, approx ApproxParams) (*TxResult, error) {
	return e.execute(ctx, "addLiquiditySingleSy", gasLimitLiquidity,
		receiver, market, netSyIn, minLpOut, approx, EmptyLimitOrderData())
}

// AddLiquiditySinglePt supplies PT only; the router approximates the SY swap.
func (e *Executor) AddLiquiditySinglePt(ctx context.Context, receiver, market common.Address, netPtIn, minLpOut *big.Int, approx ApproxParams) (*TxResult, error) {
	return e.execute(ctx, "addLiquiditySinglePt", gasLimitLiquidity,
		receiver, market, netPtIn, minLpOut, approx, EmptyLimitOrderData())
}

// AddLiquiditySingleToken converts an arbitrary token to SY first.
func (e *Executor) AddLiquiditySingleToken(ctx context.Context, receiver, market common.Address, minLpOut *big.Int, approx ApproxParams, input TokenInput) (*TxResult, error) {
	return e.execute(ctx, "addLiquiditySingleToken", gasLimitLiquidity,
		receiver, market, minLpOut, approx, input, EmptyLimitOrderData())
}

// RemoveLiquidityDualSyAndPt redeems LP into both SY and PT.
func (e *Executor) RemoveLiquidityDualSyAndPt(ctx context.Context, receiver, market common.Address, netLpToRemove, minSyOut, minPtOut *big.Int) (*TxResult, error) {
	return e.execute(ctx, "removeLiquidityDualSyAndPt", gasLimitLiquidity,
		receiver, market, netLpToRemove, minSyOut, minPtOut)
}

// RemoveLiquiditySingleSy redeems LP into SY only.
func (e *Executor) RemoveLiquiditySingleSy(ctx context.Context, receiver, market common.Address, netLpToRemove, minSyOut *big.Int) (*TxResult, error) {
	return e.execute(ctx, "removeLiquiditySingleSy", gasLimitLiquidity,
		receiver, market, netLpToRemove, minSyOut, EmptyLimitOrderData())
}

// RemoveLiquiditySingleToken redeems LP into a single output token.
func (e *Executor) RemoveLiquiditySingleToken(ctx context.Context, receiver, market common.Address, netLpToRemove *big.Int, output TokenOutput) (*TxResult, error) {
	return e.execute(ctx, "removeLiquiditySingleToken", gasLimitLiquidity,
		receiver, market, netLpToRemove, output, EmptyLimitOrderData())
}

// MintPyFromSy splits SY into PT and YT.
func (e *Executor) MintPyFromSy(ctx context.Context, receiver, yt common.Address, netSyIn, minPyOut *big.Int) (*TxResult, error) {
	return e.execute(ctx, "mintPyFromSy", gasLimitPY,
		receiver, yt, netSyIn, minPyOut)
}

// RedeemPyToSy recombines PT and YT back into SY.
func (e *Executor) RedeemPyToSy(ctx context.Context, receiver, yt common.Address, netPyIn, minSyOut *big.Int) (*TxResult, error) {
	return e.execute(ctx, "redeemPyToSy", gasLimitPY,
		receiver, yt, netPyIn, minSyOut)
}
