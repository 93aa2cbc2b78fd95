package yield

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/pendle-tools/pendle-agent/account"
	"github.com/pendle-tools/pendle-agent/protocolerrors"
	"github.com/pendle-tools/pendle-agent/transactions"
)

type fakeSender struct {
	calls   int
	gotTo   common.Address
	gotData []byte
	gotGas  uint64
	receipt *gethtypes.Receipt
	hash    common.Hash
	err     error
}

func (s *fakeSender) SendAndWait(ctx context.Context, params transactions.TxParams) (*gethtypes.Receipt, common.Hash, error) {
	s.calls++
	s.gotTo = params.To
	s.gotData = params.Data
	s.gotGas = params.GasLimit
	return s.receipt, s.hash, s.err
}

var (
	testRouterAddr = common.HexToAddress("0x888888888889758F76e7103c6CbF23ABbF58F946")
	testReceiver   = common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")
	testMarketAddr = common.HexToAddress("0x27b1dacd74688aF24a64BD3C9C1B143118740784")
)

func newTestExecutor(t *testing.T, sender TxSender, router *common.Address) *Executor {
	t.Helper()
	executor, err := NewExecutor(sender, router)
	require.NoError(t, err)
	return executor
}

func TestExecutorUnavailableWithoutRouter(t *testing.T) {
	sender := &fakeSender{}
	executor := newTestExecutor(t, sender, nil)
	require.False(t, executor.Available())

	result, err := executor.MintPyFromSy(context.Background(), testReceiver, testMarketAddr, big.NewInt(1), big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, StatusUnavailable, result.Status)
	require.NotEmpty(t, result.Reason)
	require.Zero(t, sender.calls, "unavailable operations must not touch the chain")
}

func TestExecutorNilSenderWithBoundRouter(t *testing.T) {
	executor := newTestExecutor(t, nil, &testRouterAddr)

	result, err := executor.MintPyFromSy(context.Background(), testReceiver, testMarketAddr, big.NewInt(1), big.NewInt(0))
	require.Nil(t, result)
	require.True(t, protocolerrors.IsKind(err, protocolerrors.KindInvalidParameters))
	require.ErrorIs(t, err, account.ErrNoWalletKey)
}

func TestExecutorSuccessResult(t *testing.T) {
	hash := common.HexToHash("0xabc123")
	sender := &fakeSender{
		receipt: &gethtypes.Receipt{
			Status:      gethtypes.ReceiptStatusSuccessful,
			GasUsed:     180_000,
			BlockNumber: big.NewInt(19_000_000),
		},
		hash: hash,
	}
	executor := newTestExecutor(t, sender, &testRouterAddr)

	result, err := executor.AddLiquiditySingleSy(context.Background(),
		testReceiver, testMarketAddr, big.NewInt(1_000_000), big.NewInt(0), NewDefaultApproxParams())
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, hash.Hex(), result.TransactionHash)
	require.Equal(t, uint64(180_000), result.GasUsed)
	require.Equal(t, uint64(19_000_000), result.BlockNumber)

	require.Equal(t, testRouterAddr, sender.gotTo)
	require.Equal(t, uint64(gasLimitLiquidity), sender.gotGas)
	require.NotEmpty(t, sender.gotData)
}

func TestExecutorGasLimitsPerFamily(t *testing.T) {
	sender := &fakeSender{
		receipt: &gethtypes.Receipt{Status: gethtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1)},
	}
	executor := newTestExecutor(t, sender, &testRouterAddr)

	_, err := executor.RemoveLiquidityDualSyAndPt(context.Background(),
		testReceiver, testMarketAddr, big.NewInt(10), big.NewInt(0), big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, uint64(gasLimitLiquidity), sender.gotGas)

	_, err = executor.RedeemPyToSy(context.Background(), testReceiver, testMarketAddr, big.NewInt(10), big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, uint64(gasLimitPY), sender.gotGas)
}

func TestExecutorPendingTimeoutYieldsPendingResult(t *testing.T) {
	hash := common.HexToHash("0xdeadbeef")
	sender := &fakeSender{err: &transactions.ErrTxPending{Hash: hash}}
	executor := newTestExecutor(t, sender, &testRouterAddr)

	result, err := executor.AddLiquidityDualSyAndPt(context.Background(),
		testReceiver, testMarketAddr, big.NewInt(1), big.NewInt(1), big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, StatusPending, result.Status)
	require.Equal(t, hash.Hex(), result.TransactionHash)
}

func TestExecutorClassifiesRevertReasons(t *testing.T) {
	sender := &fakeSender{err: errors.New("execution reverted: MarketExpired")}
	executor := newTestExecutor(t, sender, &testRouterAddr)

	result, err := executor.RemoveLiquiditySingleSy(context.Background(),
		testReceiver, testMarketAddr, big.NewInt(10), big.NewInt(0))
	require.Nil(t, result)
	require.True(t, protocolerrors.IsKind(err, protocolerrors.KindMarketExpired))
}

func TestExecutorClassifiesTransportErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("dial tcp: connection refused")}
	executor := newTestExecutor(t, sender, &testRouterAddr)

	result, err := executor.MintPyFromSy(context.Background(), testReceiver, testMarketAddr, big.NewInt(1), big.NewInt(0))
	require.Nil(t, result)
	require.Error(t, err)
	var classified *protocolerrors.Error
	require.ErrorAs(t, err, &classified)
}

func TestExecutorPacksAllOperations(t *testing.T) {
	sender := &fakeSender{
		receipt: &gethtypes.Receipt{Status: gethtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1)},
	}
	executor := newTestExecutor(t, sender, &testRouterAddr)
	ctx := context.Background()
	approx := NewDefaultApproxParams()
	amount := big.NewInt(1_000_000)
	zero := big.NewInt(0)

	input := NewTokenInput(common.HexToAddress("0x01"), amount, common.HexToAddress("0x01"),
		common.Address{}, NewSwapData(SwapTypeNone, common.Address{}, nil, false))
	output := NewTokenOutput(common.HexToAddress("0x02"), zero, common.HexToAddress("0x02"),
		common.Address{}, NewSwapData(SwapTypeNone, common.Address{}, nil, false))

	operations := []func() (*TxResult, error){
		func() (*TxResult, error) {
			return executor.AddLiquidityDualSyAndPt(ctx, testReceiver, testMarketAddr, amount, amount, zero)
		},
		func() (*TxResult, error) {
			return executor.AddLiquiditySingleSy(ctx, testReceiver, testMarketAddr, amount, zero, approx)
		},
		func() (*TxResult, error) {
			return executor.AddLiquiditySinglePt(ctx, testReceiver, testMarketAddr, amount, zero, approx)
		},
		func() (*TxResult, error) {
			return executor.AddLiquiditySingleToken(ctx, testReceiver, testMarketAddr, zero, approx, input)
		},
		func() (*TxResult, error) {
			return executor.RemoveLiquidityDualSyAndPt(ctx, testReceiver, testMarketAddr, amount, zero, zero)
		},
		func() (*TxResult, error) {
			return executor.RemoveLiquiditySingleSy(ctx, testReceiver, testMarketAddr, amount, zero)
		},
		func() (*TxResult, error) {
			return executor.RemoveLiquiditySingleToken(ctx, testReceiver, testMarketAddr, amount, output)
		},
		func() (*TxResult, error) {
			return executor.MintPyFromSy(ctx, testReceiver, testMarketAddr, amount, zero)
		},
		func() (*TxResult, error) {
			return executor.RedeemPyToSy(ctx, testReceiver, testMarketAddr, amount, zero)
		},
	}

	seen := make(map[string]bool)
	for i, operation := range operations {
		result, err := operation()
		require.NoError(t, err, "operation %d", i)
		require.Equal(t, StatusSuccess, result.Status, "operation %d", i)
		require.GreaterOrEqual(t, len(sender.gotData), 4, "operation %d", i)
		selector := common.Bytes2Hex(sender.gotData[:4])
		require.False(t, seen[selector], "operation %d reused selector %s", i, selector)
		seen[selector] = true
	}
	require.Equal(t, len(operations), sender.calls)
}
