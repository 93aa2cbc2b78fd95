package transactions

import (
	"context"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type fakeEthClient struct {
	gasPrice        *big.Int
	nonce           uint64
	receipt         *gethtypes.Receipt
	receiptAfter    int // polls before the receipt appears
	receiptPolls    int
	sentTransaction *gethtypes.Transaction
	sendErr         error
}

func (f *fakeEthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeEthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeEthClient) SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTransaction = tx
	return nil
}

func (f *fakeEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error) {
	f.receiptPolls++
	if f.receipt == nil || f.receiptPolls <= f.receiptAfter {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func newTestTransactor(t *testing.T, client EthClient) *Transactor {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return NewTransactor(client, 421614, key)
}

func TestSendAndWaitSuccess(t *testing.T) {
	client := &fakeEthClient{
		gasPrice: big.NewInt(20_000_000_000),
		nonce:    7,
		receipt: &gethtypes.Receipt{
			Status:      gethtypes.ReceiptStatusSuccessful,
			GasUsed:     250_000,
			BlockNumber: big.NewInt(12345),
		},
	}
	transactor := newTestTransactor(t, client)

	receipt, hash, err := transactor.SendAndWait(context.Background(), TxParams{
		To:       common.HexToAddress("0x0987654321098765432109876543210987654321"),
		Data:     []byte{0x01, 0x02},
		GasLimit: 500_000,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(250_000), receipt.GasUsed)
	require.NotEqual(t, common.Hash{}, hash)

	require.NotNil(t, client.sentTransaction)
	require.Equal(t, uint64(7), client.sentTransaction.Nonce())
	require.Equal(t, uint64(500_000), client.sentTransaction.Gas())
	require.Equal(t, big.NewInt(0), client.sentTransaction.Value())
}

func TestSendAndWaitPollsUntilMined(t *testing.T) {
	client := &fakeEthClient{
		gasPrice:     big.NewInt(1),
		receiptAfter: 2,
		receipt: &gethtypes.Receipt{
			Status:      gethtypes.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(1),
		},
	}
	transactor := newTestTransactor(t, client)

	_, _, err := transactor.SendAndWait(context.Background(), TxParams{
		To:       common.Address{},
		GasLimit: 21_000,
	})
	require.NoError(t, err)
	require.Equal(t, 3, client.receiptPolls)
}

func TestSendAndWaitRevertedReceipt(t *testing.T) {
	client := &fakeEthClient{
		gasPrice: big.NewInt(1),
		receipt: &gethtypes.Receipt{
			Status:      gethtypes.ReceiptStatusFailed,
			BlockNumber: big.NewInt(1),
		},
	}
	transactor := newTestTransactor(t, client)

	_, hash, err := transactor.SendAndWait(context.Background(), TxParams{GasLimit: 21_000})
	var reverted *ErrTxReverted
	require.ErrorAs(t, err, &reverted)
	require.Equal(t, hash, reverted.Hash)
}

func TestSendAndWaitConfirmationTimeout(t *testing.T) {
	client := &fakeEthClient{gasPrice: big.NewInt(1)} // receipt never appears
	transactor := newTestTransactor(t, client)
	transactor.SetConfirmTimeout(10 * time.Millisecond)

	_, hash, err := transactor.SendAndWait(context.Background(), TxParams{GasLimit: 21_000})
	var pending *ErrTxPending
	require.ErrorAs(t, err, &pending)
	require.Equal(t, hash, pending.Hash)
}

func TestSendAndWaitSubmitFailure(t *testing.T) {
	client := &fakeEthClient{
		gasPrice: big.NewInt(1),
		sendErr:  ethereum.NotFound,
	}
	transactor := newTestTransactor(t, client)

	_, _, err := transactor.SendAndWait(context.Background(), TxParams{GasLimit: 21_000})
	require.Error(t, err)
	require.Zero(t, client.receiptPolls)
}
