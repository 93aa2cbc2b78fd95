package transactions

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v3"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

const (
	// defaultConfirmTimeout bounds the post-submission receipt wait.
	defaultConfirmTimeout = 300 * time.Second

	receiptPollInterval = time.Second
	receiptPollMaxGap   = 10 * time.Second
)

// EthClient is the chain connection surface the transactor needs. The
// production implementation is *ethclient.Client.
type EthClient interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
}

// TxParams describes one contract call to submit.
type TxParams struct {
	To       common.Address
	Data     []byte
	GasLimit uint64
	Value    *big.Int
}

// ErrTxPending reports a submitted transaction that was not confirmed within
// the transactor's timeout. The transaction may still be mined later.
type ErrTxPending struct {
	Hash common.Hash
}

func (e *ErrTxPending) Error() string {
	return fmt.Sprintf("transaction %s was not confirmed within the timeout", e.Hash.Hex())
}

// ErrTxReverted reports an on-chain revert observed in the receipt.
type ErrTxReverted struct {
	Hash common.Hash
}

func (e *ErrTxReverted) Error() string {
	return fmt.Sprintf("transaction %s reverted", e.Hash.Hex())
}

// Transactor builds, signs and submits transactions, then waits for
// confirmation. The signing key and chain id are read-only after creation;
// one transaction is in flight per call.
type Transactor struct {
	client         EthClient
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	from           common.Address
	confirmTimeout time.Duration
	log            log.Logger
}

func NewTransactor(client EthClient, chainID uint64, key *ecdsa.PrivateKey) *Transactor {
	return &Transactor{
		client:         client,
		chainID:        new(big.Int).SetUint64(chainID),
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		confirmTimeout: defaultConfirmTimeout,
		log:            log.New("package", "pendle-agent/transactions.Transactor"),
	}
}

// SetConfirmTimeout overrides the receipt wait bound.
func (t *Transactor) SetConfirmTimeout(timeout time.Duration) {
	if timeout > 0 {
		t.confirmTimeout = timeout
	}
}

func (t *Transactor) From() common.Address {
	return t.from
}

// SendAndWait signs and submits one call and blocks until the receipt is
// observed or the confirmation timeout elapses. A reverted receipt is an
// error, never a success-shaped return.
func (t *Transactor) SendAndWait(ctx context.Context, params TxParams) (*gethtypes.Receipt, common.Hash, error) {
	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, common.Hash{}, err
	}

	nonce, err := t.client.PendingNonceAt(ctx, t.from)
	if err != nil {
		return nil, common.Hash{}, err
	}

	value := params.Value
	if value == nil {
		value = big.NewInt(0)
	}

	to := params.To
	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      params.GasLimit,
		To:       &to,
		Value:    value,
		Data:     params.Data,
	})

	signedTx, err := gethtypes.SignTx(tx, gethtypes.NewLondonSigner(t.chainID), t.key)
	if err != nil {
		return nil, common.Hash{}, err
	}

	hash := signedTx.Hash()
	t.log.Info("Submitting transaction",
		"From", t.from,
		"To", to,
		"Gas", params.GasLimit,
		"GasPrice", gasPrice,
		"Nonce", nonce,
	)

	if err := t.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, hash, err
	}

	receipt, err := t.waitMined(ctx, hash)
	if err != nil {
		return nil, hash, err
	}
	if receipt.Status == gethtypes.ReceiptStatusFailed {
		return nil, hash, &ErrTxReverted{Hash: hash}
	}
	return receipt, hash, nil
}

// waitMined polls for the receipt with exponential backoff until the
// confirmation timeout elapses. A receipt that has simply not appeared yet
// keeps polling; any other lookup failure is terminal.
func (t *Transactor) waitMined(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = receiptPollInterval
	bo.MaxInterval = receiptPollMaxGap
	bo.MaxElapsedTime = t.confirmTimeout

	var receipt *gethtypes.Receipt
	err := backoff.Retry(func() error {
		r, err := t.client.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		receipt = r
		return nil
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		if errors.Is(err, ethereum.NotFound) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &ErrTxPending{Hash: hash}
		}
		return nil, err
	}
	return receipt, nil
}
