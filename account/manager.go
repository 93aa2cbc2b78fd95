package account

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// ErrNoWalletKey is returned when no signing key is configured.
var ErrNoWalletKey = errors.New("wallet private key is not configured")

// BalanceReader is the subset of the chain connection the wallet boundary
// needs.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Manager owns the signing key. The key is read-only after initialization.
type Manager struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewManager derives the wallet from a hex-encoded private key.
func NewManager(privateKeyHex string) (*Manager, error) {
	if privateKeyHex == "" {
		return nil, ErrNoWalletKey
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, err
	}
	return &Manager{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (m *Manager) Address() common.Address {
	return m.address
}

// PrivateKey exposes the signing key to the transactor. Callers must not
// mutate it.
func (m *Manager) PrivateKey() *ecdsa.PrivateKey {
	return m.key
}

// Balance returns the wallet's native balance in ether units.
func (m *Manager) Balance(ctx context.Context, reader BalanceReader) (decimal.Decimal, error) {
	wei, err := reader.BalanceAt(ctx, m.address, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(wei, -18), nil
}
