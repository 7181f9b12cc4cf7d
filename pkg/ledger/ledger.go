// Package ledger contains the Ethereum client and account used to disburse funds
package ledger // import "github.com/joincivil/civil-social-faucet/pkg/ledger"

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

const (
	// DefaultReceiptTimeout is the default bounded wait for a receipt
	DefaultReceiptTimeout = 20 * time.Second
)

var (
	// ErrTransactionReverted is returned when a transaction was mined with a
	// failed status
	ErrTransactionReverted = errors.New("Transaction reverted")
)

// Backend is the subset of the ethclient used by EthLedger
type Backend interface {
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Dial connects to the Ethereum API at url
func Dial(url string) (*EthLedger, *ethclient.Client, error) {
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Error connecting to eth API")
	}
	return NewEthLedger(client), client, nil
}

// NewEthLedger is a convenience function to init an EthLedger
func NewEthLedger(backend Backend) *EthLedger {
	return &EthLedger{backend: backend}
}

// EthLedger submits transactions to an Ethereum node and waits for receipts
type EthLedger struct {
	backend Backend

	chainIDMutex sync.Mutex
	chainID      *big.Int
}

// PendingNonceAt returns the next nonce for account including pending transactions
func (l *EthLedger) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := l.backend.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, errors.Wrap(err, "Error retrieving nonce")
	}
	return nonce, nil
}

// SuggestGasPrice returns the node's gas price suggestion
func (l *EthLedger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := l.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Error retrieving gas price")
	}
	return price, nil
}

// ChainID returns the chain id, cached after the first successful call
func (l *EthLedger) ChainID(ctx context.Context) (*big.Int, error) {
	l.chainIDMutex.Lock()
	defer l.chainIDMutex.Unlock()
	if l.chainID != nil {
		return new(big.Int).Set(l.chainID), nil
	}
	chainID, err := l.backend.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Error retrieving chain id")
	}
	l.chainID = chainID
	return new(big.Int).Set(chainID), nil
}

// SendTransaction broadcasts a signed transaction
func (l *EthLedger) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	err := l.backend.SendTransaction(ctx, tx)
	if err != nil {
		return errors.Wrapf(err, "Error sending transaction %v", tx.Hash().Hex())
	}
	return nil
}

// WaitForReceipt polls for the receipt of tx for at most timeout. A mined
// transaction with a failed status returns ErrTransactionReverted.
func (l *EthLedger) WaitForReceipt(ctx context.Context, tx *types.Transaction,
	timeout time.Duration) (*types.Receipt, error) {
	if timeout <= 0 {
		timeout = DefaultReceiptTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, l.backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "Error waiting for receipt of %v", tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, errors.Wrapf(ErrTransactionReverted, "status %v for %v",
			receipt.Status, tx.Hash().Hex())
	}
	return receipt, nil
}
