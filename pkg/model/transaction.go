package model

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RawTransaction is a provider agnostic transaction payload. Nonce, chain id and
// fee fields are injected right before signing.
type RawTransaction struct {
	To    common.Address
	Value *big.Int
	Gas   uint64
	Data  []byte
}

// TransactionBuilder builds the unsigned payload sent to a recipient
type TransactionBuilder interface {
	// Name identifies the builder in logs and metrics
	Name() string
	// BuildTransaction returns the payload for the recipient
	BuildTransaction(recipient common.Address) (*RawTransaction, error)
}

// Validator rejects a message that does not satisfy a policy rule
type Validator interface {
	// Validate returns a non nil error describing the violated rule
	Validate(message *Message) error
}

// LedgerClient is the interface to the chain the faucet disburses on
type LedgerClient interface {
	// PendingNonceAt returns the next sequence number for account
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	// SuggestGasPrice returns the current fee parameter
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	// ChainID returns the chain id used for replay protected signing
	ChainID(ctx context.Context) (*big.Int, error)
	// SendTransaction submits a signed transaction
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	// WaitForReceipt waits at most timeout for the transaction to be confirmed
	WaitForReceipt(ctx context.Context, tx *types.Transaction, timeout time.Duration) (*types.Receipt, error)
}

// TransactionSigner signs transactions on behalf of the faucet account
type TransactionSigner interface {
	// Address is the faucet account
	Address() common.Address
	// SignTx signs tx for the given chain id
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}
