package ledger

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// NewWalletFromHex creates a wallet from a hex encoded private key, with or
// without the 0x prefix
func NewWalletFromHex(hexKey string) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "Invalid private key")
	}
	return NewWallet(key), nil
}

// NewWallet creates a wallet for the given key
func NewWallet(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Wallet is the faucet account signing every disbursement
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// Address returns the account address derived from the key
func (w *Wallet) Address() common.Address {
	return w.address
}

// SignTx signs tx with the latest signer for chainID
func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return nil, errors.Wrap(err, "Error signing transaction")
	}
	return signed, nil
}
