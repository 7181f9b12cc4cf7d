// Package txbuilder contains the builders turning a recipient address into an
// unsigned transaction payload
package txbuilder // import "github.com/joincivil/civil-social-faucet/pkg/txbuilder"

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/pkg/errors"

	"github.com/joincivil/civil-social-faucet/pkg/model"
)

const (
	// DefaultSendGas is the gas limit of a plain value transfer
	DefaultSendGas = 25000

	// DefaultMintMethodSignature is the owner only mint method of the meta faucet contract
	DefaultMintMethodSignature = "mintAsOwner(address dst)"
)

var (
	// DefaultSendValue is 0.2 ETH in wei
	DefaultSendValue = big.NewInt(2e17)
)

// NewSendETHTransactionBuilder returns a builder sending value wei with the given gas limit
func NewSendETHTransactionBuilder(value *big.Int, gas uint64) *SendETHTransactionBuilder {
	if value == nil {
		value = DefaultSendValue
	}
	if gas == 0 {
		gas = DefaultSendGas
	}
	return &SendETHTransactionBuilder{value: new(big.Int).Set(value), gas: gas}
}

// SendETHTransactionBuilder builds a plain value transfer
type SendETHTransactionBuilder struct {
	value *big.Int
	gas   uint64
}

// Name returns the builder name
func (s *SendETHTransactionBuilder) Name() string {
	return "send-eth"
}

// BuildTransaction returns a transfer of the fixed value to recipient
func (s *SendETHTransactionBuilder) BuildTransaction(recipient common.Address) (*model.RawTransaction, error) {
	return &model.RawTransaction{
		To:    recipient,
		Value: new(big.Int).Set(s.value),
		Gas:   s.gas,
	}, nil
}

// NewMintAsOwnerTransactionBuilder returns a builder calling the single address
// argument method described by signature on contract
func NewMintAsOwnerTransactionBuilder(contract common.Address, gas uint64,
	signature string) (*MintAsOwnerTransactionBuilder, error) {
	if signature == "" {
		signature = DefaultMintMethodSignature
	}
	fn, err := w3.NewFunc(signature, "")
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid mint method signature %v", signature)
	}
	if len(fn.Args) != 1 {
		return nil, errors.Errorf("Mint method %v must take exactly one address", signature)
	}
	return &MintAsOwnerTransactionBuilder{
		contract: contract,
		gas:      gas,
		mintFunc: fn,
	}, nil
}

// MintAsOwnerTransactionBuilder builds a contract call minting to the recipient
// as the privileged owner. Nothing is read from the chain.
type MintAsOwnerTransactionBuilder struct {
	contract common.Address
	gas      uint64
	mintFunc *w3.Func
}

// Name returns the builder name
func (m *MintAsOwnerTransactionBuilder) Name() string {
	return "mint-as-owner"
}

// BuildTransaction returns the encoded mint call for recipient
func (m *MintAsOwnerTransactionBuilder) BuildTransaction(recipient common.Address) (*model.RawTransaction, error) {
	data, err := m.mintFunc.EncodeArgs(recipient)
	if err != nil {
		return nil, errors.Wrap(err, "Error encoding mint call")
	}
	return &model.RawTransaction{
		To:    m.contract,
		Value: big.NewInt(0),
		Gas:   m.gas,
		Data:  data,
	}, nil
}
