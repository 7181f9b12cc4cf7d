package executor

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	// AddressLength is the length of a 0x prefixed hex address
	AddressLength = 42

	addressPrefix = "0x"
)

var (
	// ErrAddressNotFound is returned when the text has no 0x substring
	ErrAddressNotFound = errors.New("address not found")

	// ErrInvalidAddress is returned when the window after the first 0x is not a
	// valid hex address
	ErrInvalidAddress = errors.New("invalid address")
)

// ExtractAddress returns the checksummed address starting at the first 0x in
// text. Later occurrences are never considered.
func ExtractAddress(text string) (common.Address, error) {
	index := strings.Index(text, addressPrefix)
	if index < 0 {
		return common.Address{}, ErrAddressNotFound
	}
	end := index + AddressLength
	if end > len(text) {
		end = len(text)
	}
	window := text[index:end]
	if len(window) != AddressLength || !common.IsHexAddress(window) {
		return common.Address{}, errors.Wrapf(ErrInvalidAddress, "%v", window)
	}
	return common.HexToAddress(window), nil
}
