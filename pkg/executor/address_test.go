package executor_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/joincivil/civil-social-faucet/pkg/executor"
)

func TestExtractAddress(t *testing.T) {
	address, err := executor.ExtractAddress(
		"send to 0x8f9d07df84b387d05f3bb1de77b9cc577cf3507e please")
	if err != nil {
		t.Fatalf("Should have extracted the address: err: %v", err)
	}
	if address.Hex() != "0x8F9d07DF84B387d05f3bb1de77B9cc577cF3507E" {
		t.Errorf("Should have checksummed the address: %v", address.Hex())
	}
}

func TestExtractAddressAtEndOfText(t *testing.T) {
	_, err := executor.ExtractAddress("0x8F9d07DF84B387d05f3bb1de77B9cc577cF3507E")
	if err != nil {
		t.Errorf("Should have extracted an address filling the text: err: %v", err)
	}
}

func TestExtractAddressFirstOccurrenceWins(t *testing.T) {
	address, err := executor.ExtractAddress(
		"0x0000000000000000000000000000000000000001 and 0x8F9d07DF84B387d05f3bb1de77B9cc577cF3507E")
	if err != nil {
		t.Fatalf("Should have extracted the first address: err: %v", err)
	}
	if address.Hex() != "0x0000000000000000000000000000000000000001" {
		t.Errorf("Should have used the first 0x: %v", address.Hex())
	}

	_, err = executor.ExtractAddress("#0xHashtag 0x8F9d07DF84B387d05f3bb1de77B9cc577cF3507E")
	if errors.Cause(err) != executor.ErrInvalidAddress {
		t.Errorf("Should not have looked past an invalid first 0x: err: %v", err)
	}
}

func TestExtractAddressInvalid(t *testing.T) {
	_, err := executor.ExtractAddress("no address here")
	if err != executor.ErrAddressNotFound {
		t.Errorf("Should have returned ErrAddressNotFound: err: %v", err)
	}

	_, err = executor.ExtractAddress("send to 0x8F9d07DF84B387d05f3bb1de77B9cc577cF350")
	if errors.Cause(err) != executor.ErrInvalidAddress {
		t.Errorf("Should have rejected a short address: err: %v", err)
	}

	_, err = executor.ExtractAddress("send to 0xZZ9d07DF84B387d05f3bb1de77B9cc577cF3507E")
	if errors.Cause(err) != executor.ErrInvalidAddress {
		t.Errorf("Should have rejected non hex characters: err: %v", err)
	}
}
