// Package model contains the general data models and interfaces for the social faucet.
package model // import "github.com/joincivil/civil-social-faucet/pkg/model"

import (
	"errors"
)

var (
	// ErrPersisterNoResults is returned by a CooldownStore when no record exists
	// for a key
	ErrPersisterNoResults = errors.New("No results from persister")
)

// CooldownStore is the interface to the durable key value table holding cooldown
// expiries. Implementations are not required to be safe for concurrent use, the
// rate limiter serializes access.
type CooldownStore interface {
	// Get returns the value for key or ErrPersisterNoResults
	Get(key string) (string, error)
	// Set stores value for key, replacing any previous value
	Set(key string, value string) error
	// Delete removes key, deleting a missing key is not an error
	Delete(key string) error
	// Close releases the underlying resources
	Close() error
}
