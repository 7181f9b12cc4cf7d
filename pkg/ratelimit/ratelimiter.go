// Package ratelimit decides whether a user or recipient address may receive
// funds from the faucet right now.
package ratelimit // import "github.com/joincivil/civil-social-faucet/pkg/ratelimit"

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/joincivil/civil-social-faucet/pkg/model"
)

const (
	// DefaultWindow is the cooldown applied when none is configured
	DefaultWindow = 86400 * time.Second

	userKeyPrefix    = "user_id"
	addressKeyPrefix = "address"
	addressPrefix    = "0x"
)

// NewRateLimiter is a convenience function to init a RateLimiter. A window of
// zero uses DefaultWindow.
func NewRateLimiter(store model.CooldownStore, window time.Duration,
	excluded []string) *RateLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	excludedSet := make(map[string]struct{}, len(excluded))
	for _, ex := range excluded {
		excludedSet[normalizeIdentifier(ex)] = struct{}{}
	}
	return &RateLimiter{
		store:    store,
		window:   window,
		excluded: excludedSet,
		now:      time.Now,
	}
}

// RateLimiter keeps a cooldown expiry per user id and per address in the
// cooldown store. Every store access is serialized by mutex, the store itself
// is not assumed to be safe for concurrent use.
type RateLimiter struct {
	store    model.CooldownStore
	window   time.Duration
	excluded map[string]struct{}
	now      func() time.Time

	mutex sync.Mutex
}

// SetClock replaces the clock used to compute expiries
func (r *RateLimiter) SetClock(now func() time.Time) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.now = now
}

// Window returns the default cooldown window
func (r *RateLimiter) Window() time.Duration {
	return r.window
}

// Add starts the default cooldown for the given identifiers. Empty identifiers
// are skipped.
func (r *RateLimiter) Add(userID string, address string) error {
	return r.AddWithWindow(userID, address, r.window)
}

// AddWithWindow sets the expiry of the given identifiers to now + window
func (r *RateLimiter) AddWithWindow(userID string, address string, window time.Duration) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	limitUntil := strconv.FormatInt(r.now().Unix()+int64(window/time.Second), 10)
	if userID != "" {
		err := r.store.Set(userKey(userID), limitUntil)
		if err != nil {
			return errors.Wrapf(err, "Error adding rate limit for user %v", userID)
		}
	}
	if address != "" {
		err := r.store.Set(addressKey(address), limitUntil)
		if err != nil {
			return errors.Wrapf(err, "Error adding rate limit for address %v", address)
		}
	}
	return nil
}

// Remove deletes the records of the given identifiers. Removing an identifier
// without a record is not an error.
func (r *RateLimiter) Remove(userID string, address string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if userID != "" {
		err := r.store.Delete(userKey(userID))
		if err != nil {
			return errors.Wrapf(err, "Error removing rate limit for user %v", userID)
		}
	}
	if address != "" {
		err := r.store.Delete(addressKey(address))
		if err != nil {
			return errors.Wrapf(err, "Error removing rate limit for address %v", address)
		}
	}
	return nil
}

// Get returns the expiry for an address if value starts with 0x, otherwise for a
// user id. Returns 0 when there is no record.
func (r *RateLimiter) Get(value string) (int64, error) {
	if strings.HasPrefix(value, addressPrefix) {
		return r.GetAddress(value)
	}
	return r.GetUser(value)
}

// GetUser returns the expiry stored for the user id, 0 if none
func (r *RateLimiter) GetUser(userID string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.expiry(userKey(userID))
}

// GetAddress returns the expiry stored for the address, 0 if none
func (r *RateLimiter) GetAddress(address string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.expiry(addressKey(address))
}

// IsRateLimited returns true if either the user or the address is still cooling
// down. Excluded identifiers are never limited.
func (r *RateLimiter) IsRateLimited(userID string, address string) (bool, error) {
	if r.isExcluded(userID) || r.isExcluded(address) {
		return false, nil
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	userExpiry, err := r.expiry(userKey(userID))
	if err != nil {
		return false, err
	}
	addressExpiry, err := r.expiry(addressKey(address))
	if err != nil {
		return false, err
	}
	limitUntil := userExpiry
	if addressExpiry > limitUntil {
		limitUntil = addressExpiry
	}
	return r.now().Unix() < limitUntil, nil
}

func (r *RateLimiter) isExcluded(identifier string) bool {
	if identifier == "" {
		return false
	}
	_, ok := r.excluded[normalizeIdentifier(identifier)]
	return ok
}

// expiry must be called with the mutex held
func (r *RateLimiter) expiry(key string) (int64, error) {
	val, err := r.store.Get(key)
	if err != nil {
		if errors.Cause(err) == model.ErrPersisterNoResults {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "Error retrieving rate limit for %v", key)
	}
	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "Invalid rate limit value %v for %v", val, key)
	}
	return ts, nil
}

func userKey(userID string) string {
	return fmt.Sprintf("%v:%v", userKeyPrefix, userID)
}

func addressKey(address string) string {
	return fmt.Sprintf("%v:%v", addressKeyPrefix, normalizeIdentifier(address))
}

// normalizeIdentifier checksums valid hex addresses so admin calls with
// lowercase addresses hit the same record as the executor
func normalizeIdentifier(identifier string) string {
	if strings.HasPrefix(identifier, addressPrefix) && common.IsHexAddress(identifier) {
		return common.HexToAddress(identifier).Hex()
	}
	return identifier
}
