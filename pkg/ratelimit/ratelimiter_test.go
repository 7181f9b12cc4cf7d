package ratelimit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/joincivil/civil-social-faucet/pkg/persistence"
	"github.com/joincivil/civil-social-faucet/pkg/ratelimit"
)

const (
	testUser    = "1234"
	testAddress = "0x8F9d07DF84B387d05f3bb1de77B9cc577cF3507E"
)

type testClock struct {
	mutex sync.Mutex
	now   time.Time
}

func (c *testClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

func setupRateLimiter(excluded []string) (*ratelimit.RateLimiter, *testClock) {
	clock := &testClock{now: time.Unix(1600000000, 0)}
	limiter := ratelimit.NewRateLimiter(persistence.NewMemoryPersister(), time.Hour, excluded)
	limiter.SetClock(clock.Now)
	return limiter, clock
}

func TestAddThenGet(t *testing.T) {
	limiter := ratelimit.NewRateLimiter(persistence.NewMemoryPersister(), 0, nil)
	if limiter.Window() != ratelimit.DefaultWindow {
		t.Errorf("Should have used the default window: %v", limiter.Window())
	}

	err := limiter.AddWithWindow(testUser, "", 120*time.Second)
	if err != nil {
		t.Fatalf("Should not have failed to add: err: %v", err)
	}
	expiry, err := limiter.Get(testUser)
	if err != nil {
		t.Fatalf("Should not have failed to get: err: %v", err)
	}
	expected := time.Now().Unix() + 120
	if expiry < expected-1 || expiry > expected+1 {
		t.Errorf("Should have stored now+120, got %v want ~%v", expiry, expected)
	}

	addrExpiry, _ := limiter.Get(testAddress)
	if addrExpiry != 0 {
		t.Errorf("Should not have set the address when only the user was given: %v", addrExpiry)
	}
}

func TestIsRateLimitedUntilExpiry(t *testing.T) {
	limiter, clock := setupRateLimiter(nil)

	limited, err := limiter.IsRateLimited(testUser, testAddress)
	if err != nil {
		t.Fatalf("Should not have failed: err: %v", err)
	}
	if limited {
		t.Errorf("Should not be limited without records")
	}

	err = limiter.AddWithWindow(testUser, "", 60*time.Second)
	if err != nil {
		t.Fatalf("Should not have failed to add: err: %v", err)
	}

	limited, _ = limiter.IsRateLimited(testUser, "0x0000000000000000000000000000000000000001")
	if !limited {
		t.Errorf("Should be limited by the user record")
	}

	clock.Advance(59 * time.Second)
	limited, _ = limiter.IsRateLimited(testUser, testAddress)
	if !limited {
		t.Errorf("Should still be limited one second before expiry")
	}

	clock.Advance(time.Second)
	limited, _ = limiter.IsRateLimited(testUser, testAddress)
	if limited {
		t.Errorf("Should not be limited at expiry")
	}
}

func TestIsRateLimitedUsesStricterRecord(t *testing.T) {
	limiter, clock := setupRateLimiter(nil)

	_ = limiter.AddWithWindow(testUser, "", 10*time.Second)
	_ = limiter.AddWithWindow("", testAddress, 100*time.Second)

	clock.Advance(50 * time.Second)
	limited, _ := limiter.IsRateLimited("someone-else", testAddress)
	if !limited {
		t.Errorf("Should be limited by the address for any user")
	}
	limited, _ = limiter.IsRateLimited(testUser, testAddress)
	if !limited {
		t.Errorf("Should be limited by the later of the two expiries")
	}
	limited, _ = limiter.IsRateLimited(testUser, "0x0000000000000000000000000000000000000001")
	if limited {
		t.Errorf("Should not be limited once the user record expired")
	}
}

func TestExcludedIdentities(t *testing.T) {
	limiter, _ := setupRateLimiter([]string{testUser, "0x8f9d07df84b387d05f3bb1de77b9cc577cf3507e"})

	_ = limiter.Add(testUser, testAddress)
	_ = limiter.Add("other", "0x0000000000000000000000000000000000000002")

	limited, _ := limiter.IsRateLimited(testUser, "0x0000000000000000000000000000000000000002")
	if limited {
		t.Errorf("Should never limit an excluded user")
	}
	limited, _ = limiter.IsRateLimited("other", testAddress)
	if limited {
		t.Errorf("Should never limit an excluded address")
	}
	limited, _ = limiter.IsRateLimited("other", "0x0000000000000000000000000000000000000002")
	if !limited {
		t.Errorf("Should limit identities that are not excluded")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	limiter, _ := setupRateLimiter(nil)

	_ = limiter.Add(testUser, testAddress)
	err := limiter.Remove(testUser, testAddress)
	if err != nil {
		t.Fatalf("Should not have failed to remove: err: %v", err)
	}
	err = limiter.Remove(testUser, testAddress)
	if err != nil {
		t.Errorf("Should not have failed to remove twice: err: %v", err)
	}

	expiry, _ := limiter.Get(testUser)
	if expiry != 0 {
		t.Errorf("Should have no user record after remove: %v", expiry)
	}
	expiry, _ = limiter.Get(testAddress)
	if expiry != 0 {
		t.Errorf("Should have no address record after remove: %v", expiry)
	}
}

func TestAddressCaseIsNormalized(t *testing.T) {
	limiter, _ := setupRateLimiter(nil)

	_ = limiter.Add("", "0x8f9d07df84b387d05f3bb1de77b9cc577cf3507e")
	expiry, _ := limiter.GetAddress(testAddress)
	if expiry == 0 {
		t.Errorf("Should have found the record using the checksummed address")
	}
}

func TestConcurrentAccess(t *testing.T) {
	limiter, _ := setupRateLimiter(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = limiter.Add(testUser, testAddress)
			_, _ = limiter.IsRateLimited(testUser, testAddress)
			_ = limiter.Remove(testUser, "")
		}()
	}
	wg.Wait()

	limited, err := limiter.IsRateLimited("other", testAddress)
	if err != nil {
		t.Fatalf("Should not have failed: err: %v", err)
	}
	if !limited {
		t.Errorf("Should still be limited by the address record")
	}
}
