package persistence_test

import (
	"path/filepath"
	"testing"

	"github.com/joincivil/civil-social-faucet/pkg/model"
	"github.com/joincivil/civil-social-faucet/pkg/persistence"
)

func testCooldownStore(t *testing.T, p model.CooldownStore) {
	_, err := p.Get("user_id:1")
	if err != model.ErrPersisterNoResults {
		t.Errorf("Should have returned no results for a missing key: err: %v", err)
	}

	err = p.Set("user_id:1", "1600000000")
	if err != nil {
		t.Fatalf("Should not have failed to set key: err: %v", err)
	}
	val, err := p.Get("user_id:1")
	if err != nil {
		t.Fatalf("Should not have failed to get key: err: %v", err)
	}
	if val != "1600000000" {
		t.Errorf("Should have returned the stored value: %v", val)
	}

	err = p.Set("user_id:1", "1700000000")
	if err != nil {
		t.Fatalf("Should not have failed to overwrite key: err: %v", err)
	}
	val, _ = p.Get("user_id:1")
	if val != "1700000000" {
		t.Errorf("Should have returned the overwritten value: %v", val)
	}

	err = p.Delete("user_id:1")
	if err != nil {
		t.Errorf("Should not have failed to delete key: err: %v", err)
	}
	_, err = p.Get("user_id:1")
	if err != model.ErrPersisterNoResults {
		t.Errorf("Should have returned no results after delete: err: %v", err)
	}

	err = p.Delete("user_id:1")
	if err != nil {
		t.Errorf("Should not have failed to delete a missing key: err: %v", err)
	}
}

func TestMemoryPersister(t *testing.T) {
	p := persistence.NewMemoryPersister()
	defer p.Close()
	testCooldownStore(t, p)
}

func TestLevelDBPersister(t *testing.T) {
	p, err := persistence.NewLevelDBPersister(filepath.Join(t.TempDir(), "rate_limit.db"))
	if err != nil {
		t.Fatalf("Should have opened leveldb: err: %v", err)
	}
	defer p.Close()
	testCooldownStore(t, p)
}

func TestLevelDBPersisterSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate_limit.db")
	p, err := persistence.NewLevelDBPersister(path)
	if err != nil {
		t.Fatalf("Should have opened leveldb: err: %v", err)
	}
	err = p.Set("address:0xabc", "42")
	if err != nil {
		t.Fatalf("Should not have failed to set key: err: %v", err)
	}
	err = p.Close()
	if err != nil {
		t.Fatalf("Should not have failed to close: err: %v", err)
	}

	p, err = persistence.NewLevelDBPersister(path)
	if err != nil {
		t.Fatalf("Should have reopened leveldb: err: %v", err)
	}
	defer p.Close()
	val, err := p.Get("address:0xabc")
	if err != nil {
		t.Fatalf("Should have found key after reopen: err: %v", err)
	}
	if val != "42" {
		t.Errorf("Should have kept the value after reopen: %v", val)
	}
}

func TestSqlitePersister(t *testing.T) {
	p, err := persistence.NewSqlitePersister(filepath.Join(t.TempDir(), "rate_limit.sqlite"))
	if err != nil {
		t.Fatalf("Should have opened sqlite: err: %v", err)
	}
	defer p.Close()
	testCooldownStore(t, p)
}
