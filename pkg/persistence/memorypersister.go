// Package persistence contains the cooldown store implementations
package persistence // import "github.com/joincivil/civil-social-faucet/pkg/persistence"

import (
	"github.com/joincivil/civil-social-faucet/pkg/model"
)

// NewMemoryPersister creates an empty in memory cooldown store
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{values: map[string]string{}}
}

// MemoryPersister keeps cooldowns in a map. Nothing survives a restart, meant for
// local runs and tests.
type MemoryPersister struct {
	values map[string]string
}

// Get returns the value stored for key
func (p *MemoryPersister) Get(key string) (string, error) {
	val, ok := p.values[key]
	if !ok {
		return "", model.ErrPersisterNoResults
	}
	return val, nil
}

// Set stores value for key
func (p *MemoryPersister) Set(key string, value string) error {
	p.values[key] = value
	return nil
}

// Delete removes key
func (p *MemoryPersister) Delete(key string) error {
	delete(p.values, key)
	return nil
}

// Close is a no-op
func (p *MemoryPersister) Close() error {
	return nil
}
