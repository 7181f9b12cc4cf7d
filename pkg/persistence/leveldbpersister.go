package persistence // import "github.com/joincivil/civil-social-faucet/pkg/persistence"

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/joincivil/civil-social-faucet/pkg/model"
)

// NewLevelDBPersister opens or creates the leveldb database at path
func NewLevelDBPersister(path string) (*LevelDBPersister, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "Error opening leveldb at %v", path)
	}
	return &LevelDBPersister{db: db}, nil
}

// LevelDBPersister is an embedded on disk cooldown store
type LevelDBPersister struct {
	db *leveldb.DB
}

// Get returns the value stored for key
func (p *LevelDBPersister) Get(key string) (string, error) {
	val, err := p.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return "", model.ErrPersisterNoResults
		}
		return "", errors.Wrap(err, "Error retrieving from leveldb")
	}
	return string(val), nil
}

// Set stores value for key
func (p *LevelDBPersister) Set(key string, value string) error {
	err := p.db.Put([]byte(key), []byte(value), nil)
	if err != nil {
		return errors.Wrap(err, "Error writing to leveldb")
	}
	return nil
}

// Delete removes key. leveldb does not fail on missing keys.
func (p *LevelDBPersister) Delete(key string) error {
	err := p.db.Delete([]byte(key), nil)
	if err != nil {
		return errors.Wrap(err, "Error deleting from leveldb")
	}
	return nil
}

// Close closes the database
func (p *LevelDBPersister) Close() error {
	return p.db.Close()
}
