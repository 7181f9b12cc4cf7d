package postgres // import "github.com/joincivil/civil-social-faucet/pkg/persistence/postgres"

import (
	"fmt"
)

const (
	// CooldownTableName is the default name of the cooldown table
	CooldownTableName = "cooldown"
)

// CreateCooldownTableQuery returns the query to create the cooldown table
func CreateCooldownTableQuery() string {
	return CreateCooldownTableQueryString(CooldownTableName)
}

// CreateCooldownTableQueryString returns the query to create this table.
// The same statement is valid for postgresql and sqlite3.
func CreateCooldownTableQueryString(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            cooldown_key TEXT PRIMARY KEY,
            expiry TEXT NOT NULL
        );
    `, tableName)
	return queryString
}

// Cooldown is the model definition for a row in the cooldown table.
// Expiry is the decimal unix timestamp string written by the rate limiter.
type Cooldown struct {
	Key    string `db:"cooldown_key"`
	Expiry string `db:"expiry"`
}

// NewCooldown creates a Cooldown row for the DB
func NewCooldown(key string, expiry string) *Cooldown {
	return &Cooldown{Key: key, Expiry: expiry}
}
