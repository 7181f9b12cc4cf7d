package persistence // import "github.com/joincivil/civil-social-faucet/pkg/persistence"

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/joincivil/civil-social-faucet/pkg/model"
	"github.com/joincivil/civil-social-faucet/pkg/persistence/postgres"

	// driver for postgresql
	_ "github.com/lib/pq"
	// driver for sqlite3
	_ "github.com/mattn/go-sqlite3"
)

const (
	postgresDriverName = "postgres"
	sqliteDriverName   = "sqlite3"
)

// NewPostgresPersister creates a new cooldown store backed by postgresql
func NewPostgresPersister(host string, port int, user string, password string,
	dbname string) (*SQLPersister, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
	db, err := sqlx.Connect(postgresDriverName, psqlInfo)
	if err != nil {
		return nil, errors.Wrap(err, "Error connecting to sqlx")
	}
	return NewSQLPersisterFromSqlx(db, postgres.CooldownTableName)
}

// NewSqlitePersister creates a new cooldown store backed by a sqlite3 file at path
func NewSqlitePersister(path string) (*SQLPersister, error) {
	db, err := sqlx.Connect(sqliteDriverName, path)
	if err != nil {
		return nil, errors.Wrap(err, "Error connecting to sqlite")
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	return NewSQLPersisterFromSqlx(db, postgres.CooldownTableName)
}

// NewSQLPersisterFromSqlx creates the cooldown store from an initialized sqlx.DB
// and creates the cooldown table if it does not exist
func NewSQLPersisterFromSqlx(db *sqlx.DB, tableName string) (*SQLPersister, error) {
	p := &SQLPersister{db: db, tableName: tableName}
	err := p.CreateTables()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SQLPersister holds the DB connection for the cooldown table
type SQLPersister struct {
	db        *sqlx.DB
	tableName string
}

// CreateTables creates the cooldown table if it doesn't exist
func (p *SQLPersister) CreateTables() error {
	_, err := p.db.Exec(postgres.CreateCooldownTableQueryString(p.tableName))
	if err != nil {
		return errors.Wrapf(err, "Error creating %v table", p.tableName)
	}
	return nil
}

// Get returns the expiry stored for key
func (p *SQLPersister) Get(key string) (string, error) {
	row := postgres.Cooldown{}
	err := p.db.Get(&row, p.db.Rebind(p.getQuery()), key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", model.ErrPersisterNoResults
		}
		return "", errors.Wrap(err, "Error retrieving cooldown")
	}
	return row.Expiry, nil
}

// Set upserts the expiry for key
func (p *SQLPersister) Set(key string, value string) error {
	_, err := p.db.NamedExec(p.upsertQuery(), postgres.NewCooldown(key, value))
	if err != nil {
		return errors.Wrap(err, "Error saving cooldown to table")
	}
	return nil
}

// Delete removes the row for key
func (p *SQLPersister) Delete(key string) error {
	_, err := p.db.Exec(p.db.Rebind(p.deleteQuery()), key)
	if err != nil {
		return errors.Wrap(err, "Error deleting cooldown from table")
	}
	return nil
}

// Close closes the DB connection
func (p *SQLPersister) Close() error {
	return p.db.Close()
}

func (p *SQLPersister) getQuery() string {
	return fmt.Sprintf("SELECT cooldown_key, expiry FROM %s WHERE cooldown_key=?;", p.tableName)
}

func (p *SQLPersister) upsertQuery() string {
	return fmt.Sprintf("INSERT INTO %s (cooldown_key, expiry) VALUES (:cooldown_key, :expiry) "+
		"ON CONFLICT (cooldown_key) DO UPDATE SET expiry = EXCLUDED.expiry;", p.tableName)
}

func (p *SQLPersister) deleteQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE cooldown_key=?;", p.tableName)
}
