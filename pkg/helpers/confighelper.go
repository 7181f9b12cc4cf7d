// Package helpers contains various common helper functions.
// Normally they are shared functions used by the cmds.
package helpers

import (
	log "github.com/golang/glog"
	"github.com/jmoiron/sqlx"

	"github.com/joincivil/civil-social-faucet/pkg/faucet"
	"github.com/joincivil/civil-social-faucet/pkg/model"
	"github.com/joincivil/civil-social-faucet/pkg/persistence"
	"github.com/joincivil/civil-social-faucet/pkg/persistence/postgres"
	"github.com/joincivil/civil-social-faucet/pkg/utils"
)

// CooldownStore is a helper function to return the correct cooldown store based on
// the given configuration
func CooldownStore(config *utils.FaucetConfig) (model.CooldownStore, error) {
	switch config.PersisterType {
	case utils.PersisterTypePostgresql:
		p, err := persistence.NewPostgresPersister(
			config.PersisterPostgresAddress,
			config.PersisterPostgresPort,
			config.PersisterPostgresUser,
			config.PersisterPostgresPw,
			config.PersisterPostgresDbname,
		)
		if err != nil {
			return nil, err
		}
		return p, nil
	case utils.PersisterTypeSqlite:
		p, err := persistence.NewSqlitePersister(config.PersisterSqlitePath)
		if err != nil {
			return nil, err
		}
		return p, nil
	case utils.PersisterTypeMemory:
		log.Warningf("Using the memory persister, cooldowns are lost on restart")
		return persistence.NewMemoryPersister(), nil
	}
	// Default to the LevelDBPersister
	p, err := persistence.NewLevelDBPersister(config.PersisterLeveldbPath)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CooldownStoreFromSqlx is a helper function to return a cooldown store given an
// initialized sqlx.DB struct
func CooldownStoreFromSqlx(db *sqlx.DB) (model.CooldownStore, error) {
	p, err := persistence.NewSQLPersisterFromSqlx(db, postgres.CooldownTableName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FaucetParams is a helper function to return the faucet params from the
// given configuration
func FaucetParams(config *utils.FaucetConfig) *faucet.Params {
	return &faucet.Params{
		SendValue:              config.SendValue,
		SendGas:                config.SendGas,
		MintContractAddress:    config.MintContract,
		MintGas:                config.MintGas,
		MintMethodSignature:    config.MintMethodSignature,
		Keywords:               config.Keywords,
		TwitterSearchKeywords:  config.TwitterSearchKeywords,
		TwitterBearerToken:     config.TwitterBearerToken,
		TwitterAPIURL:          config.TwitterAPIURL,
		TwitterCronConfig:      config.TwitterCronConfig,
		TwitterRequestsPerMin:  config.TwitterRequestsPerMin,
		DiscordBotToken:        config.DiscordBotToken,
		DiscordChannels:        config.DiscordChannels,
		PubSubProjectID:        config.PubSubProjectID,
		PubSubSubscriptionName: config.PubSubSubscriptionName,
		PubSubCredentialsFile:  config.PubSubCredentialsFile,
	}
}

// Faucet is a helper function to return the faucet configuration named in
// the given configuration
func Faucet(config *utils.FaucetConfig) (faucet.Faucet, error) {
	return faucet.NewFaucetFromName(config.TypeName, FaucetParams(config))
}
