package main

// This script prints the cooldown expiry of each user id or address given as
// args, read directly from the configured cooldown store. With -clear the
// cooldowns are removed. Run it against a stopped faucet when using leveldb,
// which allows a single process.

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/golang/glog"
	"github.com/kelseyhightower/envconfig"

	"github.com/joincivil/civil-social-faucet/pkg/helpers"
	"github.com/joincivil/civil-social-faucet/pkg/ratelimit"
	"github.com/joincivil/civil-social-faucet/pkg/utils"
)

// Config configures this script
type Config struct {
	PersisterTypeName        string `split_words:"true" default:"leveldb" desc:"Sets the persister type to use"`
	PersisterLeveldbPath     string `split_words:"true" default:"rate_limit.db" desc:"If persister type is leveldb, sets the path"`
	PersisterSqlitePath      string `split_words:"true" desc:"If persister type is sqlite3, sets the path"`
	PersisterPostgresAddress string `split_words:"true" desc:"If persister type is Postgresql, sets the address"`
	PersisterPostgresPort    int    `split_words:"true" desc:"If persister type is Postgresql, sets the port"`
	PersisterPostgresDbname  string `split_words:"true" desc:"If persister type is Postgresql, sets the database name"`
	PersisterPostgresUser    string `split_words:"true" desc:"If persister type is Postgresql, sets the database user"`
	PersisterPostgresPw      string `split_words:"true" desc:"If persister type is Postgresql, sets the database password"`
}

// PopulateFromEnv processes the environment vars, populates Config
func (c *Config) PopulateFromEnv() error {
	return envconfig.Process("faucet", c)
}

func (c *Config) faucetConfig() (*utils.FaucetConfig, error) {
	pType, err := utils.PersisterTypeFromName(c.PersisterTypeName)
	if err != nil {
		return nil, err
	}
	return &utils.FaucetConfig{
		PersisterType:            pType,
		PersisterLeveldbPath:     c.PersisterLeveldbPath,
		PersisterSqlitePath:      c.PersisterSqlitePath,
		PersisterPostgresAddress: c.PersisterPostgresAddress,
		PersisterPostgresPort:    c.PersisterPostgresPort,
		PersisterPostgresDbname:  c.PersisterPostgresDbname,
		PersisterPostgresUser:    c.PersisterPostgresUser,
		PersisterPostgresPw:      c.PersisterPostgresPw,
	}, nil
}

func main() {
	clearCooldowns := flag.Bool("clear", false, "Remove the cooldowns of the given identifiers")
	flag.Parse()

	config := &Config{}
	err := config.PopulateFromEnv()
	if err != nil {
		log.Errorf("Invalid config: err: %v", err)
		os.Exit(2)
	}
	faucetConfig, err := config.faucetConfig()
	if err != nil {
		log.Errorf("Invalid config: err: %v", err)
		os.Exit(2)
	}

	store, err := helpers.CooldownStore(faucetConfig)
	if err != nil {
		log.Errorf("Error opening cooldown store: err: %v", err)
		os.Exit(2)
	}
	defer store.Close() // nolint: errcheck

	limiter := ratelimit.NewRateLimiter(store, 0, nil)
	for _, identifier := range flag.Args() {
		expiry, err := limiter.Get(identifier)
		if err != nil {
			log.Errorf("Error reading cooldown for %v: err: %v", identifier, err)
			continue
		}
		remaining := time.Until(utils.SecsToTime(expiry)).Round(time.Second)
		if remaining < 0 {
			remaining = 0
		}
		fmt.Printf("%v\texpiry: %v\tremaining: %v\n", identifier, expiry, remaining)

		if *clearCooldowns {
			if strings.HasPrefix(identifier, "0x") {
				err = limiter.Remove("", identifier)
			} else {
				err = limiter.Remove(identifier, "")
			}
			if err != nil {
				log.Errorf("Error clearing cooldown for %v: err: %v", identifier, err)
				continue
			}
			fmt.Printf("%v\tcleared\n", identifier)
		}
	}
	log.Flush()
}
