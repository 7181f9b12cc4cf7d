// Package utils contains various common utils separate by utility types
package utils

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron"

	"github.com/joincivil/civil-social-faucet/pkg/faucet"
)

// PersisterType is the type of persister to use.
type PersisterType int

const (
	// PersisterTypeInvalid is an invalid persister value
	PersisterTypeInvalid PersisterType = iota

	// PersisterTypeMemory is a persister that keeps cooldowns in process memory
	PersisterTypeMemory

	// PersisterTypeLevelDB is a persister that uses an embedded LevelDB
	PersisterTypeLevelDB

	// PersisterTypePostgresql is a persister that uses PostgreSQL as the backend
	PersisterTypePostgresql

	// PersisterTypeSqlite is a persister that uses a SQLite file as the backend
	PersisterTypeSqlite
)

var (
	// PersisterNameToType maps valid persister names to the types above
	PersisterNameToType = map[string]PersisterType{
		"memory":     PersisterTypeMemory,
		"leveldb":    PersisterTypeLevelDB,
		"postgresql": PersisterTypePostgresql,
		"sqlite3":    PersisterTypeSqlite,
	}

	validAPIURLSchemes = map[string]bool{
		"http":  true,
		"https": true,
		"ws":    true,
		"wss":   true,
	}
)

const (
	envVarPrefix = "faucet"

	usageListFormat = `The faucet is configured via environment vars. The faucet type and the twitter
search keywords can also be given as args: faucet [flags] <faucet-type> [search keywords...]
The following environment variables can be used:
{{range .}}
{{usage_key .}}
  description: {{usage_description .}}
  type:        {{usage_type .}}
  default:     {{usage_default .}}
  required:    {{usage_required .}}
{{end}}
`
)

// NOTE(PN): After envconfig populates FaucetConfig with the environment vars,
// there is nothing preventing the FaucetConfig fields from being mutated.

// FaucetConfig is the master config for the faucet derived from environment
// variables.
type FaucetConfig struct {
	TypeName string `split_words:"true" desc:"Sets the faucet type: twitter-kovan, discord-kovan-tokens or pubsub"`

	EthAPIURL  string `envconfig:"eth_api_url" required:"true" desc:"Ethereum API address"`
	PrivateKey string `split_words:"true" required:"true" desc:"Hex private key of the faucet account"`
	Address    string `desc:"Faucet account address, must match the private key if set"`

	RateLimitSecs       int      `split_words:"true" default:"86400" desc:"Cooldown window in seconds"`
	RateLimitExclusions []string `split_words:"true" desc:"List of user ids and addresses never rate limited"`

	SendValueWei        string `split_words:"true" default:"200000000000000000" desc:"Wei sent by the send ETH transaction"`
	SendGas             uint64 `split_words:"true" default:"25000" desc:"Gas limit of the send ETH transaction"`
	GasPriceWei         string `split_words:"true" default:"1000000000" desc:"Gas price in wei, 0 asks the node"`
	MintContractAddress string `split_words:"true" default:"0x8F9d07DF84B387d05f3bb1de77B9cc577cF3507E" desc:"Token contract minted from"`
	MintGas             uint64 `split_words:"true" default:"250000" desc:"Gas limit of the mint transaction"`
	MintMethodSignature string `split_words:"true" default:"mintAsOwner(address dst)" desc:"Owner only mint method"`

	TxRetries            int `split_words:"true" default:"3" desc:"Retries per transaction after the first attempt"`
	TxReceiptTimeoutSecs int `split_words:"true" default:"20" desc:"Seconds to wait for a receipt"`
	TxBackoffBaseSecs    int `split_words:"true" default:"1" desc:"Base of the exponential retry backoff in seconds"`

	Keywords []string `default:"#GyrosoftWeatherSimulator,@GyroStable,0x,Kovan" desc:"Substrings every message must contain"`

	TwitterSearchKeywords []string `split_words:"true" desc:"Keywords searched for on twitter, defaults to the keywords"`
	TwitterBearerToken    string   `split_words:"true" desc:"Twitter API bearer token"`
	TwitterAPIURL         string   `envconfig:"twitter_api_url" default:"https://api.twitter.com" desc:"Twitter API base url"`
	TwitterCronConfig     string   `split_words:"true" default:"* * * * *" desc:"Cron config string for twitter polling * * * * *"`
	TwitterRequestsPerMin int      `split_words:"true" default:"30" desc:"Max twitter search requests per minute"`

	DiscordBotToken string   `split_words:"true" desc:"Discord bot token"`
	DiscordChannels []string `split_words:"true" default:"testnet-faucet" desc:"Discord channel names served"`

	PubSubProjectID        string `envconfig:"pubsub_project_id" desc:"Sets the GPubSub project ID"`
	PubSubSubscriptionName string `envconfig:"pubsub_subscription_name" desc:"Sets the GPubSub subscription name"`
	PubSubCredentialsFile  string `envconfig:"pubsub_credentials_file" desc:"Sets the GPubSub credentials file, defaults to application credentials"`

	PersisterType            PersisterType `ignored:"true"`
	PersisterTypeName        string        `split_words:"true" default:"leveldb" desc:"Sets the persister type to use"`
	PersisterLeveldbPath     string        `split_words:"true" default:"rate_limit.db" desc:"If persister type is leveldb, sets the path"`
	PersisterSqlitePath      string        `split_words:"true" desc:"If persister type is sqlite3, sets the path"`
	PersisterPostgresAddress string        `split_words:"true" desc:"If persister type is Postgresql, sets the address"`
	PersisterPostgresPort    int           `split_words:"true" desc:"If persister type is Postgresql, sets the port"`
	PersisterPostgresDbname  string        `split_words:"true" desc:"If persister type is Postgresql, sets the database name"`
	PersisterPostgresUser    string        `split_words:"true" desc:"If persister type is Postgresql, sets the database user"`
	PersisterPostgresPw      string        `split_words:"true" desc:"If persister type is Postgresql, sets the database password"`

	ControlPort        int      `split_words:"true" default:"5000" desc:"Port of the control HTTP server"`
	ControlCorsOrigins []string `split_words:"true" desc:"Origins allowed to call the control server"`

	WorkerCount    int `split_words:"true" default:"4" desc:"Messages processed concurrently"`
	QueueSize      int `split_words:"true" default:"100" desc:"Messages queued before listeners block"`
	DedupCacheSize int `split_words:"true" default:"1024" desc:"Recent message ids remembered to drop redeliveries"`

	SendValue     *big.Int       `ignored:"true"`
	GasPrice      *big.Int       `ignored:"true"`
	SenderAddress common.Address `ignored:"true"`
	MintContract  common.Address `ignored:"true"`
}

// OutputUsage prints the usage string to os.Stdout
func (c *FaucetConfig) OutputUsage() {
	tabs := tabwriter.NewWriter(os.Stdout, 1, 0, 4, ' ', 0)
	_ = envconfig.Usagef(envVarPrefix, c, tabs, usageListFormat) // nolint: gosec
	_ = tabs.Flush()                                             // nolint: gosec
}

// PopulateFromEnv processes the environment vars, populates FaucetConfig
// with the respective values, and validates the values.
func (c *FaucetConfig) PopulateFromEnv() error {
	return c.PopulateFromEnvAndArgs(nil)
}

// PopulateFromEnvAndArgs processes the environment vars then applies the
// positional args <faucet-type> [search keywords...] over them, and validates
// the values.
func (c *FaucetConfig) PopulateFromEnvAndArgs(args []string) error {
	err := envconfig.Process(envVarPrefix, c)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		c.TypeName = args[0]
	}
	if len(args) > 1 {
		c.TwitterSearchKeywords = args[1:]
	}

	err = c.validateFaucetType()
	if err != nil {
		return err
	}

	err = c.validateAPIURL()
	if err != nil {
		return err
	}

	err = c.validateAccount()
	if err != nil {
		return err
	}

	err = c.validateTransactions()
	if err != nil {
		return err
	}

	err = c.validateListener()
	if err != nil {
		return err
	}

	err = c.populatePersisterType()
	if err != nil {
		return err
	}

	return c.validatePersister()
}

// RateLimitWindow returns the cooldown window
func (c *FaucetConfig) RateLimitWindow() time.Duration {
	return SecsToDuration(c.RateLimitSecs)
}

// ReceiptTimeout returns the bounded receipt wait
func (c *FaucetConfig) ReceiptTimeout() time.Duration {
	return SecsToDuration(c.TxReceiptTimeoutSecs)
}

// BackoffBase returns the base of the retry backoff
func (c *FaucetConfig) BackoffBase() time.Duration {
	return SecsToDuration(c.TxBackoffBaseSecs)
}

func (c *FaucetConfig) validateFaucetType() error {
	if c.TypeName == "" {
		return fmt.Errorf("Faucet type required; valid types %v", faucet.Names())
	}
	if !faucet.IsValidName(c.TypeName) {
		return fmt.Errorf("Invalid faucet type: %v; valid types %v", c.TypeName, faucet.Names())
	}
	return nil
}

func (c *FaucetConfig) validateAPIURL() error {
	if !IsValidEthAPIURL(c.EthAPIURL) {
		return fmt.Errorf("Invalid eth API URL: '%v'", c.EthAPIURL)
	}
	return nil
}

func (c *FaucetConfig) validateAccount() error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.PrivateKey, "0x"))
	if err != nil {
		return errors.New("Invalid private key")
	}
	c.SenderAddress = crypto.PubkeyToAddress(key.PublicKey)
	if c.Address == "" {
		return nil
	}
	if !common.IsHexAddress(c.Address) {
		return fmt.Errorf("Invalid address: '%v'", c.Address)
	}
	if common.HexToAddress(c.Address) != c.SenderAddress {
		return fmt.Errorf("Address %v does not match the private key address %v", c.Address,
			c.SenderAddress.Hex())
	}
	return nil
}

func (c *FaucetConfig) validateTransactions() error {
	var ok bool
	c.SendValue, ok = new(big.Int).SetString(c.SendValueWei, 10)
	if !ok || c.SendValue.Sign() < 0 {
		return fmt.Errorf("Invalid send value: '%v'", c.SendValueWei)
	}
	gasPrice, ok := new(big.Int).SetString(c.GasPriceWei, 10)
	if !ok || gasPrice.Sign() < 0 {
		return fmt.Errorf("Invalid gas price: '%v'", c.GasPriceWei)
	}
	c.GasPrice = nil
	if gasPrice.Sign() > 0 {
		c.GasPrice = gasPrice
	}
	if !common.IsHexAddress(c.MintContractAddress) {
		return fmt.Errorf("Invalid mint contract address: '%v'", c.MintContractAddress)
	}
	c.MintContract = common.HexToAddress(c.MintContractAddress)
	if c.RateLimitSecs < 0 {
		return fmt.Errorf("Invalid rate limit seconds: %v", c.RateLimitSecs)
	}
	if c.TxRetries < 0 {
		return fmt.Errorf("Invalid transaction retries: %v", c.TxRetries)
	}
	return nil
}

func (c *FaucetConfig) validateListener() error {
	switch c.TypeName {
	case faucet.TwitterKovanName:
		if c.TwitterBearerToken == "" {
			return errors.New("Twitter bearer token required")
		}
		return c.validateCronConfig()
	case faucet.DiscordKovanTokensName:
		if c.DiscordBotToken == "" {
			return errors.New("Discord bot token required")
		}
	case faucet.PubSubName:
		if c.PubSubProjectID == "" {
			return errors.New("Pubsub project ID required")
		}
		if c.PubSubSubscriptionName == "" {
			return errors.New("Pubsub subscription name required")
		}
	}
	return nil
}

func (c *FaucetConfig) validateCronConfig() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(c.TwitterCronConfig)
	if err != nil {
		return fmt.Errorf("Invalid cron config: '%v'", c.TwitterCronConfig)
	}
	return nil
}

func (c *FaucetConfig) validatePersister() error {
	var err error
	switch c.PersisterType {
	case PersisterTypePostgresql:
		err = c.validatePostgresqlPersister()
	case PersisterTypeLevelDB:
		if c.PersisterLeveldbPath == "" {
			err = errors.New("LevelDB path required")
		}
	case PersisterTypeSqlite:
		if c.PersisterSqlitePath == "" {
			err = errors.New("Sqlite path required")
		}
	}
	return err
}

func (c *FaucetConfig) validatePostgresqlPersister() error {
	if c.PersisterPostgresAddress == "" {
		return errors.New("Postgresql address required")
	}
	if c.PersisterPostgresPort == 0 {
		return errors.New("Postgresql port required")
	}
	if c.PersisterPostgresDbname == "" {
		return errors.New("Postgresql db name required")
	}
	return nil
}

func (c *FaucetConfig) populatePersisterType() error {
	var err error
	c.PersisterType, err = PersisterTypeFromName(c.PersisterTypeName)
	return err
}

// PersisterTypeFromName returns the correct persisterType from the string name
func PersisterTypeFromName(typeStr string) (PersisterType, error) {
	pType, ok := PersisterNameToType[typeStr]
	if !ok {
		validNames := make([]string, len(PersisterNameToType))
		index := 0
		for name := range PersisterNameToType {
			validNames[index] = name
			index++
		}
		return PersisterTypeInvalid,
			fmt.Errorf("Invalid persister value: %v; valid types %v", typeStr, validNames)
	}
	return pType, nil
}

// IsValidEthAPIURL returns true if the url is an http or websocket url
func IsValidEthAPIURL(apiURL string) bool {
	if apiURL == "" {
		return false
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return false
	}
	return validAPIURLSchemes[u.Scheme] && u.Host != ""
}
