// Package utils_test contains tests for the config utils
package utils_test

import (
	"os"
	"testing"
	"time"

	"github.com/joincivil/civil-social-faucet/pkg/utils"
)

const (
	testPrivateKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	testKeyAddress = "0x71562b71999873DB5b286dF957af199Ec94617F7"
)

var faucetEnvVars = []string{
	"FAUCET_TYPE_NAME",
	"FAUCET_ETH_API_URL",
	"FAUCET_PRIVATE_KEY",
	"FAUCET_ADDRESS",
	"FAUCET_GAS_PRICE_WEI",
	"FAUCET_SEND_VALUE_WEI",
	"FAUCET_TWITTER_BEARER_TOKEN",
	"FAUCET_TWITTER_CRON_CONFIG",
	"FAUCET_TWITTER_SEARCH_KEYWORDS",
	"FAUCET_DISCORD_BOT_TOKEN",
	"FAUCET_PUBSUB_PROJECT_ID",
	"FAUCET_PUBSUB_SUBSCRIPTION_NAME",
	"FAUCET_PERSISTER_TYPE_NAME",
	"FAUCET_PERSISTER_POSTGRES_ADDRESS",
	"FAUCET_PERSISTER_POSTGRES_PORT",
	"FAUCET_PERSISTER_POSTGRES_DBNAME",
	"FAUCET_PERSISTER_SQLITE_PATH",
}

func setBaseEnv(t *testing.T) {
	for _, name := range faucetEnvVars {
		t.Setenv(name, "")
		os.Unsetenv(name) // nolint: errcheck
	}
	t.Setenv(
		"FAUCET_TYPE_NAME",
		"discord-kovan-tokens",
	)
	t.Setenv(
		"FAUCET_ETH_API_URL",
		"http://ethaddress.com",
	)
	t.Setenv(
		"FAUCET_PRIVATE_KEY",
		testPrivateKey,
	)
	t.Setenv(
		"FAUCET_DISCORD_BOT_TOKEN",
		"bottoken",
	)
}

func TestFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err != nil {
		t.Fatalf("Failed to populate from environment: err: %v", err)
	}
	if config.SenderAddress.Hex() != testKeyAddress {
		t.Errorf("Should have derived the sender address, got %v", config.SenderAddress.Hex())
	}
	if config.RateLimitWindow() != 24*time.Hour {
		t.Errorf("Should have defaulted the window to a day, got %v", config.RateLimitWindow())
	}
	if config.SendValue.String() != "200000000000000000" {
		t.Errorf("Should have defaulted the send value, got %v", config.SendValue)
	}
	if config.GasPrice == nil || config.GasPrice.Int64() != 1000000000 {
		t.Errorf("Should have defaulted the gas price, got %v", config.GasPrice)
	}
	if config.PersisterType != utils.PersisterTypeLevelDB {
		t.Errorf("Should have defaulted to leveldb, got %v", config.PersisterType)
	}
	if len(config.Keywords) != 4 || config.Keywords[0] != "#GyrosoftWeatherSimulator" {
		t.Errorf("Should have defaulted the keywords, got %v", config.Keywords)
	}
	if len(config.DiscordChannels) != 1 || config.DiscordChannels[0] != "testnet-faucet" {
		t.Errorf("Should have defaulted the discord channels, got %v", config.DiscordChannels)
	}
	if config.TxRetries != 3 || config.ReceiptTimeout() != 20*time.Second ||
		config.BackoffBase() != time.Second {
		t.Errorf("Should have defaulted the retry settings")
	}
}

func TestZeroGasPriceFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_GAS_PRICE_WEI",
		"0",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err != nil {
		t.Fatalf("Failed to populate from environment: err: %v", err)
	}
	if config.GasPrice != nil {
		t.Errorf("Should have left the gas price to the node, got %v", config.GasPrice)
	}
}

func TestArgsFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_TWITTER_BEARER_TOKEN",
		"bearer",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnvAndArgs([]string{"twitter-kovan", "#GyrosoftWeatherSimulator", "Kovan"})
	if err != nil {
		t.Fatalf("Failed to populate from environment and args: err: %v", err)
	}
	if config.TypeName != "twitter-kovan" {
		t.Errorf("Should have taken the faucet type from args, got %v", config.TypeName)
	}
	if len(config.TwitterSearchKeywords) != 2 || config.TwitterSearchKeywords[1] != "Kovan" {
		t.Errorf("Should have taken the search keywords from args, got %v", config.TwitterSearchKeywords)
	}
}

func TestBadFaucetTypeFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_TYPE_NAME",
		"ropsten",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have failed to allow bad faucet type from environment: err: %v", err)
	}
}

func TestMissingFaucetTypeFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	os.Unsetenv("FAUCET_TYPE_NAME") // nolint: errcheck
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have required a faucet type: err: %v", err)
	}
}

func TestBadAPIURLFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_ETH_API_URL",
		"ethaddress",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have failed to allow bad eth API URL: err: %v", err)
	}
}

func TestBadPrivateKeyFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_PRIVATE_KEY",
		"notakey",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have failed to allow bad private key: err: %v", err)
	}
}

func TestMismatchedAddressFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_ADDRESS",
		"0x8F9d07DF84B387d05f3bb1de77B9cc577cF3507E",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have failed on an address not matching the key: err: %v", err)
	}

	t.Setenv(
		"FAUCET_ADDRESS",
		"0x71562b71999873db5b286df957af199ec94617f7",
	)
	config = &utils.FaucetConfig{}
	err = config.PopulateFromEnv()
	if err != nil {
		t.Errorf("Should have allowed the key address in any case: err: %v", err)
	}
}

func TestBadSendValueFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_SEND_VALUE_WEI",
		"0.2",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have failed to allow a fractional wei value: err: %v", err)
	}
}

func TestMissingTwitterTokenFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_TYPE_NAME",
		"twitter-kovan",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have required a twitter bearer token: err: %v", err)
	}
}

func TestBadCronConfigFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_TYPE_NAME",
		"twitter-kovan",
	)
	t.Setenv(
		"FAUCET_TWITTER_BEARER_TOKEN",
		"bearer",
	)
	t.Setenv(
		"FAUCET_TWITTER_CRON_CONFIG",
		"* * * * * * *",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have failed to allow bad cron config from environment: err: %v", err)
	}
}

func TestMissingPubSubFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_TYPE_NAME",
		"pubsub",
	)
	t.Setenv(
		"FAUCET_PUBSUB_PROJECT_ID",
		"civil-media",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have required a pubsub subscription name: err: %v", err)
	}
}

func TestBadPersisterNameFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	//Bad persister name
	t.Setenv(
		"FAUCET_PERSISTER_TYPE_NAME",
		"mysql",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have failed to allow bad persister type from environment: err: %v", err)
	}
}

func TestPostgresqlPersisterFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_PERSISTER_TYPE_NAME",
		"postgresql",
	)
	t.Setenv(
		"FAUCET_PERSISTER_POSTGRES_ADDRESS",
		"localhost",
	)
	t.Setenv(
		"FAUCET_PERSISTER_POSTGRES_PORT",
		"5432",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have failed without a postgresql db name: err: %v", err)
	}

	t.Setenv(
		"FAUCET_PERSISTER_POSTGRES_DBNAME",
		"civil_faucet",
	)
	config = &utils.FaucetConfig{}
	err = config.PopulateFromEnv()
	if err != nil {
		t.Errorf("Failed to populate postgresql persister from environment: err: %v", err)
	}
}

func TestSqlitePersisterFaucetConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(
		"FAUCET_PERSISTER_TYPE_NAME",
		"sqlite3",
	)
	config := &utils.FaucetConfig{}
	err := config.PopulateFromEnv()
	if err == nil {
		t.Errorf("Should have required a sqlite path: err: %v", err)
	}
}
