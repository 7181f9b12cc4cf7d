package main

import (
	"flag"
	"os"

	log "github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/joincivil/civil-social-faucet/pkg/faucetmain"
	"github.com/joincivil/civil-social-faucet/pkg/utils"
)

func main() {
	config := &utils.FaucetConfig{}
	flag.Usage = func() {
		config.OutputUsage()
		os.Exit(0)
	}
	flag.Parse()

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Errorf("Error loading .env file: err: %v", err)
	}

	err = config.PopulateFromEnvAndArgs(flag.Args())
	if err != nil {
		config.OutputUsage()
		log.Errorf("Invalid faucet config: err: %v\n", err)
		os.Exit(2)
	}

	store, err := faucetmain.InitCooldownStore(config)
	if err != nil {
		log.Errorf("Error initializing cooldown store: err: %v", err)
		os.Exit(2)
	}

	err = faucetmain.RunFaucet(config, store)
	if err != nil {
		log.Errorf("Error running faucet: err: %v", err)
	}

	err = store.Close()
	if err != nil {
		log.Errorf("Error closing cooldown store: err: %v", err)
	}
	log.Flush()
}
