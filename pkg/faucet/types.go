package faucet

import (
	"sort"

	"github.com/pkg/errors"
)

const (
	// TwitterKovanName is the name of the twitter faucet
	TwitterKovanName = "twitter-kovan"

	// DiscordKovanTokensName is the name of the discord faucet
	DiscordKovanTokensName = "discord-kovan-tokens"

	// PubSubName is the name of the pubsub faucet
	PubSubName = "pubsub"
)

var nameToConstructor = map[string]func(params *Params) Faucet{
	TwitterKovanName: func(params *Params) Faucet {
		return NewTwitterKovanFaucet(params)
	},
	DiscordKovanTokensName: func(params *Params) Faucet {
		return NewDiscordKovanTokensFaucet(params)
	},
	PubSubName: func(params *Params) Faucet {
		return NewPubSubFaucet(params)
	},
}

// Names returns the valid faucet type names, sorted
func Names() []string {
	names := make([]string, 0, len(nameToConstructor))
	for name := range nameToConstructor {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidName returns true if name is a faucet type name
func IsValidName(name string) bool {
	_, ok := nameToConstructor[name]
	return ok
}

// NewFaucetFromName returns the faucet configuration for the type name
func NewFaucetFromName(name string, params *Params) (Faucet, error) {
	constructor, ok := nameToConstructor[name]
	if !ok {
		return nil, errors.Errorf("Invalid faucet type: %v; valid types %v", name, Names())
	}
	return constructor(params), nil
}
