// Package faucet contains the faucet configurations binding a listener to the
// validators and transaction builders run for each message
package faucet // import "github.com/joincivil/civil-social-faucet/pkg/faucet"

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/joincivil/civil-social-faucet/pkg/listener"
	"github.com/joincivil/civil-social-faucet/pkg/model"
	"github.com/joincivil/civil-social-faucet/pkg/txbuilder"
	"github.com/joincivil/civil-social-faucet/pkg/validation"
)

// Faucet is a faucet configuration
type Faucet interface {
	Name() string
	CreateTransactionBuilders() ([]model.TransactionBuilder, error)
	CreateValidators() []model.Validator
	CreateListener(ctx context.Context, submitter listener.Submitter) (listener.Listener, error)
}

// Params are the settings shared by the faucet configurations
type Params struct {
	SendValue           *big.Int
	SendGas             uint64
	MintContractAddress common.Address
	MintGas             uint64
	MintMethodSignature string

	// required substrings for the keywords validator
	Keywords []string

	TwitterSearchKeywords []string
	TwitterBearerToken    string
	TwitterAPIURL         string
	TwitterCronConfig     string
	TwitterRequestsPerMin int

	DiscordBotToken string
	DiscordChannels []string

	PubSubProjectID        string
	PubSubSubscriptionName string
	PubSubCredentialsFile  string
}

// kovanBuilders sends ETH for gas then mints tokens to the recipient
func kovanBuilders(params *Params) ([]model.TransactionBuilder, error) {
	mint, err := txbuilder.NewMintAsOwnerTransactionBuilder(params.MintContractAddress,
		params.MintGas, params.MintMethodSignature)
	if err != nil {
		return nil, err
	}
	return []model.TransactionBuilder{
		txbuilder.NewSendETHTransactionBuilder(params.SendValue, params.SendGas),
		mint,
	}, nil
}

// NewTwitterKovanFaucet returns the faucet disbursing to tweets
func NewTwitterKovanFaucet(params *Params) *TwitterKovanFaucet {
	return &TwitterKovanFaucet{params: params}
}

// TwitterKovanFaucet polls twitter search and requires the keywords in an
// original tweet
type TwitterKovanFaucet struct {
	params *Params
}

// Name returns the faucet type name
func (f *TwitterKovanFaucet) Name() string {
	return TwitterKovanName
}

// CreateTransactionBuilders returns the send ETH and mint builders
func (f *TwitterKovanFaucet) CreateTransactionBuilders() ([]model.TransactionBuilder, error) {
	return kovanBuilders(f.params)
}

// CreateValidators returns the retweet and keywords validators
func (f *TwitterKovanFaucet) CreateValidators() []model.Validator {
	return []model.Validator{
		&validation.RetweetValidator{},
		validation.NewKeywordsValidator(f.params.Keywords),
	}
}

// CreateListener returns the twitter polling listener
func (f *TwitterKovanFaucet) CreateListener(ctx context.Context,
	submitter listener.Submitter) (listener.Listener, error) {
	if f.params.TwitterBearerToken == "" {
		return nil, errors.New("Twitter bearer token required")
	}
	keywords := f.params.TwitterSearchKeywords
	if len(keywords) == 0 {
		keywords = f.params.Keywords
	}
	return listener.NewTwitterListener(&listener.NewTwitterListenerParams{
		Searcher: listener.NewTwitterSearchClient(f.params.TwitterAPIURL,
			f.params.TwitterBearerToken, f.params.TwitterRequestsPerMin),
		Keywords:   keywords,
		CronConfig: f.params.TwitterCronConfig,
		Submitter:  submitter,
	})
}

// NewDiscordKovanTokensFaucet returns the faucet disbursing to discord messages
func NewDiscordKovanTokensFaucet(params *Params) *DiscordKovanTokensFaucet {
	return &DiscordKovanTokensFaucet{params: params}
}

// DiscordKovanTokensFaucet listens on the allowed discord channels. Any message
// containing an address is served.
type DiscordKovanTokensFaucet struct {
	params *Params
}

// Name returns the faucet type name
func (f *DiscordKovanTokensFaucet) Name() string {
	return DiscordKovanTokensName
}

// CreateTransactionBuilders returns the send ETH and mint builders
func (f *DiscordKovanTokensFaucet) CreateTransactionBuilders() ([]model.TransactionBuilder, error) {
	return kovanBuilders(f.params)
}

// CreateValidators returns no validators
func (f *DiscordKovanTokensFaucet) CreateValidators() []model.Validator {
	return []model.Validator{}
}

// CreateListener returns the discord gateway listener
func (f *DiscordKovanTokensFaucet) CreateListener(ctx context.Context,
	submitter listener.Submitter) (listener.Listener, error) {
	if f.params.DiscordBotToken == "" {
		return nil, errors.New("Discord bot token required")
	}
	return listener.NewDiscordListener(f.params.DiscordBotToken, f.params.DiscordChannels, submitter), nil
}

// NewPubSubFaucet returns the faucet consuming bridged messages
func NewPubSubFaucet(params *Params) *PubSubFaucet {
	return &PubSubFaucet{params: params}
}

// PubSubFaucet consumes normalized messages from a pubsub subscription
type PubSubFaucet struct {
	params *Params
}

// Name returns the faucet type name
func (f *PubSubFaucet) Name() string {
	return PubSubName
}

// CreateTransactionBuilders returns the send ETH and mint builders
func (f *PubSubFaucet) CreateTransactionBuilders() ([]model.TransactionBuilder, error) {
	return kovanBuilders(f.params)
}

// CreateValidators returns the keywords validator
func (f *PubSubFaucet) CreateValidators() []model.Validator {
	return []model.Validator{validation.NewKeywordsValidator(f.params.Keywords)}
}

// CreateListener returns the pubsub listener
func (f *PubSubFaucet) CreateListener(ctx context.Context,
	submitter listener.Submitter) (listener.Listener, error) {
	return listener.NewPubSubListener(ctx, f.params.PubSubProjectID, f.params.PubSubSubscriptionName,
		f.params.PubSubCredentialsFile, submitter)
}
