package faucet_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/civil-social-faucet/pkg/faucet"
	"github.com/joincivil/civil-social-faucet/pkg/listener"
	"github.com/joincivil/civil-social-faucet/pkg/model"
	"github.com/joincivil/civil-social-faucet/pkg/validation"
)

const testRecipient = "0x8F9d07DF84B387d05f3bb1de77B9cc577cF3507E"

type nopSubmitter struct{}

func (nopSubmitter) Submit(ctx context.Context, message *model.Message, reactor listener.Reactor) bool {
	return true
}

func testParams() *faucet.Params {
	return &faucet.Params{
		SendValue:           big.NewInt(2e17),
		SendGas:             25000,
		MintContractAddress: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		MintGas:             250000,
		MintMethodSignature: "mintAsOwner(address dst)",
		Keywords:            []string{"#GyrosoftWeatherSimulator", "Kovan"},
		TwitterBearerToken:  "token",
		TwitterCronConfig:   "* * * * *",
		DiscordBotToken:     "token",
		DiscordChannels:     []string{"testnet-faucet"},
	}
}

func TestNewFaucetFromName(t *testing.T) {
	for _, name := range faucet.Names() {
		f, err := faucet.NewFaucetFromName(name, testParams())
		if err != nil {
			t.Errorf("Should have created faucet %v: err: %v", name, err)
			continue
		}
		if f.Name() != name {
			t.Errorf("Should have returned name %v, got %v", name, f.Name())
		}
	}
	_, err := faucet.NewFaucetFromName("ropsten", testParams())
	if err == nil {
		t.Errorf("Should have failed on an unknown faucet type")
	}
	if faucet.IsValidName("ropsten") {
		t.Errorf("Should not have considered ropsten a valid name")
	}
}

func TestKovanBuilderOrder(t *testing.T) {
	f := faucet.NewDiscordKovanTokensFaucet(testParams())
	builders, err := f.CreateTransactionBuilders()
	if err != nil {
		t.Fatalf("Should have created builders: err: %v", err)
	}
	if len(builders) != 2 {
		t.Fatalf("Should have created 2 builders, got %v", len(builders))
	}
	if builders[0].Name() != "send-eth" || builders[1].Name() != "mint-as-owner" {
		t.Errorf("Should have sent ETH before minting, got %v, %v", builders[0].Name(), builders[1].Name())
	}
	tx, err := builders[1].BuildTransaction(common.HexToAddress(testRecipient))
	if err != nil {
		t.Fatalf("Should have built the mint: err: %v", err)
	}
	if tx.To != common.HexToAddress("0x1111111111111111111111111111111111111111") || tx.Gas != 250000 {
		t.Errorf("Should have called the mint contract with the mint gas, got %v %v", tx.To.Hex(), tx.Gas)
	}
}

func TestBadMintSignature(t *testing.T) {
	params := testParams()
	params.MintMethodSignature = "mintAsOwner(address dst, uint256 amount)"
	_, err := faucet.NewTwitterKovanFaucet(params).CreateTransactionBuilders()
	if err == nil {
		t.Errorf("Should have failed on a mint method with two args")
	}
}

func TestTwitterKovanValidators(t *testing.T) {
	validators := faucet.NewTwitterKovanFaucet(testParams()).CreateValidators()
	retweet := model.NewMessage(&model.MessageParams{
		Source: model.SourceTwitter,
		Text:   "#GyrosoftWeatherSimulator Kovan " + testRecipient,
		Extra:  map[string]interface{}{model.ExtraIsRetweet: true},
	})
	err := validation.RunValidators(validators, retweet)
	if err == nil || err.Error() != "message is a retweet" {
		t.Errorf("Should have rejected the retweet first, got %v", err)
	}
	missing := model.NewMessage(&model.MessageParams{
		Source: model.SourceTwitter,
		Text:   "Kovan " + testRecipient,
	})
	if validation.RunValidators(validators, missing) == nil {
		t.Errorf("Should have rejected a tweet without the hashtag")
	}
}

func TestDiscordKovanTokensValidators(t *testing.T) {
	validators := faucet.NewDiscordKovanTokensFaucet(testParams()).CreateValidators()
	if len(validators) != 0 {
		t.Errorf("Should have no validators, got %v", len(validators))
	}
}

func TestPubSubValidators(t *testing.T) {
	validators := faucet.NewPubSubFaucet(testParams()).CreateValidators()
	message := model.NewMessage(&model.MessageParams{
		Source: model.SourceManual,
		Text:   "#GyrosoftWeatherSimulator Kovan " + testRecipient,
	})
	if err := validation.RunValidators(validators, message); err != nil {
		t.Errorf("Should have accepted a message with every keyword: err: %v", err)
	}
}

func TestCreateListenerRequiresTokens(t *testing.T) {
	params := testParams()
	params.TwitterBearerToken = ""
	params.DiscordBotToken = ""
	_, err := faucet.NewTwitterKovanFaucet(params).CreateListener(context.Background(), nopSubmitter{})
	if err == nil {
		t.Errorf("Should have required a twitter bearer token")
	}
	_, err = faucet.NewDiscordKovanTokensFaucet(params).CreateListener(context.Background(), nopSubmitter{})
	if err == nil {
		t.Errorf("Should have required a discord bot token")
	}
	_, err = faucet.NewPubSubFaucet(params).CreateListener(context.Background(), nopSubmitter{})
	if err == nil {
		t.Errorf("Should have required a pubsub project id")
	}
}

func TestCreateListener(t *testing.T) {
	_, err := faucet.NewTwitterKovanFaucet(testParams()).CreateListener(context.Background(), nopSubmitter{})
	if err != nil {
		t.Errorf("Should have created the twitter listener: err: %v", err)
	}
	_, err = faucet.NewDiscordKovanTokensFaucet(testParams()).CreateListener(context.Background(), nopSubmitter{})
	if err != nil {
		t.Errorf("Should have created the discord listener: err: %v", err)
	}
}
