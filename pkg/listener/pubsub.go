package listener

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	log "github.com/golang/glog"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/joincivil/civil-social-faucet/pkg/model"
)

// PubSubMessage is the JSON payload of a faucet request published by an
// upstream bridge
type PubSubMessage struct {
	Source string                 `json:"source"`
	ID     string                 `json:"id"`
	UserID string                 `json:"user_id"`
	Text   string                 `json:"text"`
	Extra  map[string]interface{} `json:"extra"`
}

var validPubSubSources = map[model.Source]struct{}{
	model.SourceTwitter: {},
	model.SourceDiscord: {},
	model.SourceManual:  {},
}

// DecodePubSubMessage decodes a pubsub payload into a faucet message
func DecodePubSubMessage(data []byte) (*model.Message, error) {
	mess := &PubSubMessage{}
	err := json.Unmarshal(data, mess)
	if err != nil {
		return nil, errors.Wrap(err, "Error decoding pubsub message")
	}
	source := model.Source(mess.Source)
	if _, ok := validPubSubSources[source]; !ok {
		return nil, errors.Errorf("Invalid message source: '%v'", mess.Source)
	}
	return model.NewMessage(&model.MessageParams{
		Source: source,
		ID:     mess.ID,
		UserID: mess.UserID,
		Text:   mess.Text,
		Extra:  mess.Extra,
	}), nil
}

// NewPubSubListener returns a listener receiving from the subscription.
// credentialsFile is optional, application default credentials are used when
// empty.
func NewPubSubListener(ctx context.Context, projectID string, subName string,
	credentialsFile string, submitter Submitter) (*PubSubListener, error) {
	if projectID == "" {
		return nil, errors.New("Need PubSubProjectID")
	}
	if subName == "" {
		return nil, errors.New("Pubsub subscription name should be specified")
	}
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "Error creating pubsub client")
	}
	return &PubSubListener{
		client:    client,
		subName:   subName,
		submitter: submitter,
	}, nil
}

// PubSubListener receives faucet requests from a Google Pub/Sub subscription.
// Messages are acked on receipt.
type PubSubListener struct {
	client    *pubsub.Client
	subName   string
	submitter Submitter
}

// Listen receives until ctx is done
func (p *PubSubListener) Listen(ctx context.Context) error {
	sub := p.client.Subscription(p.subName)
	log.Infof("Receiving from pubsub subscription %v", p.subName)
	err := sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		msg.Ack()
		HandlePubSubData(ctx, msg.Data, p.submitter)
	})
	if err != nil {
		return errors.Wrap(err, "Error receiving from pubsub")
	}
	return nil
}

// Close closes the pubsub client
func (p *PubSubListener) Close() error {
	return p.client.Close()
}

// HandlePubSubData decodes data and submits the message. Undecodable payloads
// are logged and dropped.
func HandlePubSubData(ctx context.Context, data []byte, submitter Submitter) bool {
	message, err := DecodePubSubMessage(data)
	if err != nil {
		log.Errorf("Error processing message: err: %v", err)
		return false
	}
	return submitter.Submit(ctx, message, nil)
}
