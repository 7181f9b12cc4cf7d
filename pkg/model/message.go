package model

// Source is the platform a message originated from
type Source string

const (
	// SourceTwitter is a message from the Twitter listener
	SourceTwitter Source = "twitter"

	// SourceDiscord is a message from the Discord listener
	SourceDiscord Source = "discord"

	// SourceManual is a message created by an operator
	SourceManual Source = "manual"
)

const (
	// ExtraIsRetweet is the extra key set by the Twitter listener when the message
	// is a retweet
	ExtraIsRetweet = "is_retweet"

	// ExtraChannelID is the extra key set by the Discord listener with the channel
	// the message was posted to
	ExtraChannelID = "channel_id"
)

// MessageParams are the params to initialize a new Message
type MessageParams struct {
	Source Source
	ID     string
	UserID string
	Text   string
	Extra  map[string]interface{}
}

// NewMessage is a convenience method to init a Message struct. Extra is copied
// so the message cannot be mutated through the params.
func NewMessage(params *MessageParams) *Message {
	extra := make(map[string]interface{}, len(params.Extra))
	for k, v := range params.Extra {
		extra[k] = v
	}
	return &Message{
		source: params.Source,
		id:     params.ID,
		userID: params.UserID,
		text:   params.Text,
		extra:  extra,
	}
}

// Message is a normalized social message handed from a listener to the executor
type Message struct {
	source Source

	// platform native identifier, opaque
	id string

	// platform native author identifier
	userID string

	// raw body, the recipient address and keywords are parsed from this
	text string

	extra map[string]interface{}
}

// Source returns the platform the message came from
func (m *Message) Source() Source {
	return m.source
}

// ID returns the platform native message id
func (m *Message) ID() string {
	return m.id
}

// UserID returns the platform native author id
func (m *Message) UserID() string {
	return m.userID
}

// Text returns the raw message body
func (m *Message) Text() string {
	return m.text
}

// Extra returns the source specific value stored for key
func (m *Message) Extra(key string) (interface{}, bool) {
	val, ok := m.extra[key]
	return val, ok
}

// ExtraString returns the source specific value for key if it is a string
func (m *Message) ExtraString(key string) string {
	val, ok := m.extra[key]
	if !ok {
		return ""
	}
	str, _ := val.(string)
	return str
}

// IsRetweet returns true if the listener flagged the message as a retweet
func (m *Message) IsRetweet() bool {
	val, ok := m.extra[ExtraIsRetweet]
	if !ok {
		return false
	}
	isRetweet, _ := val.(bool)
	return isRetweet
}
