package listener

import (
	"context"

	"github.com/bwmarrin/discordgo"
	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/joincivil/civil-social-faucet/pkg/model"
)

var statusEmojis = map[model.Status]string{
	model.StatusSuccess:     "👍",
	model.StatusRateLimited: "🚓",
	model.StatusInvalid:     "🤷‍♀️",
	model.StatusError:       "🚧",
}

// StatusEmoji returns the reaction posted for status
func StatusEmoji(status model.Status) string {
	return statusEmojis[status]
}

// NewDiscordMessage converts a discord message into a faucet message
func NewDiscordMessage(m *discordgo.Message) *model.Message {
	userID := ""
	if m.Author != nil {
		userID = m.Author.ID
	}
	return model.NewMessage(&model.MessageParams{
		Source: model.SourceDiscord,
		ID:     m.ID,
		UserID: userID,
		Text:   m.Content,
		Extra:  map[string]interface{}{model.ExtraChannelID: m.ChannelID},
	})
}

// NewDiscordListener returns a listener for the bot token. Only messages posted
// to the named channels are submitted, all channels if channels is empty.
func NewDiscordListener(token string, channels []string, submitter Submitter) *DiscordListener {
	var channelSet map[string]struct{}
	if len(channels) > 0 {
		channelSet = make(map[string]struct{}, len(channels))
		for _, channel := range channels {
			channelSet[channel] = struct{}{}
		}
	}
	return &DiscordListener{
		token:     token,
		channels:  channelSet,
		submitter: submitter,
	}
}

// DiscordListener receives messages over the discord gateway and reacts to each
// with the emoji for its status
type DiscordListener struct {
	token     string
	channels  map[string]struct{}
	submitter Submitter
}

// Listen connects to the gateway and blocks until ctx is done
func (d *DiscordListener) Listen(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return errors.Wrap(err, "Error creating discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Infof("Logged in discord as %v", r.User.Username)
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		d.onMessage(ctx, s, m)
	})

	err = session.Open()
	if err != nil {
		return errors.Wrap(err, "Error opening discord connection")
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Errorf("Error closing discord session: err: %v", err)
		}
	}()

	<-ctx.Done()
	return nil
}

// AllowsChannel returns true if messages from the named channel are submitted
func (d *DiscordListener) AllowsChannel(name string) bool {
	if d.channels == nil {
		return true
	}
	_, ok := d.channels[name]
	return ok
}

func (d *DiscordListener) onMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if !d.AllowsChannel(channelName(s, m.ChannelID)) {
		return
	}
	d.submitter.Submit(ctx, NewDiscordMessage(m.Message), &discordReactor{session: s})
}

func channelName(s *discordgo.Session, channelID string) string {
	if s.State != nil {
		channel, err := s.State.Channel(channelID)
		if err == nil {
			return channel.Name
		}
	}
	channel, err := s.Channel(channelID)
	if err != nil {
		log.Errorf("Error retrieving discord channel %v: err: %v", channelID, err)
		return ""
	}
	return channel.Name
}

type discordReactor struct {
	session *discordgo.Session
}

func (r *discordReactor) React(ctx context.Context, message *model.Message, status model.Status) error {
	emoji := StatusEmoji(status)
	if emoji == "" {
		return nil
	}
	return r.session.MessageReactionAdd(message.ExtraString(model.ExtraChannelID), message.ID(), emoji)
}
