package discord

import (
	"bytes"
	"context"
	"io"

	"crypto-alert-bot/internal/commands"
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Discord rejects messages longer than this.
const maxMessageLength = 2000

// sender is the part of *discordgo.Session used to post messages.
type sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelFileSend(channelID, name string, r io.Reader, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot connects the command router to a Discord gateway session.
type Bot struct {
	session *discordgo.Session
	sender  sender
	router  *commands.Router
	ctx     context.Context
}

func NewBot(token string, router *commands.Router, debug bool) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create discord session")
	}

	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent
	if debug {
		session.LogLevel = discordgo.LogInformational
	}

	b := &Bot{
		session: session,
		sender:  session,
		router:  router,
		ctx:     context.Background(),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

// Open connects to the gateway. Commands run with ctx until Close.
func (b *Bot) Open(ctx context.Context) error {
	b.ctx = ctx
	return errors.Wrap(b.session.Open(), "could not open discord session")
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// Run keeps the session open until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Open(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return b.Close()
}

// Notify sends text to a channel. It satisfies alert.Notifier.
func (b *Bot) Notify(ctx context.Context, target types.ChannelID, text string) error {
	return b.sendText(ctx, string(target), text)
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Infof("Logged in to Discord as %s", r.User.String())
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	var selfID, channelName string
	if s.State != nil {
		if s.State.User != nil {
			selfID = s.State.User.ID
		}
		if ch, err := s.State.Channel(m.ChannelID); err == nil {
			channelName = ch.Name
		}
	}

	b.handle(b.ctx, toCommandMessage(m.Message, selfID, channelName))
}

// handle dispatches msg and posts the reply to its channel.
func (b *Bot) handle(ctx context.Context, msg commands.Message) {
	reply, ok := b.router.Dispatch(ctx, msg)
	if !ok {
		return
	}

	channelID := string(msg.ChannelID)
	var err error
	if len(reply.Image) > 0 {
		_, err = b.sender.ChannelFileSend(channelID, reply.ImageName, bytes.NewReader(reply.Image), discordgo.WithContext(ctx))
	}
	if err == nil && reply.Text != "" {
		err = b.sendText(ctx, channelID, reply.Text)
	}
	if err != nil {
		log.WithField("channel", channelID).Errorf("Failed to send reply: %v", err)
	}
}

func (b *Bot) sendText(ctx context.Context, channelID, text string) error {
	for _, chunk := range helpers.SplitMessage(text, maxMessageLength) {
		if _, err := b.sender.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return errors.Wrapf(err, "could not send message to channel %s", channelID)
		}
	}
	return nil
}

func toCommandMessage(m *discordgo.Message, selfID, channelName string) commands.Message {
	msg := commands.Message{
		Text:        m.Content,
		ChannelID:   types.ChannelID(m.ChannelID),
		ChannelName: channelName,
	}
	if m.Author == nil {
		msg.FromSelf = true
		return msg
	}
	msg.AuthorID = m.Author.ID
	msg.FromSelf = m.Author.Bot || m.Author.ID == selfID
	return msg
}
