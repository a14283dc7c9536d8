package telegram

import (
	"context"
	"strconv"
	"strings"

	"crypto-alert-bot/internal/commands"
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Telegram rejects messages longer than this.
const maxMessageLength = 4096

// NewBot creates new telegram bot
func NewBot(c BotConfig, router *commands.Router) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug
	log.Infof("Logged in to Telegram as %s", bot.Self.UserName)

	return &Bot{
		Bot:    bot,
		Config: c,
		router: router,
		ctx:    context.Background(),
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

// Run handles updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	updates := b.GetUpdatesChannel()

	for {
		select {
		case <-ctx.Done():
			b.Bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// SendMessage sends a telegram message as plain text, split to fit. It stops
// before the next chunk once ctx is done.
func (b *Bot) SendMessage(ctx context.Context, m Message) error {
	text := helpers.StripMarkdown(m.Text)
	for _, chunk := range helpers.SplitMessage(text, maxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(m.ChatID, chunk)
		msg.ReplyToMessageID = m.MessageID
		msg.DisableWebPagePreview = true
		if _, err := b.Bot.Send(msg); err != nil {
			return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
		}
	}
	return nil
}

// SendPhoto sends a PNG image.
func (b *Bot) SendPhoto(chatID int64, replyTo int, name string, data []byte) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  name,
		Bytes: data,
	})
	photo.ReplyToMessageID = replyTo
	_, err := b.Bot.Send(photo)
	return errors.Wrapf(err, "could not send photo to chat %d", chatID)
}

// Notify sends text to a chat. It satisfies alert.Notifier.
func (b *Bot) Notify(ctx context.Context, target types.ChannelID, text string) error {
	chatID, err := ParseChatID(target)
	if err != nil {
		return err
	}
	return b.SendMessage(ctx, Message{ChatID: chatID, Text: text})
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	if u.Message == nil {
		log.Debug("Received non-message update")
		return
	}

	reply, ok := b.router.Dispatch(ctx, ToCommandMessage(u.Message, b.router.Prefix()))
	if !ok {
		return
	}

	chatID := u.Message.Chat.ID
	if len(reply.Image) > 0 {
		if err := b.SendPhoto(chatID, u.Message.MessageID, reply.ImageName, reply.Image); err != nil {
			log.Errorf("Failed to send chart: %v", err)
			return
		}
	}
	if reply.Text != "" {
		err := b.SendMessage(ctx, Message{ChatID: chatID, MessageID: u.Message.MessageID, Text: reply.Text})
		if err != nil {
			log.Errorf("Failed to send message: %v", err)
		}
	}
}

// ToCommandMessage converts a Telegram message for the router. Slash commands
// such as /price@bot bitcoin are rewritten to use the router prefix.
func ToCommandMessage(m *tgbotapi.Message, prefix string) commands.Message {
	text := m.Text
	if m.IsCommand() {
		text = strings.TrimSpace(prefix + m.Command() + " " + m.CommandArguments())
	}

	msg := commands.Message{Text: text}
	if m.Chat != nil {
		msg.ChannelID = types.ChannelID(strconv.FormatInt(m.Chat.ID, 10))
		msg.ChannelName = m.Chat.Title
	}
	if m.From != nil {
		msg.AuthorID = strconv.FormatInt(m.From.ID, 10)
		msg.FromSelf = m.From.IsBot
	}
	return msg
}

// ParseChatID converts a stored notify target back to a Telegram chat id.
func ParseChatID(target types.ChannelID) (int64, error) {
	chatID, err := strconv.ParseInt(string(target), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid telegram chat id %q", target)
	}
	return chatID, nil
}
