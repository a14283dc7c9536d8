package commands

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"crypto-alert-bot/internal/chart"
	"crypto-alert-bot/internal/metrics"
	"crypto-alert-bot/internal/price"
	"crypto-alert-bot/internal/store"
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/translation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultPrefix = "!"

// Message is an inbound chat message as seen by the router.
type Message struct {
	Text        string
	ChannelID   types.ChannelID
	ChannelName string
	AuthorID    string
	// FromSelf is set for the bot's own messages and for other bots.
	FromSelf bool
}

// Reply is what a command sends back. Image, when set, is a PNG attachment.
type Reply struct {
	Text      string
	Image     []byte
	ImageName string
}

func (r Reply) Empty() bool {
	return r.Text == "" && len(r.Image) == 0
}

// Handler runs one command. args are the tokens after the command name.
type Handler func(ctx context.Context, msg Message, args []string) (Reply, error)

// Deps are the collaborators shared by every command.
type Deps struct {
	Source  price.Source
	Store   *store.Store
	Charts  *chart.Renderer
	Metrics *metrics.BotMetrics
	Now     func() time.Time
}

type Router struct {
	deps         Deps
	prefix       string
	replyUnknown bool
	commands     map[string]Handler
}

type Option func(*Router)

func WithPrefix(prefix string) Option {
	return func(r *Router) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithUnknownCommandReply makes the router answer commands it does not know
// instead of ignoring them.
func WithUnknownCommandReply(enabled bool) Option {
	return func(r *Router) { r.replyUnknown = enabled }
}

func NewRouter(deps Deps, opts ...Option) *Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := &Router{deps: deps, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(r)
	}

	r.commands = map[string]Handler{
		"say":          r.CommandSay,
		"price":        r.CommandPrice,
		"stats":        r.CommandStats,
		"chart":        r.CommandChart,
		"candle":       r.CommandCandle,
		"help":         r.CommandHelp,
		"alert set":    r.CommandAlertSet,
		"alert list":   r.CommandAlertList,
		"alert remove": r.CommandAlertRemove,
	}
	return r
}

func (r *Router) Prefix() string {
	return r.prefix
}

// Dispatch routes msg to its command and returns the reply. It returns false
// when the message is not for the bot and nothing should be sent.
func (r *Router) Dispatch(ctx context.Context, msg Message) (Reply, bool) {
	if msg.FromSelf || !strings.HasPrefix(msg.Text, r.prefix) {
		return Reply{}, false
	}

	name, handler, args := r.match(msg.Text)
	if handler == nil {
		log.Debugf("Ignoring unknown command %q", strings.SplitN(msg.Text, " ", 2)[0])
		if r.replyUnknown {
			return Reply{Text: translation.Translate("Unknown command. Type `%shelp` for the list of commands.", r.prefix)}, true
		}
		return Reply{}, false
	}

	r.deps.Metrics.ObserveMessage(string(msg.ChannelID), metrics.ChannelLabel(string(msg.ChannelID), msg.ChannelName))

	entry := log.WithFields(log.Fields{
		"request_id": uuid.NewString(),
		"command":    name,
		"channel":    msg.ChannelID,
		"author":     msg.AuthorID,
	})
	entry.Debugf("Processing command with arguments %q", args)

	reply, err := r.run(ctx, handler, msg, args)
	if err != nil {
		return r.errorReply(entry, err), true
	}

	r.deps.Metrics.ObserveCommand()
	return reply, !reply.Empty()
}

// match finds the handler for text. Two-word commands win over one-word ones.
func (r *Router) match(text string) (string, Handler, []string) {
	tokens := strings.Split(strings.TrimSpace(text), " ")
	first := strings.TrimPrefix(tokens[0], r.prefix)

	if len(tokens) > 1 {
		name := first + " " + tokens[1]
		if h, ok := r.commands[name]; ok {
			return name, h, tokens[2:]
		}
	}
	if h, ok := r.commands[first]; ok {
		return first, h, tokens[1:]
	}
	return first, nil, nil
}

// run calls the handler and turns a panic into an error so one bad command
// cannot take the message loop down.
func (r *Router) run(ctx context.Context, h Handler, msg Message, args []string) (reply Reply, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("Recovered from panic in command: %v\n%s", rec, debug.Stack())
			err = errors.Errorf("panic: %v", rec)
		}
	}()
	return h(ctx, msg, args)
}

func (r *Router) errorReply(entry *log.Entry, err error) Reply {
	var cmdErr *Error
	if !errors.As(err, &cmdErr) {
		entry.WithError(err).Error("Command failed")
		r.deps.Metrics.ObserveCommandError("internal")
		return Reply{Text: genericErrorMessage()}
	}

	switch cmdErr.Kind {
	case KindInput:
		entry.WithError(err).Debug("Rejected command input")
	case KindFetch:
		entry.WithError(err).Warn("Command could not fetch data")
	default:
		entry.WithError(err).Error("Command failed")
	}
	r.deps.Metrics.ObserveCommandError(string(cmdErr.Kind))
	return Reply{Text: cmdErr.Message}
}

// fields drops the empty tokens left by repeated spaces.
func fields(args []string) []string {
	out := args[:0:0]
	for _, a := range args {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (r *Router) usage(example string) *Error {
	return InputError(translation.Translate("Wrong format. Example: `%s%s`", r.prefix, example))
}
