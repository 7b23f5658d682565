package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Adapter binds the bot to Telegram. Slash commands take pipe-separated
// arguments because Telegram has no structured command options:
//
//	/remind 2 hours 30 minutes | take out the trash | dm
//	/reminder_edit 4 | 1d | new text | server
type Adapter struct {
	cfg Config
	log logx.Logger

	bot *tele.Bot

	mu      sync.Mutex
	handler transport.CommandHandler
	running bool

	ready     chan struct{}
	readyOnce sync.Once
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b, ready: make(chan struct{})}
	a.registerHandlers()
	return a, nil
}

func (a *Adapter) registerHandlers() {
	handle := func(name string, argNames []string) func(tele.Context) error {
		return func(c tele.Context) error {
			a.mu.Lock()
			h := a.handler
			a.mu.Unlock()
			if h == nil || c.Sender() == nil || c.Chat() == nil {
				return nil
			}

			args := map[string]string{}
			if len(argNames) > 0 {
				parts := strings.Split(c.Message().Payload, "|")
				for i, p := range parts {
					if i >= len(argNames) {
						break
					}
					args[argNames[i]] = strings.TrimSpace(p)
				}
			}

			reply := h.Handle(context.Background(), transport.CommandRequest{
				Platform:  "telegram",
				OwnerID:   strconv.FormatInt(c.Sender().ID, 10),
				ChannelID: strconv.FormatInt(c.Chat().ID, 10),
				Name:      name,
				Args:      args,
			})
			return c.Send(reply)
		}
	}

	a.bot.Handle("/"+transport.CmdRemind, handle(transport.CmdRemind, []string{"time", "message", "delivery"}))
	a.bot.Handle("/"+transport.CmdList, handle(transport.CmdList, nil))
	a.bot.Handle("/"+transport.CmdEdit, handle(transport.CmdEdit, []string{"id", "time", "message", "delivery"}))
	a.bot.Handle("/"+transport.CmdDelete, handle(transport.CmdDelete, []string{"id"}))
}

func (a *Adapter) Start(ctx context.Context, h transport.CommandHandler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return errors.New("telegram adapter already started")
	}
	a.handler = h

	_ = a.bot.SetCommands([]tele.Command{
		{Text: transport.CmdRemind, Description: "Set a reminder"},
		{Text: transport.CmdList, Description: "List your active reminders"},
		{Text: transport.CmdEdit, Description: "Edit a reminder"},
		{Text: transport.CmdDelete, Description: "Delete a reminder"},
	})

	// NewBot already verified the token against the API, so the session is
	// established; the poller just has to run.
	go a.bot.Start()
	a.running = true
	a.readyOnce.Do(func() { close(a.ready) })
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.running = false
	a.bot.Stop()
	return nil
}

func (a *Adapter) Ready() <-chan struct{} { return a.ready }

func (a *Adapter) SendDirect(ctx context.Context, userID, text string) error {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad telegram user id %q", transport.ErrUnreachable, userID)
	}
	_, err = a.bot.Send(tele.ChatID(id), text)
	return classify(err)
}

func (a *Adapter) PostInChannel(ctx context.Context, channelID, userID, text string) error {
	id, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad telegram chat id %q", transport.ErrChannelMissing, channelID)
	}
	mention := fmt.Sprintf(`<a href="tg://user?id=%s">reminder</a> %s`, userID, text)
	_, err = a.bot.Send(tele.ChatID(id), mention, tele.ModeHTML)
	return classify(err)
}

// classify maps Telegram API errors onto the transport sentinels the
// dispatcher knows how to swallow.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, tele.ErrBlockedByUser),
		errors.Is(err, tele.ErrNotStartedByUser),
		errors.Is(err, tele.ErrUserIsDeactivated):
		return fmt.Errorf("%w: %v", transport.ErrUnreachable, err)
	case errors.Is(err, tele.ErrChatNotFound),
		errors.Is(err, tele.ErrKickedFromGroup),
		errors.Is(err, tele.ErrKickedFromSuperGroup):
		return fmt.Errorf("%w: %v", transport.ErrChannelMissing, err)
	}
	return err
}
