package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type Config struct {
	Token string
	// GuildID scopes slash command registration to one guild (instant
	// propagation, useful for staging). Empty registers globally.
	GuildID string
}

// Adapter binds the bot to Discord: slash commands in, deliveries out.
type Adapter struct {
	cfg Config
	log logx.Logger

	session *discordgo.Session

	mu      sync.Mutex
	handler transport.CommandHandler
	running bool

	ready     chan struct{}
	readyOnce sync.Once
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("discord token is empty")
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, session: s, ready: make(chan struct{})}
	s.AddHandler(a.onReady)
	s.AddHandler(a.onInteraction)
	return a, nil
}

func (a *Adapter) Start(ctx context.Context, h transport.CommandHandler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return errors.New("discord adapter already started")
	}
	a.handler = h
	if err := a.session.Open(); err != nil {
		return fmt.Errorf("discord session open: %w", err)
	}
	a.running = true
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.running = false
	return a.session.Close()
}

// Ready is closed after the gateway handshake completes and the slash
// commands have been registered.
func (a *Adapter) Ready() <-chan struct{} { return a.ready }

func (a *Adapter) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := a.registerCommands(s); err != nil {
		a.log.Error("slash command registration failed", logx.Err(err))
	}
	a.readyOnce.Do(func() { close(a.ready) })
	a.log.Info("discord session ready", logx.String("user", r.User.Username))
}

func (a *Adapter) registerCommands(s *discordgo.Session) error {
	cmds := []*discordgo.ApplicationCommand{
		{
			Name:        transport.CmdRemind,
			Description: "Set a reminder",
			Options: []*discordgo.ApplicationCommandOption{
				stringOpt("time", "When to fire: 30s, 5m, 2h, 1d, 1w, 1mo, 1y, '2 hours 30 minutes', or '20-09-2025 14:30'", true),
				stringOpt("message", "What to remind you about", true),
				stringOpt("delivery", "How to deliver it: 'dm' or 'server'", true),
			},
		},
		{
			Name:        transport.CmdList,
			Description: "List all your active reminders",
		},
		{
			Name:        transport.CmdEdit,
			Description: "Edit an existing reminder",
			Options: []*discordgo.ApplicationCommandOption{
				stringOpt("id", "ID of the reminder to edit", true),
				stringOpt("time", "New time for the reminder", true),
				stringOpt("message", "New message for the reminder", true),
				stringOpt("delivery", "New delivery method: 'dm' or 'server'", true),
			},
		},
		{
			Name:        transport.CmdDelete,
			Description: "Delete a reminder",
			Options: []*discordgo.ApplicationCommandOption{
				stringOpt("id", "ID of the reminder to delete", true),
			},
		},
	}
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, a.cfg.GuildID, cmds)
	return err
}

func stringOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: desc,
		Required:    required,
	}
}

func (a *Adapter) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	a.mu.Lock()
	h := a.handler
	a.mu.Unlock()
	if h == nil {
		return
	}

	data := i.ApplicationCommandData()
	args := make(map[string]string, len(data.Options))
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			args[opt.Name] = opt.StringValue()
		}
	}

	var user *discordgo.User
	if i.Member != nil {
		user = i.Member.User
	} else {
		user = i.User
	}
	if user == nil {
		return
	}

	reply := h.Handle(context.Background(), transport.CommandRequest{
		Platform:  "discord",
		OwnerID:   user.ID,
		ChannelID: i.ChannelID,
		Name:      data.Name,
		Args:      args,
	})

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		a.log.Warn("interaction response failed", logx.String("command", data.Name), logx.Err(err))
	}
}

func (a *Adapter) SendDirect(ctx context.Context, userID, text string) error {
	ch, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err)
	}
	_, err = a.session.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx))
	return classify(err)
}

func (a *Adapter) PostInChannel(ctx context.Context, channelID, userID, text string) error {
	content := fmt.Sprintf("<@%s> %s", userID, text)
	_, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return classify(err)
}

// classify maps Discord REST errors onto the transport sentinels the
// dispatcher knows how to swallow.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeCannotSendMessagesToThisUser:
			return fmt.Errorf("%w: %s", transport.ErrUnreachable, rest.Message.Message)
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%w: %s", transport.ErrChannelMissing, rest.Message.Message)
		}
	}
	return err
}
