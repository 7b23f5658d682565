package transport

import (
	"context"
	"errors"
)

// Delivery failure classes the dispatcher distinguishes. Anything else from
// an adapter is an unexpected platform error.
var (
	// ErrUnreachable means the recipient cannot receive direct messages
	// (blocked the bot, closed DMs, deactivated account).
	ErrUnreachable = errors.New("recipient unreachable")
	// ErrChannelMissing means the target channel no longer exists or the
	// bot can no longer see it.
	ErrChannelMissing = errors.New("channel missing")
)

// Command names the adapters translate platform input into.
const (
	CmdRemind = "remind"
	CmdList   = "reminders"
	CmdEdit   = "reminder_edit"
	CmdDelete = "reminder_delete"
)

// CommandRequest is one parsed platform command. Owner and channel ids are
// opaque platform identifiers; the core never interprets them.
type CommandRequest struct {
	Platform  string // "discord" or "telegram"
	OwnerID   string
	ChannelID string
	Name      string
	Args      map[string]string // "time", "message", "delivery", "id"
}

// CommandHandler turns a command into user-facing reply text. All failures
// are translated into text by the handler; adapters only render the reply.
type CommandHandler interface {
	Handle(ctx context.Context, req CommandRequest) (reply string)
}

// Notifier is the delivery surface the dispatcher uses.
type Notifier interface {
	// SendDirect delivers text privately to a user.
	SendDirect(ctx context.Context, userID, text string) error
	// PostInChannel posts text in a channel, mentioning the user.
	PostInChannel(ctx context.Context, channelID, userID, text string) error
}

// Adapter is a chat platform binding: it feeds commands to the handler and
// carries outgoing deliveries.
type Adapter interface {
	Notifier

	// Start connects the platform session and begins dispatching commands
	// to h. It does not block.
	Start(ctx context.Context, h CommandHandler) error
	Stop(ctx context.Context) error

	// Ready is closed once the platform session is established. The
	// scheduler loop defers its first tick until then.
	Ready() <-chan struct{}
}
