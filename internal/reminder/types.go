package reminder

import (
	"strings"
	"time"
)

// Mode selects how a reminder is delivered when it fires.
type Mode string

const (
	// ModeDirect delivers privately to the owner.
	ModeDirect Mode = "dm"
	// ModeServer posts in the channel the reminder was created in,
	// mentioning the owner.
	ModeServer Mode = "server"
)

// ParseMode normalizes a user-supplied delivery word.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dm":
		return ModeDirect, true
	case "server":
		return ModeServer, true
	default:
		return "", false
	}
}

// Reminder is a single pending reminder.
//
// ChannelID is set if and only if Mode == ModeServer. A record is visible to
// active listings while DueAt is in the future and ceases to exist once
// dispatched; no history is retained.
type Reminder struct {
	ID        int64
	OwnerID   string
	ChannelID string
	Message   string
	Mode      Mode
	DueAt     time.Time
	CreatedAt time.Time
}
