package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

const (
	replyStoreTrouble = "❌ Something went wrong, please try again later."
	replyBadDelivery  = "❌ Invalid delivery type. Use 'dm' or 'server'."
	replyNotPermitted = "❌ Reminder not found or you don't have permission to change it."
)

// Service translates platform commands into store operations and renders
// user-facing replies. It is the only caller of the store besides the
// scheduler loop; adapters never touch persistence.
type Service struct {
	store storage.Store
	log   logx.Logger

	// now is swappable for tests.
	now func() time.Time
}

func New(store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

func (s *Service) Handle(ctx context.Context, req transport.CommandRequest) string {
	switch req.Name {
	case transport.CmdRemind:
		return s.remind(ctx, req)
	case transport.CmdList:
		return s.list(ctx, req)
	case transport.CmdEdit:
		return s.edit(ctx, req)
	case transport.CmdDelete:
		return s.delete(ctx, req)
	default:
		return fmt.Sprintf("❌ Unknown command %q.", req.Name)
	}
}

func (s *Service) remind(ctx context.Context, req transport.CommandRequest) string {
	timeText := req.Args["time"]
	message := strings.TrimSpace(req.Args["message"])
	if timeText == "" || message == "" {
		return "Usage: remind <time> <message> <dm|server>"
	}
	mode, ok := reminder.ParseMode(req.Args["delivery"])
	if !ok {
		return replyBadDelivery
	}

	now := s.now()
	due, err := reminder.Parse(timeText, now)
	if err != nil {
		return "❌ Error: " + err.Error()
	}

	r := reminder.Reminder{
		OwnerID:   req.OwnerID,
		Message:   message,
		Mode:      mode,
		DueAt:     due,
		CreatedAt: now,
	}
	if mode == reminder.ModeServer {
		r.ChannelID = req.ChannelID
	}

	id, err := s.store.Create(ctx, r)
	if err != nil {
		s.log.Error("reminder create failed", logx.String("owner", req.OwnerID), logx.Err(err))
		return replyStoreTrouble
	}

	return fmt.Sprintf("✅ Reminder set! I'll remind you about '%s' in %s.\nReminder ID: %d",
		message, timeUntil(due.Sub(now)), id)
}

func (s *Service) list(ctx context.Context, req transport.CommandRequest) string {
	now := s.now()
	active, err := s.store.ListActive(ctx, req.OwnerID, now)
	if err != nil {
		s.log.Error("reminder list failed", logx.String("owner", req.OwnerID), logx.Err(err))
		return replyStoreTrouble
	}
	if len(active) == 0 {
		return "📝 You have no active reminders."
	}

	var b strings.Builder
	b.WriteString("📝 Your Active Reminders\n")
	for _, r := range active {
		fmt.Fprintf(&b, "\nID: %d\nMessage: %s\nDelivery: %s\nTime until: %s\nCreated: %s\n",
			r.ID, r.Message, r.Mode, timeUntil(r.DueAt.Sub(now)),
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) edit(ctx context.Context, req transport.CommandRequest) string {
	id, ok := parseID(req.Args["id"])
	if !ok {
		return "❌ Invalid reminder id."
	}
	timeText := req.Args["time"]
	message := strings.TrimSpace(req.Args["message"])
	if timeText == "" || message == "" {
		return "Usage: reminder_edit <id> <time> <message> <dm|server>"
	}
	mode, modeOK := reminder.ParseMode(req.Args["delivery"])
	if !modeOK {
		return replyBadDelivery
	}

	due, err := reminder.Parse(timeText, s.now())
	if err != nil {
		return "❌ Error: " + err.Error()
	}

	r := reminder.Reminder{
		Message: message,
		Mode:    mode,
		DueAt:   due,
	}
	if mode == reminder.ModeServer {
		r.ChannelID = req.ChannelID
	}

	matched, err := s.store.Update(ctx, id, req.OwnerID, r)
	if err != nil {
		s.log.Error("reminder update failed", logx.Int64("id", id), logx.Err(err))
		return replyStoreTrouble
	}
	if !matched {
		return replyNotPermitted
	}
	return fmt.Sprintf("✅ Reminder %d updated successfully!", id)
}

func (s *Service) delete(ctx context.Context, req transport.CommandRequest) string {
	id, ok := parseID(req.Args["id"])
	if !ok {
		return "❌ Invalid reminder id."
	}
	matched, err := s.store.Delete(ctx, id, req.OwnerID)
	if err != nil {
		s.log.Error("reminder delete failed", logx.Int64("id", id), logx.Err(err))
		return replyStoreTrouble
	}
	if !matched {
		return replyNotPermitted
	}
	return fmt.Sprintf("✅ Reminder %d deleted successfully!", id)
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
