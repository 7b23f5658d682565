package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

func newTestService(t *testing.T) (*Service, *storage.Memory, time.Time) {
	t.Helper()
	st := storage.NewMemory()
	svc := New(st, logx.Nop())
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return now }
	return svc, st, now
}

func remindReq(args map[string]string) transport.CommandRequest {
	return transport.CommandRequest{
		Platform: "discord", OwnerID: "u1", ChannelID: "c1",
		Name: transport.CmdRemind, Args: args,
	}
}

func TestRemindCreatesRecord(t *testing.T) {
	t.Parallel()
	svc, st, now := newTestService(t)
	ctx := context.Background()

	reply := svc.Handle(ctx, remindReq(map[string]string{
		"time": "5m", "message": "walk the dog", "delivery": "dm",
	}))
	if !strings.Contains(reply, "Reminder set!") || !strings.Contains(reply, "5 minutes") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !strings.Contains(reply, "Reminder ID: 1") {
		t.Fatalf("reply missing id: %q", reply)
	}

	active, err := st.ListActive(ctx, "u1", now)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 record, got %d", len(active))
	}
	r := active[0]
	if r.Message != "walk the dog" || r.Mode != reminder.ModeDirect {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.ChannelID != "" {
		t.Fatalf("dm reminder must not carry a channel id, got %q", r.ChannelID)
	}
	if !r.DueAt.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("unexpected due time: %v", r.DueAt)
	}
}

func TestRemindServerModeKeepsChannel(t *testing.T) {
	t.Parallel()
	svc, st, now := newTestService(t)
	ctx := context.Background()

	svc.Handle(ctx, remindReq(map[string]string{
		"time": "1h", "message": "standup", "delivery": "server",
	}))
	active, _ := st.ListActive(ctx, "u1", now)
	if len(active) != 1 || active[0].ChannelID != "c1" || active[0].Mode != reminder.ModeServer {
		t.Fatalf("server reminder should carry the origin channel: %+v", active)
	}
}

func TestRemindRejectsBadInput(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"bad delivery", map[string]string{"time": "5m", "message": "m", "delivery": "carrier pigeon"}, "Invalid delivery type"},
		{"bad time", map[string]string{"time": "garbage", "message": "m", "delivery": "dm"}, "invalid time format"},
		{"missing message", map[string]string{"time": "5m", "delivery": "dm"}, "Usage:"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			reply := svc.Handle(ctx, remindReq(tt.args))
			if !strings.Contains(reply, tt.want) {
				t.Fatalf("reply %q does not contain %q", reply, tt.want)
			}
		})
	}
}

func TestListEmptyAndPopulated(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	listReq := transport.CommandRequest{OwnerID: "u1", Name: transport.CmdList}
	if reply := svc.Handle(ctx, listReq); !strings.Contains(reply, "no active reminders") {
		t.Fatalf("unexpected empty-list reply: %q", reply)
	}

	svc.Handle(ctx, remindReq(map[string]string{"time": "2h", "message": "call mom", "delivery": "dm"}))
	reply := svc.Handle(ctx, listReq)
	if !strings.Contains(reply, "call mom") || !strings.Contains(reply, "2 hours") {
		t.Fatalf("unexpected list reply: %q", reply)
	}
}

func TestEditOwnershipScoped(t *testing.T) {
	t.Parallel()
	svc, st, now := newTestService(t)
	ctx := context.Background()

	svc.Handle(ctx, remindReq(map[string]string{"time": "1h", "message": "original", "delivery": "dm"}))

	editArgs := map[string]string{"id": "1", "time": "2h", "message": "edited", "delivery": "server"}
	intruder := transport.CommandRequest{
		OwnerID: "u2", ChannelID: "c2", Name: transport.CmdEdit, Args: editArgs,
	}
	if reply := svc.Handle(ctx, intruder); !strings.Contains(reply, "not found or you don't have permission") {
		t.Fatalf("unexpected intruder reply: %q", reply)
	}

	owner := transport.CommandRequest{
		OwnerID: "u1", ChannelID: "c1", Name: transport.CmdEdit, Args: editArgs,
	}
	if reply := svc.Handle(ctx, owner); !strings.Contains(reply, "updated successfully") {
		t.Fatalf("unexpected owner reply: %q", reply)
	}

	active, _ := st.ListActive(ctx, "u1", now)
	if len(active) != 1 || active[0].Message != "edited" || active[0].ChannelID != "c1" {
		t.Fatalf("edit not applied: %+v", active)
	}
}

func TestDeleteTranslation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.Handle(ctx, remindReq(map[string]string{"time": "1h", "message": "m", "delivery": "dm"}))

	del := transport.CommandRequest{OwnerID: "u1", Name: transport.CmdDelete, Args: map[string]string{"id": "1"}}
	if reply := svc.Handle(ctx, del); !strings.Contains(reply, "deleted successfully") {
		t.Fatalf("unexpected delete reply: %q", reply)
	}
	// Deleting again translates to the declined-operation text.
	if reply := svc.Handle(ctx, del); !strings.Contains(reply, "not found or you don't have permission") {
		t.Fatalf("unexpected repeat delete reply: %q", reply)
	}

	bad := transport.CommandRequest{OwnerID: "u1", Name: transport.CmdDelete, Args: map[string]string{"id": "zero"}}
	if reply := svc.Handle(ctx, bad); !strings.Contains(reply, "Invalid reminder id") {
		t.Fatalf("unexpected bad-id reply: %q", reply)
	}
}

func TestTimeUntilBuckets(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{90 * time.Second, "1 minutes"},
		{2 * time.Hour, "2 hours"},
		{49 * time.Hour, "2 days"},
	}
	for _, tt := range tests {
		if got := timeUntil(tt.d); got != tt.want {
			t.Fatalf("timeUntil(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
