package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type fakeNotifier struct {
	mu       sync.Mutex
	direct   []string // user ids
	channel  []string // channel ids
	failWith map[string]error
	delay    time.Duration
}

func (f *fakeNotifier) SendDirect(ctx context.Context, userID, text string) error {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWith[userID]; ok {
		return err
	}
	f.direct = append(f.direct, userID)
	return nil
}

func (f *fakeNotifier) PostInChannel(ctx context.Context, channelID, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWith[channelID]; ok {
		return err
	}
	f.channel = append(f.channel, channelID)
	return nil
}

func TestDeliverByMode(t *testing.T) {
	t.Parallel()
	fn := &fakeNotifier{}
	d := New(Config{RatePerSec: 100}, fn, logx.Nop())

	r := reminder.Reminder{ID: 1, OwnerID: "u1", Mode: reminder.ModeDirect, Message: "hi"}
	if err := d.Deliver(context.Background(), r); err != nil {
		t.Fatalf("Deliver(dm): %v", err)
	}
	r = reminder.Reminder{ID: 2, OwnerID: "u1", ChannelID: "c1", Mode: reminder.ModeServer, Message: "hi"}
	if err := d.Deliver(context.Background(), r); err != nil {
		t.Fatalf("Deliver(server): %v", err)
	}

	if len(fn.direct) != 1 || fn.direct[0] != "u1" {
		t.Fatalf("direct sends = %v", fn.direct)
	}
	if len(fn.channel) != 1 || fn.channel[0] != "c1" {
		t.Fatalf("channel posts = %v", fn.channel)
	}
}

func TestDeliverSwallowsKnownFailures(t *testing.T) {
	t.Parallel()
	fn := &fakeNotifier{failWith: map[string]error{
		"blocked": fmt.Errorf("%w: dm closed", transport.ErrUnreachable),
		"gone":    fmt.Errorf("%w: deleted", transport.ErrChannelMissing),
	}}
	d := New(Config{RatePerSec: 100}, fn, logx.Nop())

	r := reminder.Reminder{ID: 1, OwnerID: "blocked", Mode: reminder.ModeDirect, Message: "m"}
	if err := d.Deliver(context.Background(), r); err != nil {
		t.Fatalf("unreachable must be swallowed, got %v", err)
	}
	r = reminder.Reminder{ID: 2, OwnerID: "u1", ChannelID: "gone", Mode: reminder.ModeServer, Message: "m"}
	if err := d.Deliver(context.Background(), r); err != nil {
		t.Fatalf("missing channel must be swallowed, got %v", err)
	}
}

func TestDeliverSurfacesUnexpectedFailures(t *testing.T) {
	t.Parallel()
	boom := errors.New("rate limited by platform")
	fn := &fakeNotifier{failWith: map[string]error{"u1": boom}}
	d := New(Config{RatePerSec: 100}, fn, logx.Nop())

	r := reminder.Reminder{ID: 1, OwnerID: "u1", Mode: reminder.ModeDirect, Message: "m"}
	if err := d.Deliver(context.Background(), r); !errors.Is(err, boom) {
		t.Fatalf("expected unexpected failure to surface, got %v", err)
	}
}

func TestDeliverBoundedByTimeout(t *testing.T) {
	t.Parallel()
	fn := &fakeNotifier{delay: 5 * time.Second}
	d := New(Config{DeliveryTimeout: 50 * time.Millisecond, RatePerSec: 100}, fn, logx.Nop())

	r := reminder.Reminder{ID: 1, OwnerID: "u1", Mode: reminder.ModeDirect, Message: "m"}
	start := time.Now()
	err := d.Deliver(context.Background(), r)
	if err == nil || !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("delivery was not bounded by the timeout")
	}
}
