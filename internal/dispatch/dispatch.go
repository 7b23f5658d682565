package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"remindbot/internal/reminder"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type Config struct {
	// DeliveryTimeout bounds each external platform call so a hung
	// notifier cannot stall the scheduler loop. 0 means the default (10s).
	DeliveryTimeout time.Duration
	// RatePerSec limits outgoing deliveries. 0 means the default (5/s).
	RatePerSec int
}

// Dispatcher hands due reminders to the platform notifier.
//
// Delivery is fire-and-forget: an unreachable recipient or a missing channel
// is logged and swallowed, never retried, and never surfaced to any user.
type Dispatcher struct {
	notifier transport.Notifier
	log      logx.Logger

	mu      sync.Mutex
	timeout time.Duration
	limiter *rate.Limiter
}

func New(cfg Config, notifier transport.Notifier, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{notifier: notifier, log: log}
	d.Apply(cfg)
	return d
}

// Apply updates delivery knobs at runtime (config hot reload).
func (d *Dispatcher) Apply(cfg Config) {
	timeout := cfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 5
	}
	d.mu.Lock()
	d.timeout = timeout
	d.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	d.mu.Unlock()
}

// Deliver sends one due reminder. A nil return means the record was handled
// (delivered, or failed in a way that is deliberately discarded); a non-nil
// return reports an unexpected platform failure. Either way the caller
// removes the record afterwards.
func (d *Dispatcher) Deliver(ctx context.Context, r reminder.Reminder) error {
	d.mu.Lock()
	timeout := d.timeout
	lim := d.limiter
	d.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text := fmt.Sprintf("⏰ Reminder: %s", r.Message)

	var err error
	switch r.Mode {
	case reminder.ModeServer:
		err = d.notifier.PostInChannel(callCtx, r.ChannelID, r.OwnerID, text)
	default:
		err = d.notifier.SendDirect(callCtx, r.OwnerID, text)
	}

	switch {
	case err == nil:
		d.log.Debug("reminder delivered",
			logx.Int64("id", r.ID), logx.String("owner", r.OwnerID), logx.String("mode", string(r.Mode)))
		return nil
	case errors.Is(err, transport.ErrUnreachable):
		d.log.Warn("recipient unreachable, reminder discarded",
			logx.Int64("id", r.ID), logx.String("owner", r.OwnerID), logx.Err(err))
		return nil
	case errors.Is(err, transport.ErrChannelMissing):
		d.log.Warn("channel gone, reminder discarded",
			logx.Int64("id", r.ID), logx.String("channel", r.ChannelID), logx.Err(err))
		return nil
	default:
		d.log.Error("reminder delivery failed",
			logx.Int64("id", r.ID), logx.String("owner", r.OwnerID), logx.Err(err))
		return err
	}
}
