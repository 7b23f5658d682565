package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/commands"
	"remindbot/internal/config"
	"remindbot/internal/dispatch"
	"remindbot/internal/runtime/supervisor"
	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
	"remindbot/internal/transport"
	"remindbot/internal/transport/discord"
	"remindbot/internal/transport/telegram"
	logx "remindbot/pkg/logx"
)

// StopReason records why the app is shutting down; it only feeds logs.
type StopReason string

const (
	StopSignal     StopReason = "signal"
	StopFatalError StopReason = "fatal_error"
)

// App wires config, storage, the platform adapter, the dispatcher and the
// scheduler together and manages their lifecycle.
type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	adapter transport.Adapter
	disp    *dispatch.Dispatcher
	sched   *scheduler.Service
	cmds    *commands.Service
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	log.Info("storage opened", logx.String("driver", sc.Driver))

	adapter, err := newAdapter(cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	dc, err := mapDispatchConfig(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	disp := dispatch.New(dc, adapter, log.With(logx.String("comp", "dispatch")))

	schedCfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	sched := scheduler.New(schedCfg, store, disp, log.With(logx.String("comp", "scheduler")))

	cmds := commands.New(store, log.With(logx.String("comp", "commands")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		adapter: adapter,
		disp:    disp,
		sched:   sched,
		cmds:    cmds,
	}, nil
}

// newAdapter builds the platform binding selected by transport.driver.
func newAdapter(cfg *config.Config, log logx.Logger) (transport.Adapter, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Transport.Driver))
	switch driver {
	case "", "discord":
		return discord.New(discord.Config{
			Token:   cfg.Discord.Token,
			GuildID: cfg.Discord.GuildID,
		}, log.With(logx.String("comp", "discord")))
	case "telegram":
		pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
		if err != nil {
			return nil, err
		}
		return telegram.New(telegram.Config{
			Token:       cfg.Telegram.Token,
			PollTimeout: pollTimeout,
		}, log.With(logx.String("comp", "telegram")))
	default:
		return nil, fmt.Errorf("transport.driver: unknown driver %q", driver)
	}
}

// Done is closed when the supervisor context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.cmds); err != nil {
		return err
	}

	if a.sched.Enabled() {
		// The scheduler defers its first scan until the adapter session is up
		// so due reminders never hit a half-connected platform.
		a.sched.Start(a.sup.Context(), a.adapter.Ready())
	} else {
		a.log.Warn("scheduler disabled; reminders will be stored but never delivered")
	}

	// hot reload fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyReload(newCfg)
			}
		}
	})

	// Watch returns an error when the fsnotify watcher breaks; GoRestart
	// recreates it with backoff.
	a.sup.GoRestart("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

// applyReload applies the hot-reloadable sections of a validated config.
// Storage, transport and scheduler interval changes need a restart.
func (a *App) applyReload(cfg *config.Config) {
	if cfg == nil {
		return
	}

	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if dc, err := mapDispatchConfig(cfg); err != nil {
		a.log.Warn("invalid dispatch config; keeping previous", logx.Err(err))
	} else {
		a.disp.Apply(dc)
	}

	a.log.Info("config reloaded",
		logx.String("level", cfg.Logging.Level),
		logx.Bool("scheduler_enabled", cfg.Scheduler.Enabled))
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Each shutdown step gets an upper bound so one component can't stall
	// the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		start := time.Now()
		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)))
		}
	}

	// The scheduler stops before the run context is canceled so an
	// in-flight tick can finish delivering on a live adapter session.
	step("scheduler", 3*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })

	// Now unwind the background loops (config watch/reload).
	a.sup.Cancel()

	step("adapter", 3*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("storage", 1*time.Second, func(context.Context) error { return a.store.Close() })
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
