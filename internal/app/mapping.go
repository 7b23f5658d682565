package app

import (
	"fmt"
	"strings"

	"remindbot/internal/config"
	"remindbot/internal/dispatch"
	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
)

// The map* helpers translate string-typed config sections into the typed
// configs the services take. They double as validators: Watch runs them
// against a candidate config before committing it.

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch driver {
	case "", "sqlite", "sqlite3", "memory":
	default:
		return storage.Config{}, fmt.Errorf("storage.driver: unknown driver %q", driver)
	}
	return storage.Config{
		Driver:      driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, nil
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	interval, err := config.ParseDurationField("scheduler.poll_interval", cfg.Scheduler.PollInterval)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Enabled:      cfg.Scheduler.Enabled,
		PollInterval: interval,
	}, nil
}

func mapDispatchConfig(cfg *config.Config) (dispatch.Config, error) {
	timeout, err := config.ParseDurationField("dispatch.delivery_timeout", cfg.Dispatch.DeliveryTimeout)
	if err != nil {
		return dispatch.Config{}, err
	}
	if cfg.Dispatch.RatePerSec < 0 {
		return dispatch.Config{}, fmt.Errorf("dispatch.rate_per_sec must be >= 0")
	}
	return dispatch.Config{
		DeliveryTimeout: timeout,
		RatePerSec:      cfg.Dispatch.RatePerSec,
	}, nil
}

// validateConfig rejects configs that would break a hot reload.
func validateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch d := strings.ToLower(strings.TrimSpace(cfg.Transport.Driver)); d {
	case "", "discord", "telegram":
	default:
		return fmt.Errorf("transport.driver: unknown driver %q", d)
	}
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	if _, err := mapSchedulerConfig(cfg); err != nil {
		return err
	}
	if _, err := mapDispatchConfig(cfg); err != nil {
		return err
	}
	return nil
}
