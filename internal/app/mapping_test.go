package app

import (
	"testing"
	"time"

	"remindbot/internal/config"
)

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Storage.Driver = "SQLite"
	cfg.Storage.Path = "./reminders.db"
	cfg.Storage.BusyTimeout = "5s"

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		t.Fatalf("mapStorageConfig: %v", err)
	}
	if sc.Driver != "sqlite" || sc.BusyTimeout != 5*time.Second {
		t.Errorf("got %+v", sc)
	}

	cfg.Storage.Driver = "postgres"
	if _, err := mapStorageConfig(cfg); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"empty defaults", func(*config.Config) {}, false},
		{"telegram driver", func(c *config.Config) { c.Transport.Driver = "telegram" }, false},
		{"unknown transport", func(c *config.Config) { c.Transport.Driver = "irc" }, true},
		{"bad poll interval", func(c *config.Config) { c.Scheduler.PollInterval = "soon" }, true},
		{"negative rate", func(c *config.Config) { c.Dispatch.RatePerSec = -1 }, true},
		{"bad delivery timeout", func(c *config.Config) { c.Dispatch.DeliveryTimeout = "-5s" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
