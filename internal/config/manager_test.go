package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "bot.yaml", `
transport:
  driver: discord
discord:
  token: abc123
logging:
  level: debug
  console: true
  file:
    enabled: false
    path: ""
storage:
  driver: sqlite
  path: ./reminders.db
scheduler:
  enabled: true
  poll_interval: 45s
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport.Driver != "discord" {
		t.Errorf("transport driver = %q, want discord", cfg.Transport.Driver)
	}
	if cfg.Discord.Token != "abc123" {
		t.Errorf("discord token = %q", cfg.Discord.Token)
	}
	if cfg.Scheduler.PollInterval != "45s" {
		t.Errorf("poll_interval = %q, want 45s", cfg.Scheduler.PollInterval)
	}
	if got := m.Get(); got != cfg {
		t.Error("Get should return the committed config")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "bot.yaml", `
transport:
  driver: discord
remind_interval: 10s
`)

	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "bot.json", `{"transport":{"driver":"discord"}}{"extra":true}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"30s", 30 * time.Second, false},
		{" 2m ", 2 * time.Minute, false},
		{"-1s", 0, true},
		{"five", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDurationField("test.field", tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDurationField(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDurationField(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()

	if d, err := ParseDurationOrDefault("x", "", 30*time.Second); err != nil || d != 30*time.Second {
		t.Errorf("empty: got %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "10s", 30*time.Second); err != nil || d != 10*time.Second {
		t.Errorf("set: got %v, %v", d, err)
	}
}

func TestSubscribePublishUnsubscribe(t *testing.T) {
	t.Parallel()

	m := NewManager("unused")
	ch := m.Subscribe(1)

	cfg := &Config{}
	m.publish(cfg)
	select {
	case got := <-ch:
		if got != cfg {
			t.Error("wrong config delivered")
		}
	default:
		t.Fatal("expected delivery")
	}

	// a second publish while the buffer holds a stale item replaces it
	stale, fresh := &Config{}, &Config{}
	m.publish(stale)
	m.publish(fresh)
	if got := <-ch; got != fresh {
		t.Error("expected latest config after overflow")
	}

	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
}
