package config

type Config struct {
	Transport TransportConfig `json:"transport"`
	Discord   DiscordConfig   `json:"discord,omitempty"`
	Telegram  TelegramConfig  `json:"telegram,omitempty"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Dispatch  DispatchConfig  `json:"dispatch,omitempty"`
}

// TransportConfig selects the chat platform binding.
type TransportConfig struct {
	// Driver is "discord" (default) or "telegram".
	Driver string `json:"driver"`
}

type DiscordConfig struct {
	Token string `json:"token"`
	// GuildID scopes slash command registration to one guild; empty
	// registers globally (propagation can take up to an hour).
	GuildID string `json:"guild_id,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./reminders.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// SchedulerConfig controls the due-reminder scan loop.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`
	// PollInterval defaults to "30s" when omitted.
	PollInterval string `json:"poll_interval,omitempty"`
}

// DispatchConfig controls outgoing delivery behavior.
type DispatchConfig struct {
	// DeliveryTimeout bounds each platform call; defaults to "10s".
	DeliveryTimeout string `json:"delivery_timeout,omitempty"`
	RatePerSec      int    `json:"rate_per_sec,omitempty"`
}
