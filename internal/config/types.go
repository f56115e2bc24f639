package config

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Chat      ChatConfig      `json:"chat"`
	Holidays  HolidaysConfig  `json:"holidays,omitempty"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
	// SendRatePerSec throttles outgoing messages (Telegram flood control).
	SendRatePerSec int `json:"send_rate_per_sec,omitempty"`
}

// ChatConfig carries the member roster used to resolve display names to stable
// user ids. The Telegram Bot API cannot enumerate group members, so the roster
// is operator-maintained and hot-reloadable.
type ChatConfig struct {
	Members []MemberEntry `json:"members"`
}

type MemberEntry struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// HolidaysConfig controls the public-holiday skip gate.
// An empty country disables the gate entirely.
type HolidaysConfig struct {
	Country string `json:"country,omitempty"` // only "DE" is wired
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

// StorageConfig controls the persistence layer holding meeting snapshots.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./dana_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type SchedulerConfig struct {
	// Timezone is the IANA zone triggers are evaluated in, e.g. "Europe/Berlin".
	Timezone string `json:"timezone,omitempty"`
}
