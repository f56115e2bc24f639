package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `telegram:
  token: "123:abc"
  poll_timeout: "15s"
  send_rate_per_sec: 2
chat:
  members:
    - name: alice
      id: 1001
    - name: bob
      id: 1002
holidays:
  country: DE
logging:
  level: debug
  console: true
  file:
    enabled: false
    path: ""
storage:
  driver: file
  path: ./dana_store
scheduler:
  timezone: Europe/Berlin
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestManagerLoadYAML(t *testing.T) {
	t.Parallel()

	mgr := NewManager(writeConfig(t, "dana.yaml", sampleYAML))
	cfg, err := mgr.Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.SendRatePerSec != 2 {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if len(cfg.Chat.Members) != 2 || cfg.Chat.Members[1].ID != 1002 {
		t.Errorf("members = %+v", cfg.Chat.Members)
	}
	if cfg.Holidays.Country != "DE" {
		t.Errorf("holidays = %+v", cfg.Holidays)
	}
	if cfg.Storage.Driver != "file" || cfg.Scheduler.Timezone != "Europe/Berlin" {
		t.Errorf("storage/scheduler = %+v / %+v", cfg.Storage, cfg.Scheduler)
	}

	if got := mgr.Get(); got != cfg {
		t.Error("Get() does not return the committed config")
	}
}

func TestManagerLoadJSON(t *testing.T) {
	t.Parallel()

	body := `{"telegram":{"token":"t"},"chat":{"members":[]},` +
		`"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""}},` +
		`"storage":{"driver":"file","path":"./s"},"scheduler":{}}`
	mgr := NewManager(writeConfig(t, "dana.json", body))
	cfg, err := mgr.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "t" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestManagerRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	mgr := NewManager(writeConfig(t, "dana.yaml", sampleYAML+"zulip:\n  key: x\n"))
	if _, err := mgr.Load(); err == nil {
		t.Error("unknown top-level field accepted")
	}
}

func TestManagerRejectsTrailingData(t *testing.T) {
	t.Parallel()

	mgr := NewManager(writeConfig(t, "dana.json", `{"telegram":{"token":"t"}}{"more":1}`))
	if _, err := mgr.Load(); err == nil {
		t.Error("trailing JSON document accepted")
	}
}

func TestManagerMissingFile(t *testing.T) {
	t.Parallel()

	mgr := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := mgr.Load(); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	if d, err := ParseDurationField("telegram.poll_timeout", "15s"); err != nil || d != 15*time.Second {
		t.Errorf("ParseDurationField = %v, %v", d, err)
	}
	if _, err := ParseDurationField("telegram.poll_timeout", "soon"); err == nil {
		t.Error("bad duration accepted")
	}
	if d, err := ParseDurationOrDefault("x", "", 3*time.Second); err != nil || d != 3*time.Second {
		t.Errorf("ParseDurationOrDefault empty = %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "1m", 3*time.Second); err != nil || d != time.Minute {
		t.Errorf("ParseDurationOrDefault set = %v, %v", d, err)
	}
}
