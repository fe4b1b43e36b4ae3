package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/framelink/internal/protocol/command"
	"github.com/danmuck/framelink/internal/protocol/job"
	"github.com/danmuck/framelink/internal/protocol/session"
	"github.com/danmuck/framelink/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadWorkerConfigDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadWorkerConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QueueAddress != DefaultQueueAddress || cfg.BroadcastAddress != DefaultBroadcastAddress {
		t.Fatalf("unexpected addresses: %+v", cfg)
	}
	if cfg.Topic != command.DefaultTopic || cfg.JobVersion != job.V1 || cfg.PollInterval != time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !strings.HasPrefix(cfg.ID, "worker-") || len(cfg.ID) != len("worker-")+36 {
		t.Fatalf("expected generated id, got %q", cfg.ID)
	}
	if poll := cfg.PollConfig(); poll.Idle.Interval != time.Millisecond {
		t.Fatalf("poll interval got=%s want=1ms", poll.Idle.Interval)
	}
}

func TestLoadWorkerConfigOverridesOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
id = "worker.alpha"
job_version = "v2"
poll_interval = "5ms"
subscribe_commands = false
cors_origins = ["http://localhost:5173"]
`)
	cfg, err := LoadWorkerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ID != "worker.alpha" || cfg.JobVersion != job.V2 || cfg.PollInterval != 5*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SubscribeCommands {
		t.Fatalf("subscribe_commands override not applied")
	}
	if cfg.QueueAddress != DefaultQueueAddress {
		t.Fatalf("queue_address got=%q want default", cfg.QueueAddress)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:5173" {
		t.Fatalf("cors_origins got=%v", cfg.CorsOrigins)
	}
}

func TestLoadWorkerConfigBackoffAndDialKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
poll_interval = "2ms"
idle_multiplier = 2.0
idle_max_interval = "50ms"
idle_jitter = true
connect_timeout = "1s"
dial_retry_wait = "100ms"
`)
	cfg, err := LoadWorkerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	poll := cfg.PollConfig()
	want := session.IdleBackoff{
		Interval:    2 * time.Millisecond,
		Multiplier:  2,
		MaxInterval: 50 * time.Millisecond,
		Jitter:      true,
	}
	if poll.Idle != want {
		t.Fatalf("idle backoff got=%+v want=%+v", poll.Idle, want)
	}
	if poll.ConnectTimeout != time.Second || poll.DialRetryWait != 100*time.Millisecond {
		t.Fatalf("dial settings got connect=%s retry=%s", poll.ConnectTimeout, poll.DialRetryWait)
	}
	if err := poll.Validate(); err != nil {
		t.Fatalf("converted poll config invalid: %v", err)
	}
}

func TestLoadWorkerConfigRejectsInvalidValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"version":  `job_version = "v3"`,
		"interval": `poll_interval = "soon"`,
		"negative": `poll_interval = "-1ms"`,
		"address":  `queue_address = ""`,
		"topic":    `topic = ""`,
		"shrink":   `idle_multiplier = 0.5`,
		"cap":      "poll_interval = \"10ms\"\nidle_max_interval = \"1ms\"",
		"retry":    `dial_retry_wait = "0s"`,
		"connect":  `connect_timeout = "later"`,
	}
	for name, body := range cases {
		if _, err := LoadWorkerConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadWorkerConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestLoadCommanderAndPusherConfig(t *testing.T) {
	testlog.Start(t)
	cmdCfg, err := LoadCommanderConfig(writeConfig(t, `topic = "To Worker 7"`))
	if err != nil {
		t.Fatalf("load commander: %v", err)
	}
	if cmdCfg.Topic != "To Worker 7" || cmdCfg.BroadcastAddress != DefaultBroadcastAddress {
		t.Fatalf("unexpected commander config: %+v", cmdCfg)
	}

	pushCfg, err := LoadPusherConfig(writeConfig(t, `
job_version = "2"
points_per_job = 8
rate_per_second = 2.5
`))
	if err != nil {
		t.Fatalf("load pusher: %v", err)
	}
	if pushCfg.JobVersion != job.V2 || pushCfg.PointsPerJob != 8 || pushCfg.RatePerSecond != 2.5 || pushCfg.Burst != 1 {
		t.Fatalf("unexpected pusher config: %+v", pushCfg)
	}
	p := pushCfg.Pusher("pushctl")
	if p.Node != "pushctl" || p.Version != job.V2 || p.PointsPerJob != 8 {
		t.Fatalf("unexpected pusher runtime config: %+v", p)
	}

	if _, err := LoadPusherConfig(writeConfig(t, `burst = 0`)); err == nil {
		t.Fatalf("expected burst validation error")
	}
}

func TestTemplatesRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, kind := range []string{"worker", "commander", "pusher"} {
		path := filepath.Join(t.TempDir(), kind+".toml")
		if err := WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("%s: write template: %v", kind, err)
		}
		if err := WriteTemplate(path, kind, false); err == nil {
			t.Fatalf("%s: expected exists error", kind)
		}
		var err error
		switch kind {
		case "worker":
			var cfg WorkerConfig
			cfg, err = LoadWorkerConfig(path)
			if err == nil && (cfg.AdminAddr == "" || cfg.PollInterval != DefaultPollInterval || cfg.DialRetryWait != DefaultDialRetryWait) {
				t.Fatalf("worker template mismatch: %+v", cfg)
			}
		case "commander":
			_, err = LoadCommanderConfig(path)
		case "pusher":
			_, err = LoadPusherConfig(path)
		}
		if err != nil {
			t.Fatalf("%s: load template: %v", kind, err)
		}
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
