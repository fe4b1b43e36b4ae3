package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		" DEBUG ":  zerolog.DebugLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"inactive": zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parseLevel(%q) got=%v ok=%v want=%v", raw, got, ok, want)
		}
	}
	if _, ok := parseLevel(""); ok {
		t.Fatalf("empty level should not override")
	}
	if _, ok := parseLevel("loud"); ok {
		t.Fatalf("unknown level should not override")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogBypass, "not-a-bool")
	t.Setenv(EnvLogFile, "  /tmp/framelink.log ")

	cfg := defaultConfig(ProfileRuntime)
	cfg.Bypass = true
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.WarnLevel {
		t.Fatalf("level got=%v", cfg.Level)
	}
	if cfg.Timestamp || !cfg.NoColor {
		t.Fatalf("bool overrides not applied: %+v", cfg)
	}
	if !cfg.Bypass {
		t.Fatalf("invalid bool must leave bypass unchanged")
	}
	if cfg.File != "/tmp/framelink.log" {
		t.Fatalf("file got=%q", cfg.File)
	}
}

func TestDefaultConfigProfiles(t *testing.T) {
	if cfg := defaultConfig(ProfileTest); cfg.Level != zerolog.DebugLevel || cfg.Timestamp {
		t.Fatalf("unexpected test profile: %+v", cfg)
	}
	if cfg := defaultConfig(ProfileRuntime); cfg.Level != zerolog.InfoLevel || !cfg.Timestamp {
		t.Fatalf("unexpected runtime profile: %+v", cfg)
	}
}

func TestOptions(t *testing.T) {
	cfg := defaultConfig(ProfileRuntime)
	WithFile(" logs/worker.log ")(&cfg)
	WithApp("workerctl")(&cfg)
	if cfg.File != "logs/worker.log" || cfg.App != "workerctl" {
		t.Fatalf("options not applied: %+v", cfg)
	}
}

func TestOpenRotatorWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "framelink.log")
	r, err := openRotator(path)
	if err != nil {
		t.Fatalf("open rotator: %v", err)
	}
	if _, err := r.Write(bytes.Repeat([]byte("x"), 16)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
