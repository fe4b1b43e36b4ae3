package session

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/framelink/internal/testutil/testlog"
)

func TestDefaultIdleDelayIsFixed(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultPollConfig()
	for _, n := range []int{1, 2, 10, 1000} {
		if got := NextIdleDelay(cfg.Idle, n, nil); got != time.Millisecond {
			t.Fatalf("idle=%d got=%v want=1ms", n, got)
		}
	}
}

func TestNextIdleDelayGrowsAndCaps(t *testing.T) {
	testlog.Start(t)
	cfg := IdleBackoff{
		Interval:    time.Millisecond,
		Multiplier:  2.0,
		MaxInterval: 5 * time.Millisecond,
	}
	if got := NextIdleDelay(cfg, 1, nil); got != time.Millisecond {
		t.Fatalf("idle1 got=%v", got)
	}
	if got := NextIdleDelay(cfg, 2, nil); got != 2*time.Millisecond {
		t.Fatalf("idle2 got=%v", got)
	}
	if got := NextIdleDelay(cfg, 3, nil); got != 4*time.Millisecond {
		t.Fatalf("idle3 got=%v", got)
	}
	if got := NextIdleDelay(cfg, 8, nil); got != 5*time.Millisecond {
		t.Fatalf("idle8 got=%v", got)
	}
}

func TestNextIdleDelayJitterBounds(t *testing.T) {
	testlog.Start(t)
	cfg := IdleBackoff{Interval: 10 * time.Millisecond, Multiplier: 1, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		got := NextIdleDelay(cfg, 1, rng)
		if got < 5*time.Millisecond || got > 15*time.Millisecond {
			t.Fatalf("jittered delay out of bounds: %v", got)
		}
	}
}

func TestPollConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := PollConfig{Idle: IdleBackoff{Interval: 3 * time.Millisecond}}.WithDefaults()
	if cfg.Idle.Interval != 3*time.Millisecond {
		t.Fatalf("interval overwritten: %v", cfg.Idle.Interval)
	}
	if cfg.Idle.Multiplier != 1.0 || cfg.ReceiveBuffer != 64 || cfg.Limits.MaxFrames != 16 || cfg.DialRetryWait != 250*time.Millisecond {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := (PollConfig{}).Validate(); !errors.Is(err, ErrInvalidPollInterval) {
		t.Fatalf("expected ErrInvalidPollInterval, got %v", err)
	}
}

func TestPollConfigRejectsBadBackoff(t *testing.T) {
	testlog.Start(t)
	base := DefaultPollConfig()

	shrinking := base
	shrinking.Idle.Multiplier = 0.5
	if err := shrinking.Validate(); !errors.Is(err, ErrInvalidBackoff) {
		t.Fatalf("multiplier: expected ErrInvalidBackoff, got %v", err)
	}

	capped := base
	capped.Idle.Interval = 10 * time.Millisecond
	capped.Idle.MaxInterval = time.Millisecond
	if err := capped.Validate(); !errors.Is(err, ErrInvalidBackoff) {
		t.Fatalf("max interval: expected ErrInvalidBackoff, got %v", err)
	}
}
