package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/framelink/internal/protocol/frame"
)

var (
	ErrInvalidPollInterval = errors.New("session: poll interval must be positive")
	ErrInvalidBackoff      = errors.New("session: idle backoff invalid")
)

// IdleBackoff defines the sleep between empty polls.
// A Multiplier of 1 keeps the interval fixed.
type IdleBackoff struct {
	Interval    time.Duration
	Multiplier  float64
	MaxInterval time.Duration
	Jitter      bool
}

// PollConfig defines receive-loop defaults.
type PollConfig struct {
	Idle IdleBackoff
	// ConnectTimeout bounds one dial attempt; DialRetryWait separates attempts.
	ConnectTimeout time.Duration
	DialRetryWait  time.Duration
	ReceiveBuffer  int
	Limits         frame.Limits
}

// DefaultPollConfig returns a fixed 1ms idle sleep.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Idle: IdleBackoff{
			Interval:   time.Millisecond,
			Multiplier: 1.0,
		},
		ConnectTimeout: 5 * time.Second,
		DialRetryWait:  250 * time.Millisecond,
		ReceiveBuffer:  64,
		Limits:         frame.DefaultLimits(),
	}
}

// WithDefaults fills zero fields from DefaultPollConfig.
func (c PollConfig) WithDefaults() PollConfig {
	def := DefaultPollConfig()
	if c.Idle.Interval <= 0 {
		c.Idle.Interval = def.Idle.Interval
	}
	if c.Idle.Multiplier <= 0 {
		c.Idle.Multiplier = def.Idle.Multiplier
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.DialRetryWait <= 0 {
		c.DialRetryWait = def.DialRetryWait
	}
	if c.ReceiveBuffer <= 0 {
		c.ReceiveBuffer = def.ReceiveBuffer
	}
	if c.Limits.MaxFrames <= 0 {
		c.Limits.MaxFrames = def.Limits.MaxFrames
	}
	if c.Limits.MaxFrameBytes <= 0 {
		c.Limits.MaxFrameBytes = def.Limits.MaxFrameBytes
	}
	return c
}

func (c PollConfig) Validate() error {
	if c.Idle.Interval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.Idle.Multiplier < 1 {
		return fmt.Errorf("%w: multiplier %g below 1", ErrInvalidBackoff, c.Idle.Multiplier)
	}
	if c.Idle.MaxInterval > 0 && c.Idle.MaxInterval < c.Idle.Interval {
		return fmt.Errorf("%w: max interval %s below interval %s", ErrInvalidBackoff, c.Idle.MaxInterval, c.Idle.Interval)
	}
	return nil
}
