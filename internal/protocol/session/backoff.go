package session

import (
	"math"
	"math/rand"
	"time"
)

// NextIdleDelay returns the sleep after the Nth consecutive empty poll (1-based).
func NextIdleDelay(cfg IdleBackoff, idlePolls int, rng *rand.Rand) time.Duration {
	if cfg.Interval <= 0 {
		return 0
	}
	if idlePolls <= 1 || cfg.Multiplier <= 1.0 {
		return jitter(cfg, float64(cfg.Interval), rng)
	}
	delay := float64(cfg.Interval) * math.Pow(cfg.Multiplier, float64(idlePolls-1))
	if cfg.MaxInterval > 0 && delay > float64(cfg.MaxInterval) {
		delay = float64(cfg.MaxInterval)
	}
	return jitter(cfg, delay, rng)
}

func jitter(cfg IdleBackoff, delay float64, rng *rand.Rand) time.Duration {
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}
