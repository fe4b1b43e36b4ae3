package config

import (
	"github.com/danmuck/framelink/internal/protocol/session"
	"github.com/danmuck/framelink/internal/pusher"
)

func (c WorkerConfig) PollConfig() session.PollConfig {
	poll := session.DefaultPollConfig()
	poll.Idle = session.IdleBackoff{
		Interval:    c.PollInterval,
		Multiplier:  c.IdleMultiplier,
		MaxInterval: c.IdleMaxInterval,
		Jitter:      c.IdleJitter,
	}
	poll.ConnectTimeout = c.ConnectTimeout
	poll.DialRetryWait = c.DialRetryWait
	return poll
}

func (c PusherConfig) Pusher(node string) pusher.Config {
	return pusher.Config{
		Node:          node,
		Version:       c.JobVersion,
		PointsPerJob:  c.PointsPerJob,
		RatePerSecond: c.RatePerSecond,
		Burst:         c.Burst,
	}
}
