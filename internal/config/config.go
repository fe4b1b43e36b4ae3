package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/framelink/internal/protocol/command"
	"github.com/danmuck/framelink/internal/protocol/job"
	"github.com/google/uuid"
)

const (
	DefaultQueueAddress     = "tcp://127.0.0.1:6866"
	DefaultBroadcastAddress = "tcp://127.0.0.1:7889"
	DefaultPollInterval     = time.Millisecond
	DefaultConnectTimeout   = 5 * time.Second
	DefaultDialRetryWait    = 250 * time.Millisecond
)

type WorkerConfig struct {
	ID                string
	QueueAddress      string
	BroadcastAddress  string
	Topic             string
	JobVersion        job.Version
	PollInterval      time.Duration
	// IdleMultiplier grows the sleep after consecutive empty polls; 1 keeps it fixed.
	IdleMultiplier    float64
	IdleMaxInterval   time.Duration
	IdleJitter        bool
	ConnectTimeout    time.Duration
	DialRetryWait     time.Duration
	AdminAddr         string
	AdminToken        string
	CorsOrigins       []string
	SubscribeCommands bool
}

type CommanderConfig struct {
	BroadcastAddress string
	Topic            string
}

type PusherConfig struct {
	QueueAddress  string
	JobVersion    job.Version
	PointsPerJob  int
	RatePerSecond float64
	Burst         int
}

// workerFile is the workerctl config.toml key mapping.
type workerFile struct {
	ID                string   `toml:"id"`
	QueueAddress      string   `toml:"queue_address"`
	BroadcastAddress  string   `toml:"broadcast_address"`
	Topic             string   `toml:"topic"`
	JobVersion        string   `toml:"job_version"`
	PollInterval      string   `toml:"poll_interval"`
	IdleMultiplier    float64  `toml:"idle_multiplier"`
	IdleMaxInterval   string   `toml:"idle_max_interval,omitempty"`
	IdleJitter        bool     `toml:"idle_jitter"`
	ConnectTimeout    string   `toml:"connect_timeout"`
	DialRetryWait     string   `toml:"dial_retry_wait"`
	AdminAddr         string   `toml:"admin_addr"`
	AdminToken        string   `toml:"admin_token"`
	CorsOrigins       []string `toml:"cors_origins"`
	SubscribeCommands bool     `toml:"subscribe_commands"`
}

type commanderFile struct {
	BroadcastAddress string `toml:"broadcast_address"`
	Topic            string `toml:"topic"`
}

type pusherFile struct {
	QueueAddress  string  `toml:"queue_address"`
	JobVersion    string  `toml:"job_version"`
	PointsPerJob  int     `toml:"points_per_job"`
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		QueueAddress:      DefaultQueueAddress,
		BroadcastAddress:  DefaultBroadcastAddress,
		Topic:             command.DefaultTopic,
		JobVersion:        job.V1,
		PollInterval:      DefaultPollInterval,
		IdleMultiplier:    1,
		ConnectTimeout:    DefaultConnectTimeout,
		DialRetryWait:     DefaultDialRetryWait,
		SubscribeCommands: true,
	}
}

func DefaultCommanderConfig() CommanderConfig {
	return CommanderConfig{
		BroadcastAddress: DefaultBroadcastAddress,
		Topic:            command.DefaultTopic,
	}
}

func DefaultPusherConfig() PusherConfig {
	return PusherConfig{
		QueueAddress:  DefaultQueueAddress,
		JobVersion:    job.V1,
		PointsPerJob:  4,
		RatePerSecond: 1,
		Burst:         1,
	}
}

// LoadWorkerConfig overlays the keys present in path onto DefaultWorkerConfig.
// An empty path returns the defaults. A missing id is filled with a random UUID.
func LoadWorkerConfig(path string) (WorkerConfig, error) {
	cfg := DefaultWorkerConfig()
	if strings.TrimSpace(path) != "" {
		var raw workerFile
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return WorkerConfig{}, fmt.Errorf("load worker config: %w", err)
		}
		if meta.IsDefined("id") {
			cfg.ID = strings.TrimSpace(raw.ID)
		}
		if meta.IsDefined("queue_address") {
			cfg.QueueAddress = strings.TrimSpace(raw.QueueAddress)
		}
		if meta.IsDefined("broadcast_address") {
			cfg.BroadcastAddress = strings.TrimSpace(raw.BroadcastAddress)
		}
		if meta.IsDefined("topic") {
			cfg.Topic = raw.Topic
		}
		if meta.IsDefined("job_version") {
			v, err := job.ParseVersion(raw.JobVersion)
			if err != nil {
				return WorkerConfig{}, fmt.Errorf("load worker config: job_version: %w", err)
			}
			cfg.JobVersion = v
		}
		durations := []struct {
			key string
			raw string
			dst *time.Duration
		}{
			{"poll_interval", raw.PollInterval, &cfg.PollInterval},
			{"idle_max_interval", raw.IdleMaxInterval, &cfg.IdleMaxInterval},
			{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
			{"dial_retry_wait", raw.DialRetryWait, &cfg.DialRetryWait},
		}
		for _, d := range durations {
			if !meta.IsDefined(d.key) {
				continue
			}
			v, err := time.ParseDuration(strings.TrimSpace(d.raw))
			if err != nil {
				return WorkerConfig{}, fmt.Errorf("load worker config: %s: %w", d.key, err)
			}
			*d.dst = v
		}
		if meta.IsDefined("idle_multiplier") {
			cfg.IdleMultiplier = raw.IdleMultiplier
		}
		if meta.IsDefined("idle_jitter") {
			cfg.IdleJitter = raw.IdleJitter
		}
		if meta.IsDefined("admin_addr") {
			cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
		}
		if meta.IsDefined("admin_token") {
			cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
		}
		if meta.IsDefined("cors_origins") {
			cfg.CorsOrigins = raw.CorsOrigins
		}
		if meta.IsDefined("subscribe_commands") {
			cfg.SubscribeCommands = raw.SubscribeCommands
		}
	}
	if cfg.ID == "" {
		cfg.ID = "worker-" + uuid.NewString()
	}
	if err := ValidateWorkerConfig(cfg); err != nil {
		return WorkerConfig{}, err
	}
	return cfg, nil
}

func LoadCommanderConfig(path string) (CommanderConfig, error) {
	cfg := DefaultCommanderConfig()
	if strings.TrimSpace(path) != "" {
		var raw commanderFile
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return CommanderConfig{}, fmt.Errorf("load commander config: %w", err)
		}
		if meta.IsDefined("broadcast_address") {
			cfg.BroadcastAddress = strings.TrimSpace(raw.BroadcastAddress)
		}
		if meta.IsDefined("topic") {
			cfg.Topic = raw.Topic
		}
	}
	if err := ValidateCommanderConfig(cfg); err != nil {
		return CommanderConfig{}, err
	}
	return cfg, nil
}

func LoadPusherConfig(path string) (PusherConfig, error) {
	cfg := DefaultPusherConfig()
	if strings.TrimSpace(path) != "" {
		var raw pusherFile
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return PusherConfig{}, fmt.Errorf("load pusher config: %w", err)
		}
		if meta.IsDefined("queue_address") {
			cfg.QueueAddress = strings.TrimSpace(raw.QueueAddress)
		}
		if meta.IsDefined("job_version") {
			v, err := job.ParseVersion(raw.JobVersion)
			if err != nil {
				return PusherConfig{}, fmt.Errorf("load pusher config: job_version: %w", err)
			}
			cfg.JobVersion = v
		}
		if meta.IsDefined("points_per_job") {
			cfg.PointsPerJob = raw.PointsPerJob
		}
		if meta.IsDefined("rate_per_second") {
			cfg.RatePerSecond = raw.RatePerSecond
		}
		if meta.IsDefined("burst") {
			cfg.Burst = raw.Burst
		}
	}
	if err := ValidatePusherConfig(cfg); err != nil {
		return PusherConfig{}, err
	}
	return cfg, nil
}

func ValidateWorkerConfig(cfg WorkerConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("worker config missing id")
	}
	if cfg.QueueAddress == "" {
		return fmt.Errorf("worker config missing queue_address")
	}
	if cfg.SubscribeCommands {
		if cfg.BroadcastAddress == "" {
			return fmt.Errorf("worker config missing broadcast_address")
		}
		if cfg.Topic == "" {
			return fmt.Errorf("worker config missing topic")
		}
	}
	if _, err := job.DecoderFor(cfg.JobVersion); err != nil {
		return fmt.Errorf("worker config: %w", err)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("worker config poll_interval must be positive")
	}
	if cfg.IdleMultiplier < 1 {
		return fmt.Errorf("worker config idle_multiplier must be at least 1")
	}
	if cfg.IdleMaxInterval < 0 || (cfg.IdleMaxInterval > 0 && cfg.IdleMaxInterval < cfg.PollInterval) {
		return fmt.Errorf("worker config idle_max_interval must be zero or at least poll_interval")
	}
	if cfg.ConnectTimeout <= 0 {
		return fmt.Errorf("worker config connect_timeout must be positive")
	}
	if cfg.DialRetryWait <= 0 {
		return fmt.Errorf("worker config dial_retry_wait must be positive")
	}
	return nil
}

func ValidateCommanderConfig(cfg CommanderConfig) error {
	if cfg.BroadcastAddress == "" {
		return fmt.Errorf("commander config missing broadcast_address")
	}
	if cfg.Topic == "" {
		return fmt.Errorf("commander config missing topic")
	}
	return nil
}

func ValidatePusherConfig(cfg PusherConfig) error {
	if cfg.QueueAddress == "" {
		return fmt.Errorf("pusher config missing queue_address")
	}
	if _, err := job.EncoderFor(cfg.JobVersion); err != nil {
		return fmt.Errorf("pusher config: %w", err)
	}
	if cfg.PointsPerJob <= 0 {
		return fmt.Errorf("pusher config points_per_job must be positive")
	}
	if cfg.RatePerSecond <= 0 {
		return fmt.Errorf("pusher config rate_per_second must be positive")
	}
	if cfg.Burst <= 0 {
		return fmt.Errorf("pusher config burst must be positive")
	}
	return nil
}
