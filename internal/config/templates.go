package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Template renders the defaults for kind as TOML.
func Template(kind string) (string, error) {
	var doc any
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "worker":
		d := DefaultWorkerConfig()
		doc = workerFile{
			QueueAddress:      d.QueueAddress,
			BroadcastAddress:  d.BroadcastAddress,
			Topic:             d.Topic,
			JobVersion:        d.JobVersion.String(),
			PollInterval:      d.PollInterval.String(),
			IdleMultiplier:    d.IdleMultiplier,
			IdleJitter:        d.IdleJitter,
			ConnectTimeout:    d.ConnectTimeout.String(),
			DialRetryWait:     d.DialRetryWait.String(),
			AdminAddr:         "127.0.0.1:9400",
			CorsOrigins:       []string{"http://localhost:3000"},
			SubscribeCommands: d.SubscribeCommands,
		}
	case "commander":
		d := DefaultCommanderConfig()
		doc = commanderFile{
			BroadcastAddress: d.BroadcastAddress,
			Topic:            d.Topic,
		}
	case "pusher":
		d := DefaultPusherConfig()
		doc = pusherFile{
			QueueAddress:  d.QueueAddress,
			JobVersion:    d.JobVersion.String(),
			PointsPerJob:  d.PointsPerJob,
			RatePerSecond: d.RatePerSecond,
			Burst:         d.Burst,
		}
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
	out, err := toml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return string(out), nil
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
