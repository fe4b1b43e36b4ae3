package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/framelink/internal/config"
	"github.com/danmuck/framelink/internal/logging"
	"github.com/danmuck/framelink/internal/protocol/job"
	flags "github.com/jessevdk/go-flags"
)

type options struct {
	ConfigFile string `short:"C" long:"config" description:"Path to worker config.toml (defaults apply when empty)"`
	JobVersion string `short:"j" long:"job-version" description:"Override job_version (v1 or v2)"`
	NoCommands bool   `long:"no-commands" description:"Do not subscribe to the command broadcast"`
	AdminAddr  string `long:"admin" description:"Override admin_addr for /health, /stats and /metrics"`
	LogFile    string `long:"logfile" description:"Also write logs to this rotated file"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logging.ConfigureRuntime(logging.WithApp("workerctl"), logging.WithFile(opts.LogFile))
	defer logging.Close()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "workerctl: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "workerctl: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (config.WorkerConfig, error) {
	cfg, err := config.LoadWorkerConfig(opts.ConfigFile)
	if err != nil {
		return config.WorkerConfig{}, err
	}
	if opts.JobVersion != "" {
		v, err := job.ParseVersion(opts.JobVersion)
		if err != nil {
			return config.WorkerConfig{}, err
		}
		cfg.JobVersion = v
	}
	if opts.NoCommands {
		cfg.SubscribeCommands = false
	}
	if opts.AdminAddr != "" {
		cfg.AdminAddr = opts.AdminAddr
	}
	return cfg, config.ValidateWorkerConfig(cfg)
}
