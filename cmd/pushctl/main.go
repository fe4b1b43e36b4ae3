package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/framelink/internal/config"
	"github.com/danmuck/framelink/internal/logging"
	"github.com/danmuck/framelink/internal/protocol/job"
	"github.com/danmuck/framelink/internal/pusher"
	"github.com/danmuck/framelink/internal/transport"
	"github.com/google/uuid"
	flags "github.com/jessevdk/go-flags"
)

type options struct {
	ConfigFile string  `short:"C" long:"config" description:"Path to pusher config.toml (defaults apply when empty)"`
	JobVersion string  `short:"j" long:"job-version" description:"Override job_version (v1 or v2)"`
	Rate       float64 `short:"r" long:"rate" description:"Override rate_per_second"`
	Points     int     `short:"n" long:"points" description:"Override points_per_job"`
	LogFile    string  `long:"logfile" description:"Also write logs to this rotated file"`
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

	logging.ConfigureRuntime(logging.WithApp("pushctl"), logging.WithFile(opts.LogFile))
	defer logging.Close()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pushctl: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "pushctl: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (config.PusherConfig, error) {
	cfg, err := config.LoadPusherConfig(opts.ConfigFile)
	if err != nil {
		return config.PusherConfig{}, err
	}
	if opts.JobVersion != "" {
		v, err := job.ParseVersion(opts.JobVersion)
		if err != nil {
			return config.PusherConfig{}, err
		}
		cfg.JobVersion = v
	}
	if opts.Rate > 0 {
		cfg.RatePerSecond = opts.Rate
	}
	if opts.Points > 0 {
		cfg.PointsPerJob = opts.Points
	}
	return cfg, config.ValidatePusherConfig(cfg)
}

func run(ctx context.Context, cfg config.PusherConfig) error {
	push, err := transport.ListenPush(ctx, transport.SenderConfig{Address: cfg.QueueAddress})
	if err != nil {
		return err
	}
	defer push.Close()

	p, err := pusher.New(cfg.Pusher("pushctl-"+uuid.NewString()[:8]), push)
	if err != nil {
		return err
	}
	start := time.Now()
	err = p.Run(ctx)
	fmt.Fprintf(os.Stderr, "pushctl: pushed %d jobs in %s\n", p.Pushed(), time.Since(start).Round(time.Millisecond))
	return err
}
