package main

import (
	"context"

	"github.com/danmuck/framelink/internal/config"
	"github.com/danmuck/framelink/internal/observability"
	"github.com/danmuck/framelink/internal/protocol/command"
	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/danmuck/framelink/internal/protocol/session"
	"github.com/danmuck/framelink/internal/transport"
	"github.com/danmuck/framelink/internal/worker"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// run owns the job loop, the optional command loop and the optional admin
// listener. Both loops are built before any goroutine starts. A job loop or
// admin failure cancels the rest; a command loop failure is logged and the
// job loop keeps running.
func run(ctx context.Context, cfg config.WorkerConfig) error {
	poll := cfg.PollConfig()

	jobs, err := worker.NewJobLoop(
		cfg.ID,
		cfg.JobVersion,
		pullConnector(cfg.QueueAddress, poll),
		worker.LogJob(cfg.ID),
		poll,
	)
	if err != nil {
		return err
	}
	stats := []func() worker.Stats{jobs.Stats}

	var commands *worker.Loop[command.Envelope]
	if cfg.SubscribeCommands {
		commands, err = worker.NewCommandLoop(
			cfg.ID,
			subConnector(cfg.BroadcastAddress, cfg.Topic, poll),
			worker.LogCommand(cfg.ID),
			poll,
		)
		if err != nil {
			return err
		}
		stats = append(stats, commands.Stats)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return jobs.Run(gctx) })
	if commands != nil {
		g.Go(func() error { return runOptional(gctx, commands.Name(), commands.Run) })
	}

	if cfg.AdminAddr != "" {
		admin := observability.AdminConfig{
			Node:        cfg.ID,
			Addr:        cfg.AdminAddr,
			CorsOrigins: cfg.CorsOrigins,
			Token:       cfg.AdminToken,
			Stats: func() any {
				out := make([]worker.Stats, 0, len(stats))
				for _, s := range stats {
					out = append(out, s())
				}
				return out
			},
		}
		g.Go(func() error { return observability.ServeAdmin(gctx, admin) })
	}

	log.Info().
		Str("node", cfg.ID).
		Str("queue", cfg.QueueAddress).
		Str("job_version", cfg.JobVersion.String()).
		Bool("commands", cfg.SubscribeCommands).
		Msg("workerctl running")
	return g.Wait()
}

// runOptional runs a loop whose failure must not stop its siblings.
func runOptional(ctx context.Context, name string, run func(context.Context) error) error {
	if err := run(ctx); err != nil {
		log.Error().Err(err).Str("loop", name).Msg("workerctl optional loop stopped")
	}
	return nil
}

func pullConnector(addr string, poll session.PollConfig) worker.Connector {
	return func(ctx context.Context) (frame.Receiver, error) {
		rx, err := transport.DialPull(ctx, transport.ReceiverConfig{
			Address:       addr,
			Buffer:        poll.ReceiveBuffer,
			Limits:        poll.Limits,
			DialTimeout:   poll.ConnectTimeout,
			DialRetryWait: poll.DialRetryWait,
		})
		if err != nil {
			return nil, err
		}
		return rx, nil
	}
}

func subConnector(addr, topic string, poll session.PollConfig) worker.Connector {
	return func(ctx context.Context) (frame.Receiver, error) {
		rx, err := transport.DialSub(ctx, transport.ReceiverConfig{
			Address:       addr,
			Topic:         topic,
			Buffer:        poll.ReceiveBuffer,
			Limits:        poll.Limits,
			DialTimeout:   poll.ConnectTimeout,
			DialRetryWait: poll.DialRetryWait,
		})
		if err != nil {
			return nil, err
		}
		return rx, nil
	}
}
