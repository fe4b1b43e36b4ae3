package worker

import (
	"context"

	"github.com/danmuck/framelink/internal/observability"
	"github.com/danmuck/framelink/internal/protocol/command"
	"github.com/danmuck/framelink/internal/protocol/job"
	"github.com/danmuck/framelink/internal/protocol/session"
)

// NewJobLoop builds the queue consumer for one fixed job layout version.
func NewJobLoop(node string, version job.Version, connect Connector, consume ConsumeFunc[job.Job], poll session.PollConfig) (*Loop[job.Job], error) {
	decode, err := job.DecoderFor(version)
	if err != nil {
		return nil, err
	}
	return New(Config[job.Job]{
		Name:    "jobs",
		Node:    node,
		Connect: connect,
		Decode:  DecodeFunc[job.Job](decode),
		Consume: consume,
		Poll:    poll,
	})
}

// NewCommandLoop builds the broadcast subscriber.
func NewCommandLoop(node string, connect Connector, consume ConsumeFunc[command.Envelope], poll session.PollConfig) (*Loop[command.Envelope], error) {
	return New(Config[command.Envelope]{
		Name:    "commands",
		Node:    node,
		Connect: connect,
		Decode:  command.Decode,
		Consume: consume,
		Poll:    poll,
	})
}

// LogJob is a ConsumeFunc that reports a decoded job summary.
func LogJob(node string) ConsumeFunc[job.Job] {
	logger := observability.ComponentLogger(node, "jobs")
	return func(_ context.Context, j job.Job) {
		e := logger.Info().
			Str("version", j.Version.String()).
			Int32("points", j.PointCount)
		if j.Version == job.V1 {
			e = e.Str("label", j.Label)
		} else {
			e = e.Uint32("scalars", j.ScalarCount).Float64("scalar", j.Scalar)
		}
		for _, w := range j.Warnings {
			logger.Warn().
				Int("count", w.Count).
				Int("record_size", w.RecordSize).
				Int("extra", w.Extra).
				Msg("trailing bytes ignored")
		}
		e.Msg("job received")
	}
}

// LogCommand is a ConsumeFunc that reports a received broadcast command.
func LogCommand(node string) ConsumeFunc[command.Envelope] {
	logger := observability.ComponentLogger(node, "commands")
	return func(_ context.Context, env command.Envelope) {
		e := logger.Info().Str("topic", env.Topic).Str("command", command.Name(env.Command))
		switch c := env.Command.(type) {
		case command.RawText:
			e = e.Str("text", c.Text)
		case command.StartMotor:
			e = e.Int32("speed", c.Speed)
		}
		e.Msg("command received")
	}
}
