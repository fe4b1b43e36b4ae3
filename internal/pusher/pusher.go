package pusher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/danmuck/framelink/internal/observability"
	"github.com/danmuck/framelink/internal/protocol/codec"
	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/danmuck/framelink/internal/protocol/job"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	ErrSenderRequired = errors.New("pusher: sender required")
	ErrInvalidConfig  = errors.New("pusher: invalid config")
)

type Config struct {
	Node          string
	Version       job.Version
	PointsPerJob  int
	RatePerSecond float64
	Burst         int
}

func DefaultConfig() Config {
	return Config{
		Version:       job.V1,
		PointsPerJob:  4,
		RatePerSecond: 1,
		Burst:         1,
	}
}

func (c Config) Validate() error {
	if c.PointsPerJob <= 0 || c.PointsPerJob > math.MaxInt32 {
		return fmt.Errorf("%w: points_per_job must be in 1..%d", ErrInvalidConfig, math.MaxInt32)
	}
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("%w: rate_per_second must be positive", ErrInvalidConfig)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("%w: burst must be positive", ErrInvalidConfig)
	}
	return nil
}

// Pusher produces demo jobs on the queue channel. Coordinates are square
// roots of a counter that advances by one per value across jobs.
type Pusher struct {
	cfg     Config
	sender  frame.Sender
	encode  job.Encoder
	limiter *rate.Limiter
	logger  zerolog.Logger

	counter int64
	pushed  uint64
	failed  uint64
}

func New(cfg Config, sender frame.Sender) (*Pusher, error) {
	if sender == nil {
		return nil, ErrSenderRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	encode, err := job.EncoderFor(cfg.Version)
	if err != nil {
		return nil, err
	}
	return &Pusher{
		cfg:     cfg,
		sender:  sender,
		encode:  encode,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:  observability.ComponentLogger(cfg.Node, "pusher"),
		counter: 1,
	}, nil
}

// Next builds the next job and advances the counter.
func (p *Pusher) Next() job.Job {
	start := p.counter
	points := make([]codec.Point3D, p.cfg.PointsPerJob)
	var label strings.Builder
	for i := range points {
		points[i] = codec.Point3D{X: p.sqrtNext(), Y: p.sqrtNext(), Z: p.sqrtNext()}
		fmt.Fprintf(&label, "\t[ %g, %g, %g ]\n", points[i].X, points[i].Y, points[i].Z)
	}
	j := job.Job{
		Version:    p.cfg.Version,
		PointCount: int32(len(points)),
		Points:     points,
	}
	switch p.cfg.Version {
	case job.V1:
		j.Label = label.String()
	case job.V2:
		j.Scalars = make([]float64, p.cfg.PointsPerJob)
		for i := range j.Scalars {
			j.Scalars[i] = p.sqrtNext()
		}
		j.ScalarCount = uint32(len(j.Scalars))
		j.Scalar = float64(start)
	}
	return j
}

// Run pushes one job per limiter token until ctx is cancelled. Send failures
// are logged and the next job is attempted.
func (p *Pusher) Run(ctx context.Context) error {
	p.logger.Info().
		Str("version", p.cfg.Version.String()).
		Int("points_per_job", p.cfg.PointsPerJob).
		Float64("rate_per_second", p.cfg.RatePerSecond).
		Msg("pusher started")
	defer func() {
		p.logger.Info().Uint64("pushed", p.pushed).Uint64("failed", p.failed).Msg("pusher stopped")
	}()

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := p.PushOne(); err != nil {
			p.logger.Warn().Err(err).Msg("push failed")
		}
	}
}

// PushOne encodes and sends the next job.
func (p *Pusher) PushOne() error {
	first := p.counter
	j := p.Next()
	msg, err := p.encode(j)
	if err != nil {
		p.failed++
		observability.RecordJobPushed(p.cfg.Version.String(), false)
		return err
	}
	if err := p.sender.Send(msg); err != nil {
		p.failed++
		observability.RecordJobPushed(p.cfg.Version.String(), false)
		return fmt.Errorf("pusher: job #%d-%d: %w", first, p.counter-1, err)
	}
	p.pushed++
	observability.RecordJobPushed(p.cfg.Version.String(), true)
	p.logger.Info().
		Int64("first", first).
		Int64("last", p.counter-1).
		Int32("points", j.PointCount).
		Int("bytes", msg.Size()).
		Msg("job pushed")
	return nil
}

func (p *Pusher) Pushed() uint64 {
	return p.pushed
}

func (p *Pusher) sqrtNext() float64 {
	v := math.Sqrt(float64(p.counter))
	p.counter++
	return v
}
