package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/danmuck/framelink/internal/observability"
	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/danmuck/framelink/internal/protocol/session"
	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
)

var (
	ErrChannelFailed   = errors.New("worker: unexpected channel error")
	ErrMissingConnect  = errors.New("worker: connector required")
	ErrMissingDecoder  = errors.New("worker: decoder required")
	ErrMissingConsumer = errors.New("worker: consumer required")
	ErrAlreadyRunning  = errors.New("worker: loop already started")
)

// ConnectError is returned when the channel could not be established.
type ConnectError struct {
	Loop  string
	Cause error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("worker: %s: connect: %v", e.Loop, e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

type State int32

const (
	StateNew State = iota
	StateConnecting
	StatePolling
	StateDecoding
	StateDraining
	StateTerminated
	StateError
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateConnecting:
		return "connecting"
	case StatePolling:
		return "polling"
	case StateDecoding:
		return "decoding"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Connector func(ctx context.Context) (frame.Receiver, error)

type DecodeFunc[T any] func(frame.Message) (T, error)

// ConsumeFunc is invoked once per decoded message, on the loop goroutine.
type ConsumeFunc[T any] func(ctx context.Context, v T)

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Loop       string `json:"loop"`
	State      string `json:"state"`
	Received   uint64 `json:"received"`
	Decoded    uint64 `json:"decoded"`
	Malformed  uint64 `json:"malformed"`
	IdleSleeps uint64 `json:"idle_sleeps"`
}

type Config[T any] struct {
	Name    string
	Node    string
	Connect Connector
	Decode  DecodeFunc[T]
	Consume ConsumeFunc[T]
	Poll    session.PollConfig

	// Sleep and Now default to time.Sleep and time.Now.
	Sleep func(time.Duration)
	Now   func() time.Time
}

type Loop[T any] struct {
	cfg    Config[T]
	logger zerolog.Logger
	rng    *rand.Rand

	started    atomic.Bool
	state      atomic.Int32
	received   atomic.Uint64
	decoded    atomic.Uint64
	malformed  atomic.Uint64
	idleSleeps atomic.Uint64
}

func New[T any](cfg Config[T]) (*Loop[T], error) {
	if cfg.Connect == nil {
		return nil, ErrMissingConnect
	}
	if cfg.Decode == nil {
		return nil, ErrMissingDecoder
	}
	if cfg.Consume == nil {
		return nil, ErrMissingConsumer
	}
	if cfg.Name == "" {
		cfg.Name = "loop"
	}
	cfg.Poll = cfg.Poll.WithDefaults()
	if err := cfg.Poll.Validate(); err != nil {
		return nil, err
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	l := &Loop[T]{
		cfg:    cfg,
		logger: observability.ComponentLogger(cfg.Node, "worker."+cfg.Name),
	}
	if cfg.Poll.Idle.Jitter {
		l.rng = rand.New(rand.NewSource(cfg.Now().UnixNano()))
	}
	return l, nil
}

func (l *Loop[T]) Name() string {
	return l.cfg.Name
}

func (l *Loop[T]) State() State {
	return State(l.state.Load())
}

func (l *Loop[T]) Stats() Stats {
	return Stats{
		Loop:       l.cfg.Name,
		State:      l.State().String(),
		Received:   l.received.Load(),
		Decoded:    l.decoded.Load(),
		Malformed:  l.malformed.Load(),
		IdleSleeps: l.idleSleeps.Load(),
	}
}

// Run drives the loop until the channel terminates. It returns nil on a clean
// shutdown, a *ConnectError when connecting fails, and an error wrapping
// ErrChannelFailed for any other channel fault. A Loop runs once.
func (l *Loop[T]) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	l.setState(StateConnecting)
	rx, err := l.cfg.Connect(ctx)
	if err != nil {
		l.setState(StateTerminated)
		l.logger.Error().Err(err).Msg("connect failed")
		return &ConnectError{Loop: l.cfg.Name, Cause: err}
	}
	l.logger.Info().Msg("connected")

	l.setState(StatePolling)
	idle := 0
	for {
		if ctx.Err() != nil {
			return l.drain(rx)
		}
		msg, err := rx.TryRecv()
		switch {
		case err == nil:
			idle = 0
			l.setState(StateDecoding)
			l.handle(ctx, msg)
			l.setState(StatePolling)
		case errors.Is(err, frame.ErrWouldBlock):
			idle++
			l.idleSleeps.Add(1)
			observability.RecordIdlePoll(l.cfg.Node, l.cfg.Name)
			l.cfg.Sleep(session.NextIdleDelay(l.cfg.Poll.Idle, idle, l.rng))
		case errors.Is(err, frame.ErrTerminated):
			return l.drain(rx)
		default:
			l.setState(StateError)
			_ = rx.Close()
			l.logger.Error().Err(err).Msg("channel failed")
			return fmt.Errorf("%w: %s: %w", ErrChannelFailed, l.cfg.Name, err)
		}
	}
}

func (l *Loop[T]) handle(ctx context.Context, msg frame.Message) {
	start := l.cfg.Now()
	l.received.Add(1)

	v, err := l.cfg.Decode(msg)
	if err != nil {
		l.malformed.Add(1)
		observability.RecordLoopMessage(l.cfg.Node, l.cfg.Name, observability.OutcomeMalformed, l.cfg.Now().Sub(start))
		l.logger.Warn().
			Err(err).
			Int("frames", len(msg)).
			Int("bytes", msg.Size()).
			Msg("malformed message dropped")
		return
	}
	l.decoded.Add(1)
	if e := l.logger.Trace(); e.Enabled() {
		e.Str("value", spew.Sdump(v)).Msg("decoded")
	}
	l.cfg.Consume(ctx, v)
	observability.RecordLoopMessage(l.cfg.Node, l.cfg.Name, observability.OutcomeDecoded, l.cfg.Now().Sub(start))
}

func (l *Loop[T]) drain(rx frame.Receiver) error {
	l.setState(StateDraining)
	if err := rx.Close(); err != nil {
		l.logger.Warn().Err(err).Msg("close on drain")
	}
	l.setState(StateTerminated)
	st := l.Stats()
	l.logger.Info().
		Uint64("received", st.Received).
		Uint64("decoded", st.Decoded).
		Uint64("malformed", st.Malformed).
		Msg("terminated")
	return nil
}

func (l *Loop[T]) setState(s State) {
	l.state.Store(int32(s))
}
