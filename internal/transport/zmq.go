package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog/log"
)

var (
	ErrAddressRequired = errors.New("transport: address required")
	ErrSenderClosed    = errors.New("transport: sender closed")
	ErrInvalidEndpoint = errors.New("transport: invalid endpoint")
)

// DefaultDialRetryWait is the pause between failed dial attempts.
const DefaultDialRetryWait = 250 * time.Millisecond

// ReceiverConfig configures a pollable pull/sub receiver.
type ReceiverConfig struct {
	Address string
	// Topic is the subscription prefix for sub sockets. Empty subscribes to all.
	Topic  string
	Buffer int
	Limits frame.Limits
	// DialTimeout bounds a single connect attempt.
	DialTimeout   time.Duration
	DialRetryWait time.Duration
}

// Receiver adapts a blocking zmq socket to the non-blocking frame.Receiver
// contract. A pump goroutine dials the peer, then moves complete messages
// into a bounded buffer. Dialing retries until the peer binds and a lost
// peer is redialed, so neither surfaces as a channel error.
// Once ctx is cancelled TryRecv reports frame.ErrTerminated.
type Receiver struct {
	ctx    context.Context
	cancel context.CancelFunc
	sock   zmq4.Socket
	msgs   chan frame.Message
	errs   chan error
	limits frame.Limits
	kind   string
	addr   string
	retry  time.Duration
	once   sync.Once
	done   chan struct{}
}

// DialPull connects a pull socket to a push producer.
func DialPull(ctx context.Context, cfg ReceiverConfig) (*Receiver, error) {
	if err := checkEndpoint(cfg.Address); err != nil {
		return nil, err
	}
	sctx, cancel := context.WithCancel(ctx)
	sock := zmq4.NewPull(sctx, dialOptions(cfg)...)
	return startReceiver(sctx, cancel, sock, "pull", cfg), nil
}

// DialSub connects a sub socket to a pub producer filtered by cfg.Topic.
func DialSub(ctx context.Context, cfg ReceiverConfig) (*Receiver, error) {
	if err := checkEndpoint(cfg.Address); err != nil {
		return nil, err
	}
	sctx, cancel := context.WithCancel(ctx)
	sock := zmq4.NewSub(sctx, dialOptions(cfg)...)
	if err := sock.SetOption(zmq4.OptionSubscribe, cfg.Topic); err != nil {
		cancel()
		_ = sock.Close()
		return nil, fmt.Errorf("transport: subscribe %q: %w", cfg.Topic, err)
	}
	return startReceiver(sctx, cancel, sock, "sub", cfg), nil
}

// checkEndpoint rejects addresses no dial attempt could ever satisfy.
func checkEndpoint(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ErrAddressRequired
	}
	scheme, rest, ok := strings.Cut(addr, "://")
	if !ok || rest == "" {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, addr)
	}
	switch scheme {
	case "tcp", "ipc", "inproc":
		return nil
	default:
		return fmt.Errorf("%w: unsupported transport %q", ErrInvalidEndpoint, scheme)
	}
}

func dialOptions(cfg ReceiverConfig) []zmq4.Option {
	opts := []zmq4.Option{
		zmq4.WithDialerMaxRetries(-1),
		zmq4.WithAutomaticReconnect(true),
		zmq4.WithDialerRetry(retryWait(cfg)),
	}
	if cfg.DialTimeout > 0 {
		opts = append(opts, zmq4.WithDialerTimeout(cfg.DialTimeout))
	}
	return opts
}

func retryWait(cfg ReceiverConfig) time.Duration {
	if cfg.DialRetryWait > 0 {
		return cfg.DialRetryWait
	}
	return DefaultDialRetryWait
}

func startReceiver(
	ctx context.Context,
	cancel context.CancelFunc,
	sock zmq4.Socket,
	kind string,
	cfg ReceiverConfig,
) *Receiver {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 1
	}
	r := &Receiver{
		ctx:    ctx,
		cancel: cancel,
		sock:   sock,
		msgs:   make(chan frame.Message, buffer),
		errs:   make(chan error, 1),
		limits: cfg.Limits,
		kind:   kind,
		addr:   strings.TrimSpace(cfg.Address),
		retry:  retryWait(cfg),
		done:   make(chan struct{}),
	}
	go r.pump()
	return r
}

// dial blocks until the peer accepts or ctx ends.
func (r *Receiver) dial() bool {
	for {
		err := r.sock.Dial(r.addr)
		if err == nil {
			log.Debug().Str("kind", r.kind).Str("addr", r.addr).Msg("transport.Receiver connected")
			return true
		}
		if r.ctx.Err() != nil {
			return false
		}
		log.Warn().Err(err).Str("kind", r.kind).Str("addr", r.addr).Msg("transport.Receiver dial failed, retrying")
		select {
		case <-time.After(r.retry):
		case <-r.ctx.Done():
			return false
		}
	}
}

func (r *Receiver) pump() {
	defer close(r.done)
	if !r.dial() {
		return
	}
	for {
		msg, err := r.sock.Recv()
		if err != nil {
			if r.ctx.Err() != nil {
				return
			}
			if isDisconnect(err) {
				log.Info().Err(err).Str("kind", r.kind).Str("addr", r.addr).Msg("transport.Receiver peer disconnected")
				continue
			}
			r.errs <- fmt.Errorf("transport: %s recv: %w", r.kind, err)
			return
		}
		out := frame.New(msg.Frames...)
		if err := frame.Check(out, r.limits); err != nil {
			log.Warn().Err(err).Str("kind", r.kind).Str("addr", r.addr).Msg("transport.Receiver dropped message")
			continue
		}
		select {
		case r.msgs <- out:
		case <-r.ctx.Done():
			return
		}
	}
}

// isDisconnect reports a lost peer connection. The socket redials on its own.
func isDisconnect(err error) bool {
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, zmq4.ErrClosedConn) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && !ne.Timeout()
}

// TryRecv implements frame.Receiver.
func (r *Receiver) TryRecv() (frame.Message, error) {
	if r.ctx.Err() != nil {
		return nil, frame.ErrTerminated
	}
	select {
	case msg := <-r.msgs:
		return msg, nil
	case err := <-r.errs:
		return nil, err
	default:
		return nil, frame.ErrWouldBlock
	}
}

func (r *Receiver) Close() error {
	var err error
	r.once.Do(func() {
		r.cancel()
		err = r.sock.Close()
		<-r.done
	})
	return err
}

// SenderConfig configures a bound push/pub sender.
type SenderConfig struct {
	Address string
}

// Sender binds a push or pub socket and sends each message as one multipart unit.
type Sender struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	sock   zmq4.Socket
	closed bool
}

// ListenPush binds a push socket for job distribution.
func ListenPush(ctx context.Context, cfg SenderConfig) (*Sender, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	sctx, cancel := context.WithCancel(ctx)
	return startSender(cancel, zmq4.NewPush(sctx), "push", cfg.Address)
}

// ListenPub binds a pub socket for command broadcast.
func ListenPub(ctx context.Context, cfg SenderConfig) (*Sender, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	sctx, cancel := context.WithCancel(ctx)
	return startSender(cancel, zmq4.NewPub(sctx), "pub", cfg.Address)
}

func startSender(cancel context.CancelFunc, sock zmq4.Socket, kind, addr string) (*Sender, error) {
	if err := sock.Listen(addr); err != nil {
		cancel()
		_ = sock.Close()
		return nil, fmt.Errorf("transport: %s listen %s: %w", kind, addr, err)
	}
	log.Debug().Str("kind", kind).Str("addr", addr).Msg("transport.Sender bound")
	return &Sender{cancel: cancel, sock: sock}, nil
}

// Send implements frame.Sender.
func (s *Sender) Send(msg frame.Message) error {
	if len(msg) == 0 {
		return frame.ErrEmptyMessage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSenderClosed
	}
	return s.sock.SendMulti(zmq4.NewMsgFrom(msg.Raw()...))
}

func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	return s.sock.Close()
}
