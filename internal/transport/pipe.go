package transport

import (
	"context"
	"sync"

	"github.com/danmuck/framelink/internal/protocol/command"
	"github.com/danmuck/framelink/internal/protocol/frame"
)

// Pipe is an in-process frame channel. It implements both frame.Sender and
// frame.Receiver. With a topic set it behaves like a subscriber and drops
// messages whose first frame does not carry the prefix.
type Pipe struct {
	ctx    context.Context
	mu     sync.Mutex
	queue  []frame.Message
	topic  *string
	closed bool
}

func NewPipe(ctx context.Context) *Pipe {
	return &Pipe{ctx: ctx}
}

// Subscribe installs a routing-token prefix filter.
func (p *Pipe) Subscribe(prefix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = &prefix
}

func (p *Pipe) Send(msg frame.Message) error {
	if len(msg) == 0 {
		return frame.ErrEmptyMessage
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrSenderClosed
	}
	if p.topic != nil && !command.MatchesPrefix(string(msg[0]), *p.topic) {
		return nil
	}
	p.queue = append(p.queue, msg)
	return nil
}

func (p *Pipe) TryRecv() (frame.Message, error) {
	if p.ctx.Err() != nil {
		return nil, frame.ErrTerminated
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, frame.ErrTerminated
	}
	if len(p.queue) == 0 {
		return nil, frame.ErrWouldBlock
	}
	msg := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return msg, nil
}

// Len reports queued messages.
func (p *Pipe) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.queue = nil
	return nil
}
