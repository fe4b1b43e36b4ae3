package frame

import (
	"errors"
	"fmt"
)

var (
	ErrShortMessage  = errors.New("frame: short message")
	ErrTooManyFrames = errors.New("frame: too many frames")
	ErrFrameTooLarge = errors.New("frame: frame too large")
	ErrEmptyMessage  = errors.New("frame: empty message")
)

// Frame is one length-delimited byte unit of a multi-part message.
type Frame []byte

// Message is an ordered sequence of frames transmitted atomically.
// Position is the only structure a message carries.
type Message []Frame

// Limits constrains receive-side memory use.
type Limits struct {
	MaxFrames     int
	MaxFrameBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxFrames:     16,
		MaxFrameBytes: 8 * 1024 * 1024,
	}
}

// New builds a message from raw frame bytes. Frames are not copied.
func New(frames ...[]byte) Message {
	msg := make(Message, 0, len(frames))
	for _, f := range frames {
		msg = append(msg, Frame(f))
	}
	return msg
}

// Raw returns the frames as plain byte slices for transport adapters.
func (m Message) Raw() [][]byte {
	out := make([][]byte, 0, len(m))
	for _, f := range m {
		out = append(out, []byte(f))
	}
	return out
}

// Size returns the total payload bytes across all frames.
func (m Message) Size() int {
	n := 0
	for _, f := range m {
		n += len(f)
	}
	return n
}

// Check enforces limits on a received message.
func Check(m Message, limits Limits) error {
	if len(m) == 0 {
		return ErrEmptyMessage
	}
	if limits.MaxFrames > 0 && len(m) > limits.MaxFrames {
		return fmt.Errorf("%w: %d > %d", ErrTooManyFrames, len(m), limits.MaxFrames)
	}
	if limits.MaxFrameBytes > 0 {
		for i, f := range m {
			if len(f) > limits.MaxFrameBytes {
				return fmt.Errorf("%w: frame %d has %d bytes", ErrFrameTooLarge, i, len(f))
			}
		}
	}
	return nil
}

// Reader pops frames from a message strictly in transmission order.
type Reader struct {
	msg  Message
	next int
}

func NewReader(m Message) *Reader {
	return &Reader{msg: m}
}

// Pop returns the next frame or ErrShortMessage when none remain.
func (r *Reader) Pop() (Frame, error) {
	if r.next >= len(r.msg) {
		return nil, fmt.Errorf("%w: frame %d missing (have %d)", ErrShortMessage, r.next, len(r.msg))
	}
	f := r.msg[r.next]
	r.next++
	return f, nil
}
