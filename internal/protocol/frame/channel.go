package frame

import "errors"

var (
	// ErrWouldBlock is returned by a non-blocking receive when no message is queued.
	ErrWouldBlock = errors.New("frame: would block")
	// ErrTerminated is returned once the channel's owner has signalled shutdown.
	ErrTerminated = errors.New("frame: channel terminated")
)

// Receiver is the pollable receive side of a frame channel.
//
// TryRecv never blocks. It returns one complete message, ErrWouldBlock when
// nothing is queued, or ErrTerminated after cancellation. Any other error is
// a channel failure.
type Receiver interface {
	TryRecv() (Message, error)
	Close() error
}

// Sender is the send side of a frame channel. A message is sent atomically.
type Sender interface {
	Send(Message) error
	Close() error
}
