package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/framelink/internal/protocol/codec"
	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/danmuck/framelink/internal/protocol/schema"
)

const (
	// DefaultTopic is the routing token workers subscribe to.
	DefaultTopic = "To Worker"
	// DefaultSpeed replaces a start-motor speed that does not parse.
	DefaultSpeed int32 = 100
)

// Type is the single-byte command discriminator carried in frame 1.
type Type uint8

const (
	TypeKeepAlive  Type = 0x00
	TypeStartMotor Type = 0x01
	TypeStopMotor  Type = 0x02
)

var (
	ErrInvalidSpeedDefaulted = errors.New("command: invalid speed, default applied")
	ErrEmptyTopic            = errors.New("command: empty routing token")
	ErrUnknownCommand        = errors.New("command: unknown command")
)

// InvalidSpeedError carries the rejected input and the speed that was sent instead.
type InvalidSpeedError struct {
	Input string
	Speed int32
}

func (e InvalidSpeedError) Error() string {
	return fmt.Sprintf("command: invalid speed %q, default %d applied", e.Input, e.Speed)
}

func (e InvalidSpeedError) Unwrap() error {
	return ErrInvalidSpeedDefaulted
}

// Command is one of RawText, StartMotor, StopMotor or KeepAlive.
type Command interface {
	isCommand()
}

type RawText struct {
	Text string
}

type StartMotor struct {
	Speed int32
}

type StopMotor struct{}

type KeepAlive struct{}

func (RawText) isCommand()    {}
func (StartMotor) isCommand() {}
func (StopMotor) isCommand()  {}
func (KeepAlive) isCommand()  {}

// Envelope is a decoded broadcast message.
type Envelope struct {
	Topic   string
	Command Command
}

// Name returns a short label for logs and metrics.
func Name(cmd Command) string {
	switch cmd.(type) {
	case RawText:
		return "raw_text"
	case StartMotor:
		return "start_motor"
	case StopMotor:
		return "stop_motor"
	case KeepAlive:
		return "keep_alive"
	default:
		return "unknown"
	}
}

// Encode lays out cmd behind the routing token.
func Encode(topic string, cmd Command) (frame.Message, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	token := []byte(topic)
	switch c := cmd.(type) {
	case RawText:
		return frame.New(token, []byte(c.Text)), nil
	case StartMotor:
		return frame.New(token, []byte{byte(TypeStartMotor)}, codec.EncodeInt32(c.Speed)), nil
	case StopMotor:
		return frame.New(token, []byte{byte(TypeStopMotor)}), nil
	case KeepAlive:
		return frame.New(token, []byte{byte(TypeKeepAlive)}), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// EncodeStartMotor parses speedText and encodes a start-motor command.
//
// When speedText is not a 32-bit integer the message is still built with
// DefaultSpeed and the returned error wraps ErrInvalidSpeedDefaulted. The
// effective speed is always returned.
func EncodeStartMotor(topic, speedText string) (frame.Message, int32, error) {
	speed := DefaultSpeed
	var warn error
	if n, err := strconv.ParseInt(strings.TrimSpace(speedText), 10, 32); err == nil {
		speed = int32(n)
	} else {
		warn = InvalidSpeedError{Input: speedText, Speed: DefaultSpeed}
	}
	msg, err := Encode(topic, StartMotor{Speed: speed})
	if err != nil {
		return nil, 0, err
	}
	return msg, speed, warn
}

// Decode reads a broadcast message. A one-byte payload frame holding a known
// command type selects that command; any other payload is RawText.
func Decode(msg frame.Message) (Envelope, error) {
	if err := schema.Validate(schema.LayoutCommand, msg); err != nil {
		return Envelope{}, err
	}
	r := frame.NewReader(msg)
	token, err := r.Pop()
	if err != nil {
		return Envelope{}, err
	}
	payload, err := r.Pop()
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{Topic: string(token)}

	if len(payload) != 1 {
		env.Command = RawText{Text: string(payload)}
		return env, nil
	}
	switch Type(payload[0]) {
	case TypeStartMotor:
		if err := schema.Validate(schema.LayoutCommandStartMotor, msg); err != nil {
			return Envelope{}, err
		}
		f, err := r.Pop()
		if err != nil {
			return Envelope{}, err
		}
		speed, err := codec.DecodeInt32(f)
		if err != nil {
			return Envelope{}, fmt.Errorf("command: speed: %w", err)
		}
		env.Command = StartMotor{Speed: speed}
	case TypeStopMotor:
		env.Command = StopMotor{}
	case TypeKeepAlive:
		env.Command = KeepAlive{}
	default:
		env.Command = RawText{Text: string(payload)}
	}
	return env, nil
}

// MatchesPrefix reports whether a routing token passes a subscription filter.
// An empty prefix subscribes to everything.
func MatchesPrefix(topic, prefix string) bool {
	return strings.HasPrefix(topic, prefix)
}
