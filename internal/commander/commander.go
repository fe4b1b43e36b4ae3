package commander

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/framelink/internal/observability"
	"github.com/danmuck/framelink/internal/protocol/command"
	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/rs/zerolog"
)

var ErrSenderRequired = errors.New("commander: sender required")

// Commander broadcasts control commands behind a fixed routing token.
type Commander struct {
	Topic  string
	Sender frame.Sender

	mu     sync.Mutex
	logger zerolog.Logger
	once   sync.Once
}

func New(topic string, sender frame.Sender) *Commander {
	if topic == "" {
		topic = command.DefaultTopic
	}
	return &Commander{Topic: topic, Sender: sender}
}

func (c *Commander) SendText(text string) error {
	return c.send(command.RawText{Text: text}, false)
}

// StartMotor parses speedText and broadcasts a start-motor command. An
// unparsable speed is replaced with command.DefaultSpeed; the command is
// still sent and the returned error wraps command.ErrInvalidSpeedDefaulted.
func (c *Commander) StartMotor(speedText string) (int32, error) {
	if c.Sender == nil {
		return 0, ErrSenderRequired
	}
	msg, speed, warn := command.EncodeStartMotor(c.Topic, speedText)
	if msg == nil {
		return 0, warn
	}
	defaulted := errors.Is(warn, command.ErrInvalidSpeedDefaulted)
	if err := c.sendMessage(msg, command.StartMotor{Speed: speed}, defaulted); err != nil {
		return speed, err
	}
	if defaulted {
		c.log().Warn().Str("input", speedText).Int32("speed", speed).Msg("invalid speed, default applied")
	}
	return speed, warn
}

func (c *Commander) StopMotor() error {
	return c.send(command.StopMotor{}, false)
}

func (c *Commander) KeepAlive() error {
	return c.send(command.KeepAlive{}, false)
}

func (c *Commander) Close() error {
	if c.Sender == nil {
		return nil
	}
	return c.Sender.Close()
}

func (c *Commander) send(cmd command.Command, defaulted bool) error {
	if c.Sender == nil {
		return ErrSenderRequired
	}
	msg, err := command.Encode(c.Topic, cmd)
	if err != nil {
		return err
	}
	return c.sendMessage(msg, cmd, defaulted)
}

func (c *Commander) sendMessage(msg frame.Message, cmd command.Command, defaulted bool) error {
	name := command.Name(cmd)
	c.mu.Lock()
	err := c.Sender.Send(msg)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("commander: send %s: %w", name, err)
	}
	observability.RecordCommandSent(name, defaulted)
	c.log().Debug().Str("topic", c.Topic).Str("command", name).Int("frames", len(msg)).Msg("broadcast")
	return nil
}

func (c *Commander) log() *zerolog.Logger {
	c.once.Do(func() {
		c.logger = observability.ComponentLogger("", "commander")
	})
	return &c.logger
}
