package command

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/framelink/internal/protocol/codec"
	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/danmuck/framelink/internal/testutil/testlog"
)

func TestEncodeStartMotorNonNumericDefaults(t *testing.T) {
	testlog.Start(t)
	msg, speed, err := EncodeStartMotor(DefaultTopic, "fast")
	if !errors.Is(err, ErrInvalidSpeedDefaulted) {
		t.Fatalf("expected ErrInvalidSpeedDefaulted, got %v", err)
	}
	var serr InvalidSpeedError
	if !errors.As(err, &serr) || serr.Input != "fast" || serr.Speed != DefaultSpeed {
		t.Fatalf("unexpected speed error detail: %+v", serr)
	}
	if speed != 100 {
		t.Fatalf("effective speed got=%d want=100", speed)
	}
	if len(msg) != 3 {
		t.Fatalf("frame count got=%d want=3", len(msg))
	}
	if string(msg[0]) != DefaultTopic {
		t.Fatalf("routing token got=%q", msg[0])
	}
	if !bytes.Equal(msg[1], []byte{0x01}) {
		t.Fatalf("type frame got=%x want=01", msg[1])
	}
	if got, _ := codec.DecodeInt32(msg[2]); got != 100 {
		t.Fatalf("speed frame got=%d want=100", got)
	}
}

func TestEncodeStartMotorNumeric(t *testing.T) {
	testlog.Start(t)
	msg, speed, err := EncodeStartMotor(DefaultTopic, " -250 ")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if speed != -250 {
		t.Fatalf("speed got=%d want=-250", speed)
	}
	env, err := Decode(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd, ok := env.Command.(StartMotor); !ok || cmd.Speed != -250 {
		t.Fatalf("unexpected command: %#v", env.Command)
	}
}

func TestEncodeStartMotorOutOfRangeDefaults(t *testing.T) {
	testlog.Start(t)
	_, speed, err := EncodeStartMotor(DefaultTopic, "4294967296")
	if !errors.Is(err, ErrInvalidSpeedDefaulted) || speed != DefaultSpeed {
		t.Fatalf("expected default for out of range speed, got speed=%d err=%v", speed, err)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	testlog.Start(t)
	cases := []Command{
		RawText{Text: "hello worker"},
		StartMotor{Speed: 42},
		StopMotor{},
		KeepAlive{},
	}
	for _, in := range cases {
		msg, err := Encode(DefaultTopic, in)
		if err != nil {
			t.Fatalf("encode %s: %v", Name(in), err)
		}
		env, err := Decode(msg)
		if err != nil {
			t.Fatalf("decode %s: %v", Name(in), err)
		}
		if env.Topic != DefaultTopic {
			t.Fatalf("topic got=%q", env.Topic)
		}
		if env.Command != in {
			t.Fatalf("command got=%#v want=%#v", env.Command, in)
		}
	}
}

func TestStopMotorWireLayout(t *testing.T) {
	testlog.Start(t)
	msg, err := Encode(DefaultTopic, StopMotor{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(msg) != 2 || !bytes.Equal(msg[1], []byte{0x02}) {
		t.Fatalf("unexpected stop layout: %x", msg.Raw())
	}
}

func TestDecodeSingleByteUnknownIsRawText(t *testing.T) {
	testlog.Start(t)
	env, err := Decode(frame.New([]byte(DefaultTopic), []byte{0x7f}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd, ok := env.Command.(RawText); !ok || cmd.Text != "\x7f" {
		t.Fatalf("expected raw text, got %#v", env.Command)
	}
}

func TestDecodeStartMotorMissingSpeed(t *testing.T) {
	testlog.Start(t)
	_, err := Decode(frame.New([]byte(DefaultTopic), []byte{0x01}))
	if !errors.Is(err, frame.ErrShortMessage) {
		t.Fatalf("expected ErrShortMessage, got %v", err)
	}
}

func TestDecodeStartMotorShortSpeed(t *testing.T) {
	testlog.Start(t)
	_, err := Decode(frame.New([]byte(DefaultTopic), []byte{0x01}, []byte{1, 0}))
	if !errors.Is(err, codec.ErrTruncatedFrame) {
		t.Fatalf("expected ErrTruncatedFrame, got %v", err)
	}
}

func TestDecodeMissingPayload(t *testing.T) {
	testlog.Start(t)
	if _, err := Decode(frame.New([]byte(DefaultTopic))); !errors.Is(err, frame.ErrShortMessage) {
		t.Fatalf("expected ErrShortMessage, got %v", err)
	}
}

func TestEncodeRejectsEmptyTopic(t *testing.T) {
	testlog.Start(t)
	if _, err := Encode("", StopMotor{}); !errors.Is(err, ErrEmptyTopic) {
		t.Fatalf("expected ErrEmptyTopic, got %v", err)
	}
}

func TestMatchesPrefix(t *testing.T) {
	testlog.Start(t)
	if !MatchesPrefix("To Worker", "To W") || !MatchesPrefix("anything", "") {
		t.Fatalf("expected prefix match")
	}
	if MatchesPrefix("To Other", "To Worker") {
		t.Fatalf("unexpected prefix match")
	}
}
