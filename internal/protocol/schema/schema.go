package schema

import (
	"fmt"

	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Layout names one positional frame layout.
type Layout string

const (
	LayoutCommand           Layout = "command"
	LayoutCommandStartMotor Layout = "command.start_motor"
	LayoutJobV1             Layout = "job.v1"
	LayoutJobV2             Layout = "job.v2"
)

// Kind is the wire type expected at one frame position.
type Kind uint8

const (
	KindText Kind = iota + 1
	KindByte
	KindInt32
	KindUint32
	KindFloat64
	KindRecords
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindByte:
		return "byte"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindFloat64:
		return "float64"
	case KindRecords:
		return "records"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Slot describes one frame position.
type Slot struct {
	Name string
	Kind Kind
}

// ValidationError names the first frame position a message is missing.
type ValidationError struct {
	Layout Layout
	Index  int
	Slot   string
	Kind   Kind
	Have   int
}

func (e ValidationError) Error() string {
	return fmt.Sprintf(
		"schema: layout=%s frame=%d (%s %s) missing: message has %d frames",
		e.Layout,
		e.Index,
		e.Slot,
		e.Kind,
		e.Have,
	)
}

func (e ValidationError) Unwrap() error {
	return frame.ErrShortMessage
}

var layouts = map[Layout][]Slot{
	LayoutCommand: {
		{"routing_token", KindText},
		{"payload", KindText},
	},
	LayoutCommandStartMotor: {
		{"routing_token", KindText},
		{"command_type", KindByte},
		{"speed", KindInt32},
	},
	LayoutJobV1: {
		{"label", KindText},
		{"point_count", KindInt32},
		{"points", KindRecords},
	},
	LayoutJobV2: {
		{"point_count", KindInt32},
		{"points", KindRecords},
		{"scalar_count", KindUint32},
		{"scalars", KindRecords},
		{"scalar", KindFloat64},
	},
}

// Validate checks that msg carries every frame its layout requires.
// Extra trailing frames are ignored.
func Validate(layout Layout, msg frame.Message) error {
	slots, ok := layouts[layout]
	if !ok {
		return fmt.Errorf("schema: unknown layout %q", layout)
	}
	if len(msg) < len(slots) {
		missing := slots[len(msg)]
		log.Debug().
			Str("layout", string(layout)).
			Int("frames", len(msg)).
			Int("want", len(slots)).
			Stringer("missing_kind", missing.Kind).
			Msg("schema.Validate short message")
		return ValidationError{Layout: layout, Index: len(msg), Slot: missing.Name, Kind: missing.Kind, Have: len(msg)}
	}
	if len(msg) > len(slots) {
		log.Debug().
			Str("layout", string(layout)).
			Int("frames", len(msg)).
			Int("want", len(slots)).
			Msg("schema.Validate ignoring extra frames")
	}
	return nil
}
