package job

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/danmuck/framelink/internal/protocol/codec"
	"github.com/danmuck/framelink/internal/protocol/frame"
	"github.com/danmuck/framelink/internal/protocol/schema"
)

var (
	ErrUnknownVersion = errors.New("job: unknown schema version")
	ErrTooManyRecords = errors.New("job: too many records for count field")
)

// Version selects a job frame layout. It is agreed out of band; the wire
// carries no discriminator.
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	default:
		return fmt.Sprintf("v%d?", uint8(v))
	}
}

func ParseVersion(raw string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "v1", "1":
		return V1, nil
	case "v2", "2":
		return V2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, raw)
	}
}

// Job is one unit of work. V1 jobs carry Label; V2 jobs carry the scalar
// section. PointCount and ScalarCount always equal the slice lengths.
type Job struct {
	Version     Version
	Label       string
	PointCount  int32
	Points      []codec.Point3D
	ScalarCount uint32
	Scalars     []float64
	Scalar      float64
	Warnings    []codec.TrailingBytes
}

// Decoder decodes one received message into a Job.
type Decoder func(frame.Message) (Job, error)

// Encoder encodes a Job into one message.
type Encoder func(Job) (frame.Message, error)

func DecoderFor(v Version) (Decoder, error) {
	switch v {
	case V1:
		return DecodeV1, nil
	case V2:
		return DecodeV2, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, uint8(v))
	}
}

func EncoderFor(v Version) (Encoder, error) {
	switch v {
	case V1:
		return EncodeV1, nil
	case V2:
		return EncodeV2, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, uint8(v))
	}
}

// DecodeV1 reads [label][point_count][points].
func DecodeV1(msg frame.Message) (Job, error) {
	if err := schema.Validate(schema.LayoutJobV1, msg); err != nil {
		return Job{}, err
	}
	r := frame.NewReader(msg)
	out := Job{Version: V1}

	labelFrame, err := r.Pop()
	if err != nil {
		return Job{}, err
	}
	out.Label = string(labelFrame)

	if out.PointCount, err = popInt32(r, "point_count"); err != nil {
		return Job{}, err
	}
	if err := popPoints(r, &out); err != nil {
		return Job{}, err
	}
	return out, nil
}

// DecodeV2 reads [point_count][points][scalar_count][scalars][scalar].
func DecodeV2(msg frame.Message) (Job, error) {
	if err := schema.Validate(schema.LayoutJobV2, msg); err != nil {
		return Job{}, err
	}
	r := frame.NewReader(msg)
	out := Job{Version: V2}

	var err error
	if out.PointCount, err = popInt32(r, "point_count"); err != nil {
		return Job{}, err
	}
	if err := popPoints(r, &out); err != nil {
		return Job{}, err
	}

	f, err := r.Pop()
	if err != nil {
		return Job{}, err
	}
	if out.ScalarCount, err = codec.DecodeUint32(f); err != nil {
		return Job{}, fmt.Errorf("job: scalar_count: %w", err)
	}

	if f, err = r.Pop(); err != nil {
		return Job{}, err
	}
	scalars, warn, err := codec.DecodeScalarArray(f, int(out.ScalarCount))
	if err != nil {
		return Job{}, fmt.Errorf("job: scalars: %w", err)
	}
	out.Scalars = scalars
	out.addWarning(warn)

	if f, err = r.Pop(); err != nil {
		return Job{}, err
	}
	if out.Scalar, err = codec.DecodeFloat64(f); err != nil {
		return Job{}, fmt.Errorf("job: scalar: %w", err)
	}
	return out, nil
}

// EncodeV1 writes [label][point_count][points]. Counts come from len(Points).
func EncodeV1(j Job) (frame.Message, error) {
	if len(j.Points) > math.MaxInt32 {
		return nil, ErrTooManyRecords
	}
	return frame.New(
		[]byte(j.Label),
		codec.EncodeInt32(int32(len(j.Points))),
		codec.EncodePoints(j.Points),
	), nil
}

// EncodeV2 writes [point_count][points][scalar_count][scalars][scalar].
func EncodeV2(j Job) (frame.Message, error) {
	if len(j.Points) > math.MaxInt32 || uint64(len(j.Scalars)) > math.MaxUint32 {
		return nil, ErrTooManyRecords
	}
	return frame.New(
		codec.EncodeInt32(int32(len(j.Points))),
		codec.EncodePoints(j.Points),
		codec.EncodeUint32(uint32(len(j.Scalars))),
		codec.EncodeScalars(j.Scalars),
		codec.EncodeFloat64(j.Scalar),
	), nil
}

func popInt32(r *frame.Reader, name string) (int32, error) {
	f, err := r.Pop()
	if err != nil {
		return 0, err
	}
	n, err := codec.DecodeInt32(f)
	if err != nil {
		return 0, fmt.Errorf("job: %s: %w", name, err)
	}
	return n, nil
}

func popPoints(r *frame.Reader, out *Job) error {
	f, err := r.Pop()
	if err != nil {
		return err
	}
	points, warn, err := codec.DecodePoints(f, int(out.PointCount))
	if err != nil {
		return fmt.Errorf("job: points: %w", err)
	}
	out.Points = points
	out.addWarning(warn)
	return nil
}

func (j *Job) addWarning(w *codec.TrailingBytes) {
	if w != nil {
		j.Warnings = append(j.Warnings, *w)
	}
}
