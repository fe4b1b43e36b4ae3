package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Fixed widths of the scalar layouts.
const (
	Int32Size   = 4
	Uint32Size  = 4
	Float64Size = 8
	ByteSize    = 1
)

var (
	ErrTruncatedFrame = errors.New("codec: truncated frame")
	ErrInvalidWidth   = errors.New("codec: invalid scalar width")
	ErrNegativeCount  = errors.New("codec: negative record count")
)

// TruncatedFrameError reports a frame shorter than its declared record run.
type TruncatedFrameError struct {
	Count      int
	RecordSize int
	Have       int
}

func (e TruncatedFrameError) Error() string {
	return fmt.Sprintf(
		"codec: truncated frame: count=%d record_size=%d have=%d bytes",
		e.Count,
		e.RecordSize,
		e.Have,
	)
}

func (e TruncatedFrameError) Unwrap() error {
	return ErrTruncatedFrame
}

func EncodeInt32(n int32) []byte {
	buf := make([]byte, Int32Size)
	binary.LittleEndian.PutUint32(buf, uint32(n))
	return buf
}

func EncodeUint32(n uint32) []byte {
	buf := make([]byte, Uint32Size)
	binary.LittleEndian.PutUint32(buf, n)
	return buf
}

func EncodeFloat64(x float64) []byte {
	buf := make([]byte, Float64Size)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(x))
	return buf
}

func DecodeInt32(b []byte) (int32, error) {
	if err := checkWidth(b, Int32Size); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func DecodeUint32(b []byte) (uint32, error) {
	if err := checkWidth(b, Uint32Size); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func DecodeFloat64(b []byte) (float64, error) {
	if err := checkWidth(b, Float64Size); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func DecodeByte(b []byte) (byte, error) {
	if err := checkWidth(b, ByteSize); err != nil {
		return 0, err
	}
	return b[0], nil
}

func checkWidth(b []byte, want int) error {
	if len(b) < want {
		return TruncatedFrameError{Count: 1, RecordSize: want, Have: len(b)}
	}
	if len(b) > want {
		return fmt.Errorf("%w: got %d bytes want %d", ErrInvalidWidth, len(b), want)
	}
	return nil
}
