package codec

import (
	"encoding/binary"
	"math"
)

// Point3DSize is the packed width of one Point3D record: x, y, z float64, no padding.
const Point3DSize = 3 * Float64Size

// Point3D is one 24-byte double-precision record.
type Point3D struct {
	X float64
	Y float64
	Z float64
}

// TrailingBytes is a non-fatal warning: the frame held more bytes than the
// declared record run. The extra bytes are ignored.
type TrailingBytes struct {
	Count      int
	RecordSize int
	Extra      int
}

// DecodeRecordArray decodes count fixed-size records from the front of b.
//
// It fails with ErrTruncatedFrame if b is shorter than count*recordSize and
// returns a TrailingBytes warning if b is longer. decode receives exactly
// recordSize bytes per call.
func DecodeRecordArray[T any](b []byte, count, recordSize int, decode func([]byte) T) ([]T, *TrailingBytes, error) {
	if count < 0 {
		return nil, nil, ErrNegativeCount
	}
	if recordSize <= 0 {
		return nil, nil, ErrInvalidWidth
	}
	// Division keeps count*recordSize from overflowing.
	if count > len(b)/recordSize {
		return nil, nil, TruncatedFrameError{Count: count, RecordSize: recordSize, Have: len(b)}
	}
	need := count * recordSize
	out := make([]T, count)
	for i := 0; i < count; i++ {
		off := i * recordSize
		out[i] = decode(b[off : off+recordSize : off+recordSize])
	}
	var warn *TrailingBytes
	if extra := len(b) - need; extra > 0 {
		warn = &TrailingBytes{Count: count, RecordSize: recordSize, Extra: extra}
	}
	return out, warn, nil
}

// DecodePoints decodes count Point3D records.
func DecodePoints(b []byte, count int) ([]Point3D, *TrailingBytes, error) {
	return DecodeRecordArray(b, count, Point3DSize, decodePoint)
}

// DecodeScalarArray decodes count little-endian float64 values.
func DecodeScalarArray(b []byte, count int) ([]float64, *TrailingBytes, error) {
	return DecodeRecordArray(b, count, Float64Size, func(rec []byte) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(rec))
	})
}

func EncodePoints(points []Point3D) []byte {
	buf := make([]byte, len(points)*Point3DSize)
	for i, p := range points {
		off := i * Point3DSize
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(buf[off+16:], math.Float64bits(p.Z))
	}
	return buf
}

func EncodeScalars(values []float64) []byte {
	buf := make([]byte, len(values)*Float64Size)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*Float64Size:], math.Float64bits(v))
	}
	return buf
}

func decodePoint(rec []byte) Point3D {
	return Point3D{
		X: math.Float64frombits(binary.LittleEndian.Uint64(rec[0:8])),
		Y: math.Float64frombits(binary.LittleEndian.Uint64(rec[8:16])),
		Z: math.Float64frombits(binary.LittleEndian.Uint64(rec[16:24])),
	}
}
