package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/framelink/internal/testutil/testlog"
)

func TestReaderPopsInOrder(t *testing.T) {
	testlog.Start(t)
	msg := New([]byte("a"), []byte("bb"), []byte("ccc"))
	r := NewReader(msg)
	for i, want := range []string{"a", "bb", "ccc"} {
		f, err := r.Pop()
		if err != nil {
			t.Fatalf("pop %d: %v", i, err)
		}
		if !bytes.Equal(f, []byte(want)) {
			t.Fatalf("frame %d got=%q want=%q", i, f, want)
		}
	}
	if _, err := r.Pop(); !errors.Is(err, ErrShortMessage) {
		t.Fatalf("expected ErrShortMessage, got %v", err)
	}
}

func TestCheckLimits(t *testing.T) {
	testlog.Start(t)
	limits := Limits{MaxFrames: 2, MaxFrameBytes: 4}

	if err := Check(nil, limits); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if err := Check(New([]byte("a"), []byte("b"), []byte("c")), limits); !errors.Is(err, ErrTooManyFrames) {
		t.Fatalf("expected ErrTooManyFrames, got %v", err)
	}
	if err := Check(New([]byte("abcde")), limits); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	if err := Check(New([]byte("abcd"), nil), limits); err != nil {
		t.Fatalf("expected message within limits, got %v", err)
	}
}

func TestRawAndSize(t *testing.T) {
	testlog.Start(t)
	msg := New([]byte("topic"), []byte{0x01}, []byte{1, 2, 3, 4})
	raw := msg.Raw()
	if len(raw) != 3 {
		t.Fatalf("raw frames got=%d want=3", len(raw))
	}
	if msg.Size() != 10 {
		t.Fatalf("size got=%d want=10", msg.Size())
	}
}
