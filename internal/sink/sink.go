// Package sink provides the two byte-run consumers patch decoders write
// through: a file-backed sink and a fixed-capacity in-memory sink.
package sink

import (
	"os"

	"golang.org/x/xerrors"
)

// ErrCapacityExceeded is returned by MemorySink.Write when data would not
// fit in the remaining capacity.
var ErrCapacityExceeded = xerrors.New("sink: capacity exceeded")

// Sink consumes a run of bytes, in order, and reports how many were
// consumed. Decoders call Write repeatedly with successive chunks of their
// output; every byte must be written exactly once.
type Sink interface {
	Write(data []byte) (int, error)
}

// FileSink writes to an *os.File, looping internally on short writes so
// that callers never see a partial write as success.
type FileSink struct {
	f *os.File
}

// NewFileSink wraps f. The caller retains ownership of f (FileSink never
// closes it).
func NewFileSink(f *os.File) *FileSink {
	return &FileSink{f: f}
}

func (s *FileSink) Write(data []byte) (int, error) {
	done := 0
	for done < len(data) {
		n, err := s.f.Write(data[done:])
		if n > 0 {
			done += n
		}
		if err != nil {
			return done, xerrors.Errorf("sink: short write (%d of %d bytes): %w", done, len(data), err)
		}
		if n <= 0 {
			return done, xerrors.Errorf("sink: write returned %d bytes with no error", n)
		}
	}
	return done, nil
}

// MemorySink copies into a pre-sized buffer at a cursor, failing with
// ErrCapacityExceeded if the write would overflow it.
type MemorySink struct {
	buf []byte
	pos int
}

// NewMemorySink allocates a MemorySink with the given fixed capacity.
func NewMemorySink(capacity int64) *MemorySink {
	return &MemorySink{buf: make([]byte, capacity)}
}

func (s *MemorySink) Write(data []byte) (int, error) {
	if len(s.buf)-s.pos < len(data) {
		return 0, ErrCapacityExceeded
	}
	copy(s.buf[s.pos:], data)
	s.pos += len(data)
	return len(data), nil
}

// Bytes returns the bytes written so far (the logical length, not the full
// backing capacity).
func (s *MemorySink) Bytes() []byte {
	return s.buf[:s.pos]
}
