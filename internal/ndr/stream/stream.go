// Package stream provides a growable byte buffer with independent read and
// write cursors, alignment-fill, and bounded I/O.
//
// It is the lowest layer of the NDR marshalling engine: the NDR type model
// (internal/ndr) and the marshal buffer (internal/ndr/marshal) are built
// entirely on top of the operations exposed here. A Stream is never shared
// across goroutines; each call owns its own.
//
// All multi-byte values that pass through Serialize/Deserialize are written
// little-endian, matching the wire byte order used by both transfer-syntax
// dialects this engine supports.
package stream

import (
	"math"

	"github.com/marmos91/ndrctl/internal/ndrerrors"
)

// Stream is a byte container with a contiguous payload, a monotonically
// increasing write cursor, and an independent read cursor.
//
// Invariant: ReadCursor() <= WriteCursor() <= len(buf), and len(buf) is
// exactly the number of bytes ever written.
type Stream struct {
	buf         []byte
	writeCursor int
	readCursor  int
}

// New returns an empty Stream ready for writes.
func New() *Stream {
	return &Stream{}
}

// NewFromBytes returns a Stream pre-loaded with data, positioned for reads
// from the start. Used to wrap an inbound wire payload for unmarshalling.
func NewFromBytes(data []byte) *Stream {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Stream{buf: buf, writeCursor: len(buf)}
}

// WriteCursor returns the current write cursor.
func (s *Stream) WriteCursor() int { return s.writeCursor }

// ReadCursor returns the current read cursor.
func (s *Stream) ReadCursor() int { return s.readCursor }

// Bytes returns the accumulated buffer. The returned slice is borrowed: the
// caller may copy it but must not retain it past further mutation of the
// stream.
func (s *Stream) Bytes() []byte {
	return s.buf[:s.writeCursor]
}

// Remaining returns the number of unread bytes.
func (s *Stream) Remaining() int {
	return s.writeCursor - s.readCursor
}

// Serialize pads the write cursor to the next multiple of alignment with
// zero bytes, then appends data. It fails with ErrIntegerOverflow if the
// new cursor would overflow int or exceed math.MaxInt32. Growing the
// backing array uses make; an allocation failure is not reported as
// ErrOutOfMemory.
func (s *Stream) Serialize(data []byte, alignment int) error {
	if err := s.alignForWrite(alignment); err != nil {
		return err
	}
	return s.writeRaw(data)
}

// SerializeRaw appends data with no alignment.
func (s *Stream) SerializeRaw(data []byte) error {
	return s.writeRaw(data)
}

// Deserialize advances the read cursor past alignment padding (the padding
// bytes are discarded, not validated as zero), then reads len(out) bytes
// into out. It fails with ErrBufferUnderflow if fewer than len(out) bytes
// remain after alignment.
func (s *Stream) Deserialize(out []byte, alignment int) error {
	if err := s.alignForRead(alignment); err != nil {
		return err
	}
	return s.readRaw(out)
}

// DeserializeN is a convenience wrapper around Deserialize that allocates
// and returns an n-byte slice.
func (s *Stream) DeserializeN(n int, alignment int) ([]byte, error) {
	out := make([]byte, n)
	if err := s.Deserialize(out, alignment); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Stream) alignForWrite(alignment int) error {
	if alignment <= 1 {
		return nil
	}
	pad := (alignment - (s.writeCursor % alignment)) % alignment
	if pad == 0 {
		return nil
	}
	return s.writeRaw(make([]byte, pad))
}

func (s *Stream) alignForRead(alignment int) error {
	if alignment <= 1 {
		return nil
	}
	pad := (alignment - (s.readCursor % alignment)) % alignment
	if pad == 0 {
		return nil
	}
	return s.readRaw(make([]byte, pad))
}

func (s *Stream) writeRaw(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	finalCursor := s.writeCursor + len(data)
	if finalCursor < s.writeCursor || finalCursor > math.MaxInt32 {
		return ndrerrors.New(ndrerrors.ErrIntegerOverflow, "write cursor overflow: %d + %d", s.writeCursor, len(data))
	}
	if finalCursor > len(s.buf) {
		grown := make([]byte, finalCursor)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.writeCursor:finalCursor], data)
	s.writeCursor = finalCursor
	return nil
}

func (s *Stream) readRaw(out []byte) error {
	if len(out) == 0 {
		return nil
	}
	finalCursor := s.readCursor + len(out)
	if finalCursor < s.readCursor || finalCursor > math.MaxInt32 {
		return ndrerrors.New(ndrerrors.ErrIntegerOverflow, "read cursor overflow: %d + %d", s.readCursor, len(out))
	}
	if finalCursor > s.writeCursor {
		return ndrerrors.New(ndrerrors.ErrBufferUnderflow, "need %d bytes, only %d remain", len(out), s.Remaining())
	}
	copy(out, s.buf[s.readCursor:finalCursor])
	s.readCursor = finalCursor
	return nil
}
