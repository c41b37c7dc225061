// Package marshal provides the failure-sticky chaining wrapper over an
// octet stream used by every call site that marshals or unmarshals a
// sequence of NDR values.
package marshal

import (
	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/marmos91/ndrctl/internal/ndr/stream"
)

// Buffer pairs an octet stream with the active transfer-syntax selector
// and a sticky status: once any operation fails, every subsequent
// operation on the Buffer is a no-op and the first failure is retained.
type Buffer struct {
	stream *stream.Stream
	syntax ndr.Syntax
	err    error
}

// New returns an empty Buffer ready for marshalling under syn.
func New(syn ndr.Syntax) *Buffer {
	return &Buffer{stream: stream.New(), syntax: syn}
}

// NewFromBytes returns a Buffer pre-loaded with data, ready for
// unmarshalling under syn.
func NewFromBytes(data []byte, syn ndr.Syntax) *Buffer {
	return &Buffer{stream: stream.NewFromBytes(data), syntax: syn}
}

// Syntax returns the buffer's active transfer syntax.
func (b *Buffer) Syntax() ndr.Syntax {
	return b.syntax
}

// Status returns the first error the buffer latched, or nil if every
// operation so far has succeeded.
func (b *Buffer) Status() error {
	return b.err
}

// Marshal serialises v into the buffer. A no-op if the buffer has
// already failed.
func (b *Buffer) Marshal(v ndr.Codec) *Buffer {
	if b.err != nil {
		return b
	}
	b.err = v.MarshalNDR(b.stream, b.syntax)
	return b
}

// Unmarshal deserialises into v from the buffer. A no-op if the buffer
// has already failed.
func (b *Buffer) Unmarshal(v ndr.Codec) *Buffer {
	if b.err != nil {
		return b
	}
	b.err = v.UnmarshalNDR(b.stream, b.syntax)
	return b
}

// MarshalRawBytes appends raw bytes with no alignment. A no-op if the
// buffer has already failed.
func (b *Buffer) MarshalRawBytes(data []byte) *Buffer {
	if b.err != nil {
		return b
	}
	b.err = b.stream.SerializeRaw(data)
	return b
}

// Bytes returns the accumulated wire bytes, regardless of status.
func (b *Buffer) Bytes() []byte {
	return b.stream.Bytes()
}
