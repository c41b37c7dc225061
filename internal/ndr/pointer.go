package ndr

import (
	"github.com/marmos91/ndrctl/internal/ndr/stream"
)

// RawPointer stores an opaque referent token. It never dereferences the
// value it carries: on unmarshal the value is treated purely as an
// opaque identifier. Zero encodes "null".
type RawPointer struct {
	Value uint64
}

// NewRawPointer wraps v as a RawPointer.
func NewRawPointer(v uint64) *RawPointer {
	return &RawPointer{Value: v}
}

// IsNull reports whether the referent is the null token.
func (p *RawPointer) IsNull() bool { return p.Value == 0 }

// MarshalNDR implements Codec by emitting the referent as a SizeT.
func (p *RawPointer) MarshalNDR(w *stream.Stream, syn Syntax) error {
	return (&SizeT{Value: p.Value}).MarshalNDR(w, syn)
}

// UnmarshalNDR implements Codec by reading the referent as a SizeT.
func (p *RawPointer) UnmarshalNDR(r *stream.Stream, syn Syntax) error {
	var sz SizeT
	if err := sz.UnmarshalNDR(r, syn); err != nil {
		return err
	}
	p.Value = sz.Value
	return nil
}

// nonNullReferent is the fixed placeholder written for a non-null
// unique-pointer referent. Per the design notes, a live address must
// never be written to the wire: any non-zero token is sufficient since
// the receiver treats it as opaque.
const nonNullReferent = 1

// codecPtr constrains T so that *T implements Codec, letting
// UniquePointer hold a T by value while dispatching through its pointer
// methods.
type codecPtr[T any] interface {
	*T
	Codec
}

// UniquePointer is a non-aliased, possibly-null pointer to a T. Marshal
// emits a zero RawPointer and stops when Value is nil; otherwise it
// emits a non-zero placeholder referent followed by T's own encoding.
// Unmarshal mirrors this: a zero referent leaves Value nil, a non-zero
// referent is followed by reading a T.
//
// Aliases (two distinct unique pointers sharing a referent ID) are not
// supported; the marshaller never constructs or interprets repeated
// referents.
type UniquePointer[T any, PT codecPtr[T]] struct {
	Value *T
}

// MarshalNDR implements Codec.
func (p *UniquePointer[T, PT]) MarshalNDR(w *stream.Stream, syn Syntax) error {
	if p.Value == nil {
		return (&RawPointer{Value: 0}).MarshalNDR(w, syn)
	}
	if err := (&RawPointer{Value: nonNullReferent}).MarshalNDR(w, syn); err != nil {
		return err
	}
	var pt PT = p.Value
	return pt.MarshalNDR(w, syn)
}

// UnmarshalNDR implements Codec.
func (p *UniquePointer[T, PT]) UnmarshalNDR(r *stream.Stream, syn Syntax) error {
	var ref RawPointer
	if err := ref.UnmarshalNDR(r, syn); err != nil {
		return err
	}
	if ref.IsNull() {
		p.Value = nil
		return nil
	}
	var t T
	pt := PT(&t)
	if err := pt.UnmarshalNDR(r, syn); err != nil {
		return err
	}
	p.Value = &t
	return nil
}
