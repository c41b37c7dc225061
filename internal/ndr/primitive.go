package ndr

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/marmos91/ndrctl/internal/ndr/stream"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
)

// Primitive wraps any fixed-width scalar, GUID, or plain-data struct T.
// Marshal aligns to alignof(T) and writes T as little-endian bytes;
// unmarshal aligns and reads T back. Both syntaxes encode primitives
// identically -- only the surrounding container header widths diverge
// between DCE and NDR64.
type Primitive[T any] struct {
	Value T
}

// NewPrimitive wraps v as a Primitive.
func NewPrimitive[T any](v T) *Primitive[T] {
	return &Primitive[T]{Value: v}
}

func primitiveAlignment[T any](v T) int {
	align := int(unsafe.Alignof(v))
	if align < 1 {
		align = 1
	}
	if align > 8 {
		align = 8
	}
	return align
}

// MarshalNDR implements Codec.
func (p *Primitive[T]) MarshalNDR(w *stream.Stream, syn Syntax) error {
	if err := checkSyntax(syn); err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, p.Value); err != nil {
		return ndrerrors.New(ndrerrors.ErrIntegerOverflow, "encode primitive: %v", err)
	}
	return w.Serialize(buf.Bytes(), primitiveAlignment(p.Value))
}

// UnmarshalNDR implements Codec.
func (p *Primitive[T]) UnmarshalNDR(r *stream.Stream, syn Syntax) error {
	if err := checkSyntax(syn); err != nil {
		return err
	}
	size := int(unsafe.Sizeof(p.Value))
	raw, err := r.DeserializeN(size, primitiveAlignment(p.Value))
	if err != nil {
		return err
	}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &p.Value); err != nil {
		return ndrerrors.New(ndrerrors.ErrBufferUnderflow, "decode primitive: %v", err)
	}
	return nil
}

// GUID is a 128-bit identifier marshalled as 16 raw bytes, matching the
// wire layout of an interface or transfer-syntax UUID.
type GUID [16]byte
