package ndr

import (
	"encoding/binary"

	"github.com/marmos91/ndrctl/internal/ndr/stream"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
)

// Enumeration is a logical 16-bit unsigned integer (range 0..65535).
// Under DCE it marshals exactly like Primitive[uint16]; under NDR64 it
// marshals like Primitive[uint32] with the high 16 bits zero.
type Enumeration struct {
	Value uint16
}

// NewEnumeration wraps v as an Enumeration.
func NewEnumeration(v uint16) *Enumeration {
	return &Enumeration{Value: v}
}

// MarshalNDR implements Codec.
func (e *Enumeration) MarshalNDR(w *stream.Stream, syn Syntax) error {
	if err := checkSyntax(syn); err != nil {
		return err
	}
	if syn == SyntaxNDR64 {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(e.Value))
		return w.Serialize(buf, enumAlignment(syn))
	}
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, e.Value)
	return w.Serialize(buf, enumAlignment(syn))
}

// UnmarshalNDR implements Codec. Under NDR64, a value exceeding 65535
// fails with IntegerOverflow.
func (e *Enumeration) UnmarshalNDR(r *stream.Stream, syn Syntax) error {
	if err := checkSyntax(syn); err != nil {
		return err
	}
	if syn == SyntaxNDR64 {
		raw, err := r.DeserializeN(4, enumAlignment(syn))
		if err != nil {
			return err
		}
		v := binary.LittleEndian.Uint32(raw)
		if v > 65535 {
			return ndrerrors.New(ndrerrors.ErrIntegerOverflow, "enumeration value %d exceeds 16 bits", v)
		}
		e.Value = uint16(v)
		return nil
	}
	raw, err := r.DeserializeN(2, enumAlignment(syn))
	if err != nil {
		return err
	}
	e.Value = binary.LittleEndian.Uint16(raw)
	return nil
}
