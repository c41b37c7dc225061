package ndr

import (
	"encoding/binary"
	"math"

	"github.com/marmos91/ndrctl/internal/ndr/stream"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
)

// SizeT is a logical 64-bit unsigned integer used for every NDR
// conformant/varying array header field and for pointer referents. Under
// DCE it marshals like Primitive[uint32] and fails to marshal values
// above 2^32-1; under NDR64 it marshals like Primitive[uint64].
type SizeT struct {
	Value uint64
}

// NewSizeT wraps v as a SizeT.
func NewSizeT(v uint64) *SizeT {
	return &SizeT{Value: v}
}

// MarshalNDR implements Codec.
func (s *SizeT) MarshalNDR(w *stream.Stream, syn Syntax) error {
	if err := checkSyntax(syn); err != nil {
		return err
	}
	if syn == SyntaxDCE {
		if s.Value > math.MaxUint32 {
			return ndrerrors.New(ndrerrors.ErrIntegerOverflow, "SizeT value %d exceeds 2^32-1 under DCE", s.Value)
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(s.Value))
		return w.Serialize(buf, sizeTAlignment(syn))
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, s.Value)
	return w.Serialize(buf, sizeTAlignment(syn))
}

// UnmarshalNDR implements Codec. Under DCE the result lies in
// [0, 2^32-1]; under NDR64, in [0, 2^64-1].
func (s *SizeT) UnmarshalNDR(r *stream.Stream, syn Syntax) error {
	if err := checkSyntax(syn); err != nil {
		return err
	}
	raw, err := r.DeserializeN(sizeTWidth(syn), sizeTAlignment(syn))
	if err != nil {
		return err
	}
	if syn == SyntaxDCE {
		s.Value = uint64(binary.LittleEndian.Uint32(raw))
		return nil
	}
	s.Value = binary.LittleEndian.Uint64(raw)
	return nil
}

// Uint32 returns the value narrowed to 32 bits. Callers needing a
// narrower bound (for example converting to an array length on a
// 32-bit host) must check the returned ok.
func (s *SizeT) Uint32() (v uint32, ok bool) {
	if s.Value > math.MaxUint32 {
		return 0, false
	}
	return uint32(s.Value), true
}
