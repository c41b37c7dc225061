package ndr

import (
	"unicode/utf16"

	"github.com/marmos91/ndrctl/internal/ndr/stream"
)

// u16cell is a single UTF-16 code unit carried as a Primitive so it can
// back a ConformantVarying Array.
type u16cell = Primitive[uint16]

// WideString is a convenience wrapper around a
// ConformantVaryingArray[Primitive[uint16]], converting to and from
// host-native strings. AppendNull controls whether a trailing NUL wide
// character is appended on marshal; unmarshal never strips a trailing
// NUL automatically since the reduced array model has no length
// convention beyond ActualCount.
type WideString struct {
	array      Array[u16cell, *u16cell]
	AppendNull bool
}

// NewWideString builds a WideString from a host string, ready to marshal.
func NewWideString(s string, appendNull bool) *WideString {
	units := utf16.Encode([]rune(s))
	if appendNull {
		units = append(units, 0)
	}
	cells := make([]u16cell, len(units))
	for i, u := range units {
		cells[i] = u16cell{Value: u}
	}
	return &WideString{
		array:      Array[u16cell, *u16cell]{Kind: ConformantVarying, Elements: cells},
		AppendNull: appendNull,
	}
}

// String converts the decoded wide character array back to a host
// string, stopping at the first NUL code unit if one is present.
func (ws *WideString) String() string {
	units := make([]uint16, len(ws.array.Elements))
	for i, c := range ws.array.Elements {
		units[i] = c.Value
	}
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units))
}

// MarshalNDR implements Codec.
func (ws *WideString) MarshalNDR(w *stream.Stream, syn Syntax) error {
	return ws.array.MarshalNDR(w, syn)
}

// UnmarshalNDR implements Codec.
func (ws *WideString) UnmarshalNDR(r *stream.Stream, syn Syntax) error {
	return ws.array.UnmarshalNDR(r, syn)
}
