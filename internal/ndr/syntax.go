// Package ndr implements the reduced Network Data Representation type
// model shared by the DCE-NDR (32-bit) and NDR64 (64-bit) transfer
// syntaxes: primitives, enumerations, size-dependent integers, raw and
// unique pointers, and one-dimensional conformant/varying arrays.
//
// Every value type implements the Codec capability (MarshalNDR /
// UnmarshalNDR) rather than relying on a base-class virtual dispatch, the
// idiomatic Go translation of the source's class hierarchy: a tagged set
// of concrete types, each owning its own wire logic, dispatched through a
// plain interface rather than a switch over a kind enum.
package ndr

import (
	"github.com/marmos91/ndrctl/internal/ndr/stream"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
)

// Syntax is the transfer-syntax selector. Its values must be preserved
// bit-for-bit into wire headers.
type Syntax uint8

const (
	// SyntaxDCE is the classic 32-bit DCE-NDR transfer syntax.
	SyntaxDCE Syntax = 1
	// SyntaxNDR64 is the 64-bit NDR64 transfer syntax.
	SyntaxNDR64 Syntax = 2
)

// String renders the syntax tag for logging.
func (s Syntax) String() string {
	switch s {
	case SyntaxDCE:
		return "DCE"
	case SyntaxNDR64:
		return "NDR64"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the two recognised syntaxes.
func (s Syntax) Valid() bool {
	return s == SyntaxDCE || s == SyntaxNDR64
}

// checkSyntax returns UnknownTransferSyntax if s is not recognised.
func checkSyntax(s Syntax) error {
	if !s.Valid() {
		return ndrerrors.New(ndrerrors.ErrUnknownTransferSyntax, "syntax tag %d is neither DCE nor NDR64", uint8(s))
	}
	return nil
}

// Codec is implemented by every NDR value type. MarshalNDR serialises the
// receiver into w under the given syntax; UnmarshalNDR populates the
// receiver by reading from r under the given syntax. Both return an error
// from internal/ndrerrors on failure.
type Codec interface {
	MarshalNDR(w *stream.Stream, syn Syntax) error
	UnmarshalNDR(r *stream.Stream, syn Syntax) error
}

// sizeTAlignment returns the natural alignment, in bytes, of a SizeT
// under the given syntax: 4 for DCE, 8 for NDR64.
func sizeTAlignment(syn Syntax) int {
	if syn == SyntaxNDR64 {
		return 8
	}
	return 4
}

// sizeTWidth returns the wire width, in bytes, of a SizeT under the given
// syntax: 4 for DCE, 8 for NDR64.
func sizeTWidth(syn Syntax) int {
	if syn == SyntaxNDR64 {
		return 8
	}
	return 4
}

// enumAlignment returns the natural alignment of an Enumeration: 2 for
// DCE, 4 for NDR64.
func enumAlignment(syn Syntax) int {
	if syn == SyntaxNDR64 {
		return 4
	}
	return 2
}

// pointerAlignment returns the natural alignment of a RawPointer: 4 for
// DCE, 8 for NDR64. Pointers share SizeT's width under both syntaxes.
func pointerAlignment(syn Syntax) int {
	return sizeTAlignment(syn)
}
