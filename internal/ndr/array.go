package ndr

import (
	"math"

	"github.com/marmos91/ndrctl/internal/ndr/stream"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
)

// ArrayKind selects which subset of the conformant/varying array header
// fields is present on the wire.
type ArrayKind int

const (
	// Conformant arrays carry only a MaxCount header field.
	Conformant ArrayKind = iota
	// Varying arrays carry Offset and ActualCount header fields.
	Varying
	// ConformantVarying arrays carry all three header fields.
	ConformantVarying
)

// Array is a one-dimensional NDR array of elements of type T, encoded
// per Kind. Marshal always emits MaxCount == ActualCount == len(Elements)
// and Offset == 0 -- the engine's deliberate restriction to the common
// case. Unmarshal is more permissive: MaxCount and ActualCount need not
// agree (ActualCount governs how many elements follow), but a non-zero
// Offset is rejected.
type Array[T any, PT codecPtr[T]] struct {
	Kind     ArrayKind
	Elements []T
}

// MarshalNDR implements Codec.
func (a *Array[T, PT]) MarshalNDR(w *stream.Stream, syn Syntax) error {
	n := uint64(len(a.Elements))
	if n == 0 {
		return ndrerrors.New(ndrerrors.ErrNoDataDetected, "cannot marshal an empty array")
	}

	switch a.Kind {
	case Conformant:
		if err := (&SizeT{Value: n}).MarshalNDR(w, syn); err != nil {
			return err
		}
	case Varying:
		if err := (&SizeT{Value: 0}).MarshalNDR(w, syn); err != nil {
			return err
		}
		if err := (&SizeT{Value: n}).MarshalNDR(w, syn); err != nil {
			return err
		}
	case ConformantVarying:
		if err := (&SizeT{Value: n}).MarshalNDR(w, syn); err != nil {
			return err
		}
		if err := (&SizeT{Value: 0}).MarshalNDR(w, syn); err != nil {
			return err
		}
		if err := (&SizeT{Value: n}).MarshalNDR(w, syn); err != nil {
			return err
		}
	}

	for i := range a.Elements {
		var pt PT = &a.Elements[i]
		if err := pt.MarshalNDR(w, syn); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalNDR implements Codec.
func (a *Array[T, PT]) UnmarshalNDR(r *stream.Stream, syn Syntax) error {
	var actual uint64

	switch a.Kind {
	case Conformant:
		var maxCount SizeT
		if err := maxCount.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		actual = maxCount.Value
	case Varying:
		var offset, actualCount SizeT
		if err := offset.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		if offset.Value != 0 {
			return ndrerrors.New(ndrerrors.ErrNotSupported, "varying array offset %d is not supported", offset.Value)
		}
		if err := actualCount.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		actual = actualCount.Value
	case ConformantVarying:
		var maxCount, offset, actualCount SizeT
		if err := maxCount.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		if err := offset.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		if offset.Value != 0 {
			return ndrerrors.New(ndrerrors.ErrNotSupported, "varying array offset %d is not supported", offset.Value)
		}
		if err := actualCount.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		actual = actualCount.Value
	}

	if actual > math.MaxUint32 {
		return ndrerrors.New(ndrerrors.ErrIntegerOverflow, "array count %d exceeds 2^32-1", actual)
	}

	elements := make([]T, actual)
	for i := range elements {
		var pt PT = &elements[i]
		if err := pt.UnmarshalNDR(r, syn); err != nil {
			return err
		}
	}
	a.Elements = elements
	return nil
}

// PointerArray is a one-dimensional NDR array whose element payload is
// split into two passes: first N RawPointer referents (one per slot, in
// order), then the T encodings for those slots whose referent was
// non-null. On unmarshal, a null referent leaves the corresponding
// Elements slot nil; on marshal, a nil slot fails with InvalidAddress.
type PointerArray[T any, PT codecPtr[T]] struct {
	Kind     ArrayKind
	Elements []*T
}

// MarshalNDR implements Codec.
func (a *PointerArray[T, PT]) MarshalNDR(w *stream.Stream, syn Syntax) error {
	n := uint64(len(a.Elements))
	if n == 0 {
		return ndrerrors.New(ndrerrors.ErrNoDataDetected, "cannot marshal an empty pointer array")
	}

	switch a.Kind {
	case Conformant:
		if err := (&SizeT{Value: n}).MarshalNDR(w, syn); err != nil {
			return err
		}
	case Varying:
		if err := (&SizeT{Value: 0}).MarshalNDR(w, syn); err != nil {
			return err
		}
		if err := (&SizeT{Value: n}).MarshalNDR(w, syn); err != nil {
			return err
		}
	case ConformantVarying:
		if err := (&SizeT{Value: n}).MarshalNDR(w, syn); err != nil {
			return err
		}
		if err := (&SizeT{Value: 0}).MarshalNDR(w, syn); err != nil {
			return err
		}
		if err := (&SizeT{Value: n}).MarshalNDR(w, syn); err != nil {
			return err
		}
	}

	for _, elem := range a.Elements {
		if elem == nil {
			return ndrerrors.New(ndrerrors.ErrInvalidAddress, "pointer array element referent is null")
		}
		if err := (&RawPointer{Value: nonNullReferent}).MarshalNDR(w, syn); err != nil {
			return err
		}
	}
	for _, elem := range a.Elements {
		var pt PT = elem
		if err := pt.MarshalNDR(w, syn); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalNDR implements Codec.
func (a *PointerArray[T, PT]) UnmarshalNDR(r *stream.Stream, syn Syntax) error {
	var actual uint64

	switch a.Kind {
	case Conformant:
		var maxCount SizeT
		if err := maxCount.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		actual = maxCount.Value
	case Varying:
		var offset, actualCount SizeT
		if err := offset.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		if offset.Value != 0 {
			return ndrerrors.New(ndrerrors.ErrNotSupported, "varying array offset %d is not supported", offset.Value)
		}
		if err := actualCount.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		actual = actualCount.Value
	case ConformantVarying:
		var maxCount, offset, actualCount SizeT
		if err := maxCount.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		if err := offset.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		if offset.Value != 0 {
			return ndrerrors.New(ndrerrors.ErrNotSupported, "varying array offset %d is not supported", offset.Value)
		}
		if err := actualCount.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		actual = actualCount.Value
	}

	if actual > math.MaxUint32 {
		return ndrerrors.New(ndrerrors.ErrIntegerOverflow, "array count %d exceeds 2^32-1", actual)
	}

	referents := make([]RawPointer, actual)
	for i := range referents {
		if err := referents[i].UnmarshalNDR(r, syn); err != nil {
			return err
		}
	}

	elements := make([]*T, actual)
	for i := range elements {
		if referents[i].IsNull() {
			continue
		}
		var t T
		pt := PT(&t)
		if err := pt.UnmarshalNDR(r, syn); err != nil {
			return err
		}
		elements[i] = &t
	}
	a.Elements = elements
	return nil
}
