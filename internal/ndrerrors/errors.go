// Package ndrerrors provides the stable error codes returned by the NDR
// marshalling engine and the local-RPC protocol stack. This is a leaf
// package with no internal dependencies so it can be imported by the
// stream, ndr, marshal, port, and rpc packages without causing import
// cycles.
//
// Import graph: stream, ndr, marshal, port, and rpc import ndrerrors;
// ndrerrors imports none of them.
package ndrerrors

import (
	"errors"
	"fmt"
)

// Code represents the type of error that occurred during marshalling,
// unmarshalling, or RPC transport.
type Code int

const (
	// ErrOutOfMemory indicates the allocator refused to grow a stream.
	ErrOutOfMemory Code = iota + 1

	// ErrIntegerOverflow indicates a size or cursor computation would
	// exceed the platform width or the active NDR field width.
	ErrIntegerOverflow

	// ErrBufferUnderflow indicates deserialise demanded more bytes than
	// remain in the stream.
	ErrBufferUnderflow

	// ErrInvalidMessage indicates a received frame failed a header or
	// call-id check.
	ErrInvalidMessage

	// ErrInvalidHandle indicates a port handle is sentinel or closed.
	ErrInvalidHandle

	// ErrPortDisconnected indicates a send was attempted after disconnect.
	ErrPortDisconnected

	// ErrUnknownTransferSyntax indicates a syntax tag is neither DCE nor
	// NDR64.
	ErrUnknownTransferSyntax

	// ErrNotSupported indicates an encoding the reduced NDR model does
	// not cover, such as a varying-array offset other than zero.
	ErrNotSupported

	// ErrNoDataDetected indicates an attempt to marshal an empty
	// container where the reduced model forbids one.
	ErrNoDataDetected

	// ErrInvalidAddress indicates a pointer-array marshal with a null
	// embedded referent.
	ErrInvalidAddress

	// ErrConnectionRefused indicates the endpoint-map returned no usable
	// endpoint.
	ErrConnectionRefused

	// ErrFaultReceived indicates the server returned a fault frame.
	ErrFaultReceived
)

// String returns a human-readable name for the error code.
func (c Code) String() string {
	switch c {
	case ErrOutOfMemory:
		return "OutOfMemory"
	case ErrIntegerOverflow:
		return "IntegerOverflow"
	case ErrBufferUnderflow:
		return "BufferUnderflow"
	case ErrInvalidMessage:
		return "InvalidMessage"
	case ErrInvalidHandle:
		return "InvalidHandle"
	case ErrPortDisconnected:
		return "PortDisconnected"
	case ErrUnknownTransferSyntax:
		return "UnknownTransferSyntax"
	case ErrNotSupported:
		return "NotSupported"
	case ErrNoDataDetected:
		return "NoDataDetected"
	case ErrInvalidAddress:
		return "InvalidAddress"
	case ErrConnectionRefused:
		return "ConnectionRefused"
	case ErrFaultReceived:
		return "FaultReceived"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error represents a marshalling or RPC error tagged with a stable Code.
type Error struct {
	Code    Code
	Message string
	// Status carries the server-reported RPC status for ErrFaultReceived;
	// zero for every other code.
	Status uint32
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code == ErrFaultReceived {
		return fmt.Sprintf("%s: %s (rpc_status=%d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is allows errors.Is(err, target) comparisons where target is an *Error
// (for example one built by New): two *Error values match when their
// Codes are equal.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewFault creates an ErrFaultReceived error carrying the server's mapped
// RPC status code.
func NewFault(status uint32) *Error {
	return &Error{
		Code:    ErrFaultReceived,
		Message: "server returned fault",
		Status:  status,
	}
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *Error, returning ok=false otherwise.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return 0, false
	}
	var as *Error
	if errors.As(err, &as) {
		return as.Code, true
	}
	return 0, false
}
