package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging. Use these keys
// consistently across all log statements so aggregation and querying
// line up between the octet-stream, NDR type model, marshal buffer,
// port transport, and RPC protocol layers.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Transfer Syntax & NDR
	// ========================================================================
	KeyTransferSyntax = "transfer_syntax" // DCE or NDR64
	KeyReferent       = "referent"        // Unique-pointer referent identifier token
	KeyArrayKind      = "array_kind"      // conformant, varying, conformant-varying

	// ========================================================================
	// Port Transport
	// ========================================================================
	KeyPortName     = "port_name"     // Local port name, e.g. \RPC Control\epmapper
	KeyHandle       = "handle"        // Opaque port handle value
	KeyViewPresent  = "view_present"  // Whether a reply carried an out-of-band view
	KeyPayloadBytes = "payload_bytes" // Inline or view payload size in bytes

	// ========================================================================
	// RPC Binding & Call
	// ========================================================================
	KeyInterfaceUUID = "interface_uuid" // Interface identifier being bound
	KeyInterfaceVer  = "interface_ver"  // major.minor interface version
	KeyBindingID     = "binding_id"     // Allocated binding identifier
	KeyCallID        = "call_id"        // Sentinel call identifier
	KeyProcnum       = "procnum"        // Procedure ordinal being invoked
	KeyRPCStatus     = "rpc_status"     // Server-reported RPC status on fault

	// ========================================================================
	// Endpoint Mapper
	// ========================================================================
	KeyTowerFloors = "tower_floors" // Floor count in an encoded tower
	KeyEndpoint    = "endpoint"     // Named-pipe endpoint string extracted from a reply tower

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Stable ndrerrors.Code name
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Transfer Syntax & NDR
// ----------------------------------------------------------------------------

// TransferSyntax returns a slog.Attr for the active transfer syntax.
func TransferSyntax(syn fmt.Stringer) slog.Attr {
	return slog.String(KeyTransferSyntax, syn.String())
}

// Referent returns a slog.Attr for a unique-pointer referent token.
func Referent(value uint64) slog.Attr {
	return slog.Uint64(KeyReferent, value)
}

// ArrayKind returns a slog.Attr for an array's conformance kind.
func ArrayKind(kind string) slog.Attr {
	return slog.String(KeyArrayKind, kind)
}

// ----------------------------------------------------------------------------
// Port Transport
// ----------------------------------------------------------------------------

// PortName returns a slog.Attr for a local port name.
func PortName(name string) slog.Attr {
	return slog.String(KeyPortName, name)
}

// Handle returns a slog.Attr for an opaque port handle, formatted in hex.
func Handle(h uintptr) slog.Attr {
	return slog.String(KeyHandle, fmt.Sprintf("%#x", h))
}

// ViewPresent returns a slog.Attr for whether a reply carried a view.
func ViewPresent(present bool) slog.Attr {
	return slog.Bool(KeyViewPresent, present)
}

// PayloadBytes returns a slog.Attr for a payload's byte length.
func PayloadBytes(n int) slog.Attr {
	return slog.Int(KeyPayloadBytes, n)
}

// ----------------------------------------------------------------------------
// RPC Binding & Call
// ----------------------------------------------------------------------------

// InterfaceUUID returns a slog.Attr for an interface identifier.
func InterfaceUUID(uuid string) slog.Attr {
	return slog.String(KeyInterfaceUUID, uuid)
}

// InterfaceVersion returns a slog.Attr for an interface's major.minor version.
func InterfaceVersion(major, minor uint16) slog.Attr {
	return slog.String(KeyInterfaceVer, fmt.Sprintf("%d.%d", major, minor))
}

// BindingID returns a slog.Attr for an allocated binding identifier.
func BindingID(id uint16) slog.Attr {
	return slog.Uint64(KeyBindingID, uint64(id))
}

// CallID returns a slog.Attr for a call's sentinel identifier.
func CallID(id uint32) slog.Attr {
	return slog.String(KeyCallID, fmt.Sprintf("%#x", id))
}

// Procnum returns a slog.Attr for a procedure ordinal.
func Procnum(n uint32) slog.Attr {
	return slog.Uint64(KeyProcnum, uint64(n))
}

// RPCStatus returns a slog.Attr for a server-reported fault status.
func RPCStatus(status uint32) slog.Attr {
	return slog.Uint64(KeyRPCStatus, uint64(status))
}

// ----------------------------------------------------------------------------
// Endpoint Mapper
// ----------------------------------------------------------------------------

// TowerFloors returns a slog.Attr for a tower's floor count.
func TowerFloors(n int) slog.Attr {
	return slog.Int(KeyTowerFloors, n)
}

// Endpoint returns a slog.Attr for a named-pipe endpoint string.
func Endpoint(name string) slog.Attr {
	return slog.String(KeyEndpoint, name)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for an operation's duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error message.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a stable error code name.
func ErrorCode(code fmt.Stringer) slog.Attr {
	return slog.String(KeyErrorCode, code.String())
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempts allowed.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
