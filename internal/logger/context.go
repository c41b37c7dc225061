package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds call-scoped logging context threaded through a
// binding's lifetime: identify the interface and binding a log line
// belongs to without re-stating it at every call site.
type LogContext struct {
	TraceID       string // OpenTelemetry trace ID
	SpanID        string // OpenTelemetry span ID
	PortName      string // Local port name the binding was opened against
	InterfaceUUID string // Interface identifier
	BindingID     uint16 // Allocated binding identifier
	Procnum       uint32 // Procedure ordinal of the in-flight call
	StartTime     time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext scoped to a bind on portName.
func NewLogContext(portName string) *LogContext {
	return &LogContext{
		PortName:  portName,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:       lc.TraceID,
		SpanID:        lc.SpanID,
		PortName:      lc.PortName,
		InterfaceUUID: lc.InterfaceUUID,
		BindingID:     lc.BindingID,
		Procnum:       lc.Procnum,
		StartTime:     lc.StartTime,
	}
}

// WithBinding returns a copy with the interface and binding identifiers set.
func (lc *LogContext) WithBinding(interfaceUUID string, bindingID uint16) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.InterfaceUUID = interfaceUUID
		clone.BindingID = bindingID
	}
	return clone
}

// WithProcnum returns a copy with the in-flight procedure ordinal set.
func (lc *LogContext) WithProcnum(procnum uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Procnum = procnum
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
