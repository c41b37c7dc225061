package rpc

import "sync/atomic"

// bindingIDCounter is a process-wide monotonically increasing 16-bit
// counter. A binding identifier is allocated per (port, interface,
// syntax) triple from this counter; the same counter value may legally
// be reused across disjoint ports, and wraparound behaviour for
// distinctness is left undefined.
type bindingIDCounter struct {
	v atomic.Uint32
}

var globalBindingIDCounter bindingIDCounter

// next returns the next binding identifier, truncated to 16 bits.
func (c *bindingIDCounter) next() uint16 {
	return uint16(c.v.Add(1))
}
