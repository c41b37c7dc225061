// Package port wraps the host OS's local message-port primitive (an
// external collaborator whose concrete OS binding this module does not
// provide) behind a small capability interface, and implements the
// transport discipline on top of it: connect by name, synchronous
// send-and-wait with optional view-reply capture, and idempotent
// disconnect.
//
// Every exchange is wrapped in a fixed port message header (Header):
// this package builds the header around the outbound payload and
// parses the reply's own header back out, deriving continuation from
// its Type word. It never dereferences or interprets the payload
// itself -- the bind/request/response/fault body framing is
// internal/rpc's concern.
package port

import (
	"encoding/binary"
	"sync"

	"github.com/marmos91/ndrctl/internal/logger"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
)

// Flags passed to SendWaitReceive, mirroring the bits the OS primitive
// documents.
const (
	FlagSyncRequest    uint32 = 0x00020000
	FlagReleaseMessage uint32 = 0x00010000
)

// ReplyType bits observed on an inbound reply.
const (
	ReplyContinuationRequired uint32 = 0x00002000
)

// AttributeFlags passed to message-attribute calls.
const (
	AttributeDataView uint32 = 0x40000000
	ViewFlagRelease   uint32 = 0x00010000
)

// HeaderSize is the fixed byte size of a port message header's
// inspected fields: DataLength, TotalLength, Type, DataInfoOffset. The
// client-id and auxiliary fields that follow on the real wire are
// platform-width and opaque to this engine; callers that need the
// platform's actual header size (12 bytes on 32-bit, 24 on 64-bit) pad
// for it themselves.
const HeaderSize = 8

// Header is the fixed prefix of every port message this engine sends
// and inspects: DataLength/TotalLength describe the message, Type
// carries reply-type bits such as ReplyContinuationRequired, and
// DataInfoOffset gives the byte offset (from the start of the message)
// where the DataLength-byte payload begins.
type Header struct {
	DataLength     uint16
	TotalLength    uint16
	Type           uint16
	DataInfoOffset uint16
}

// EncodeHeader writes the inspected fields of a port message header.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.DataLength)
	binary.LittleEndian.PutUint16(buf[2:4], h.TotalLength)
	binary.LittleEndian.PutUint16(buf[4:6], h.Type)
	binary.LittleEndian.PutUint16(buf[6:8], h.DataInfoOffset)
	return buf
}

// DecodeHeader reads the inspected fields of a port message header from
// the front of data.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ndrerrors.New(ndrerrors.ErrInvalidMessage, "port header too short: %d bytes", len(data))
	}
	return Header{
		DataLength:     binary.LittleEndian.Uint16(data[0:2]),
		TotalLength:    binary.LittleEndian.Uint16(data[2:4]),
		Type:           binary.LittleEndian.Uint16(data[4:6]),
		DataInfoOffset: binary.LittleEndian.Uint16(data[6:8]),
	}, nil
}

// DefaultMaxMessagePayload is the payload ceiling used when a caller
// has no configured transport limit to supply, matching the 4 KiB
// default the connect attribute set documents.
const DefaultMaxMessagePayload = 4 * 1024

// Handle is an opaque OS handle to a connected port. HandleInvalid is
// the sentinel the OS returns on a failed connect.
type Handle uintptr

// HandleInvalid is the sentinel handle value.
const HandleInvalid Handle = 0

// Attributes is the attribute set requested at connect time:
// impersonation allowed, object duplication allowed, and a payload
// ceiling.
type Attributes struct {
	AllowImpersonation bool
	AllowDuplication   bool
	MaxPayload         int
}

// DefaultAttributes is the attribute set used when no explicit payload
// ceiling is configured.
var DefaultAttributes = AttributesFor(DefaultMaxMessagePayload)

// AttributesFor returns the connect-time attribute set for a given
// payload ceiling, in bytes -- typically sourced from
// config.TransportConfig.MaxMessagePayload.
func AttributesFor(maxPayload int) Attributes {
	return Attributes{
		AllowImpersonation: true,
		AllowDuplication:   true,
		MaxPayload:         maxPayload,
	}
}

// SendResult carries the inline reply payload plus, when the reply
// signalled a view, the best-effort-captured out-of-band payload.
type SendResult struct {
	Out  []byte
	View []byte // nil unless the reply carried a view attribute
}

// MessagePort is the external collaborator capability this package
// consumes. The production implementation wraps the host OS's local
// message-port primitive; tests supply an in-memory fake (fakePort in
// port_test.go) so the transport discipline can be
// exercised without a real OS port.
type MessagePort interface {
	// Connect opens the named local port with attrs. Returns
	// HandleInvalid and an error if the OS returns a sentinel handle.
	Connect(name string, attrs Attributes) (Handle, error)

	// Disconnect releases the handle. Idempotent at the OS layer; this
	// package enforces idempotency itself via Connection's disconnected
	// flag, checked under its guard.
	Disconnect(h Handle) error

	// SendWaitReceive performs one synchronous exchange: it sends in
	// (already framed with a port message header by the caller) and
	// returns whatever reply bytes the OS primitive handed back,
	// unparsed. Connection.SendReceive is solely responsible for
	// interpreting the reply's header.
	SendWaitReceive(h Handle, flags uint32, in []byte) (out []byte, err error)

	// CaptureView best-effort fetches an out-of-band view payload
	// attached to the most recent reply. Returns ok=false if no view
	// attribute was present or the copy failed; this must never be
	// treated as a call failure.
	CaptureView(h Handle) (view []byte, ok bool)
}

// Connection is a connected local message port: {backend, handle, name,
// reader-writer guard}. The payload ceiling is passed to the backend at
// connect time and is not kept on the Connection. Once disconnected, no
// further send is accepted; exactly one disconnection is permitted.
type Connection struct {
	backend MessagePort
	name    string
	handle  Handle

	mu           sync.RWMutex
	disconnected bool
}

// Connect opens name via backend using attrs and returns a ready
// Connection.
func Connect(backend MessagePort, name string, attrs Attributes) (*Connection, error) {
	h, err := backend.Connect(name, attrs)
	if err != nil {
		return nil, ndrerrors.New(ndrerrors.ErrInvalidHandle, "connect %q: %v", name, err)
	}
	if h == HandleInvalid {
		return nil, ndrerrors.New(ndrerrors.ErrInvalidHandle, "connect %q: sentinel handle returned", name)
	}
	return &Connection{backend: backend, name: name, handle: h}, nil
}

// Name returns the port name this connection was opened against.
func (c *Connection) Name() string { return c.name }

// SendReceive frames in_bytes as a port message -- prefixing the fixed
// HeaderSize header that carries DataLength and TotalLength -- performs
// one synchronous exchange, and parses the reply's own header back out.
// The reply must be at least HeaderSize bytes; the DataLength-byte
// payload is extracted at the offset the reply header's DataInfoOffset
// field gives, and continuation is required exactly when the reply
// header's Type word has ReplyContinuationRequired set. When
// continuation is required, CaptureView is called for a best-effort
// out-of-band fetch.
//
// The reader-writer guard is acquired shared so multiple sends may be
// in flight concurrently; they serialise only at the underlying OS
// primitive.
func (c *Connection) SendReceive(in []byte) (SendResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.disconnected {
		return SendResult{}, ndrerrors.New(ndrerrors.ErrPortDisconnected, "send on disconnected port %q", c.name)
	}

	framed := make([]byte, 0, HeaderSize+len(in))
	framed = append(framed, EncodeHeader(Header{
		DataLength:     uint16(len(in)),
		TotalLength:    uint16(HeaderSize + len(in)),
		DataInfoOffset: HeaderSize,
	})...)
	framed = append(framed, in...)

	reply, err := c.backend.SendWaitReceive(c.handle, FlagSyncRequest, framed)
	if err != nil {
		return SendResult{}, ndrerrors.New(ndrerrors.ErrInvalidMessage, "send-wait-receive on %q: %v", c.name, err)
	}

	hdr, err := DecodeHeader(reply)
	if err != nil {
		return SendResult{}, ndrerrors.New(ndrerrors.ErrInvalidMessage, "reply on %q: %v", c.name, err)
	}
	start, end := int(hdr.DataInfoOffset), int(hdr.DataInfoOffset)+int(hdr.DataLength)
	if end > len(reply) {
		return SendResult{}, ndrerrors.New(ndrerrors.ErrInvalidMessage, "reply on %q: payload [%d:%d] exceeds %d-byte reply", c.name, start, end, len(reply))
	}

	result := SendResult{Out: reply[start:end]}
	if uint32(hdr.Type)&ReplyContinuationRequired != 0 {
		if view, ok := c.backend.CaptureView(c.handle); ok {
			result.View = view
		} else {
			logger.Debug("port: view capture failed, continuing with inline payload only", "port", c.name)
		}
		// Release message: free server resources. Best-effort; a
		// failure here does not fail the call that already completed.
		if _, relErr := c.backend.SendWaitReceive(c.handle, FlagReleaseMessage, nil); relErr != nil {
			logger.Debug("port: release-message send failed", "port", c.name, "error", relErr)
		}
	}
	return result, nil
}

// Disconnect idempotently waits for any in-flight SendReceive to
// complete (by acquiring the guard exclusively) and releases the
// handle. Concurrent callers to SendReceive observe PortDisconnected
// after this returns.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disconnected {
		return nil
	}
	c.disconnected = true
	if err := c.backend.Disconnect(c.handle); err != nil {
		return ndrerrors.New(ndrerrors.ErrInvalidHandle, "disconnect %q: %v", c.name, err)
	}
	return nil
}
