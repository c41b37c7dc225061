package rpc

import (
	"sync"

	"github.com/marmos91/ndrctl/internal/logger"
	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
	"github.com/marmos91/ndrctl/internal/port"
)

// State is a Binding's position in the bind/call/disconnect state
// machine.
type State int

const (
	// StateInit is the state before a bind has been attempted.
	StateInit State = iota
	// StateBinding is the state while a bind request is outstanding.
	StateBinding
	// StateBound is the state after a successful bind; calls may be made.
	StateBound
	// StateInCall is the state while a call's response is outstanding.
	StateInCall
	// StateFailed is a terminal state reached when a bind is rejected.
	StateFailed
	// StateClosed is a terminal state reached after disconnect.
	StateClosed
)

// Binding is an RPC binding: {Port Connection, interface identifier,
// transfer-syntax tag, binding identifier}. It is created by a
// successful Bind and destroyed with its owning Connection.
type Binding struct {
	conn          *port.Connection
	interfaceUUID ndr.GUID
	major, minor  uint16
	syntax        ndr.Syntax
	bindingID     uint16

	mu    sync.Mutex
	state State
}

// InterfaceUUID returns the interface this binding was established
// against.
func (b *Binding) InterfaceUUID() ndr.GUID { return b.interfaceUUID }

// Syntax returns the negotiated transfer syntax.
func (b *Binding) Syntax() ndr.Syntax { return b.syntax }

// BindingID returns the allocated binding identifier.
func (b *Binding) BindingID() uint16 { return b.bindingID }

// State returns the binding's current state.
func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// bindingIDSlot returns the (slots, transferSyntaxFlags,
// supportsMultiple) tuple for syn, or an error if syn is unrecognised.
func bindingIDSlot(id uint16, syn ndr.Syntax) (slots [3]uint16, flags uint32, multi uint32, err error) {
	switch syn {
	case ndr.SyntaxDCE:
		slots[1] = id
		return slots, TransferSyntaxDCE, 0, nil
	case ndr.SyntaxNDR64:
		slots[2] = id
		return slots, TransferSyntaxNDR64, 1, nil
	default:
		return slots, 0, 0, ndrerrors.New(ndrerrors.ErrUnknownTransferSyntax, "bind: syntax %v not recognised", syn)
	}
}

// Bind establishes a binding to ifaceUUID (major.minor) on conn under
// syn. It allocates a binding identifier from the process-wide counter,
// sends the bind request, and transitions to StateBound on a zero
// BindingStatus or StateFailed (terminal) otherwise.
func Bind(conn *port.Connection, ifaceUUID ndr.GUID, major, minor uint16, syn ndr.Syntax) (*Binding, error) {
	b := &Binding{
		conn:          conn,
		interfaceUUID: ifaceUUID,
		major:         major,
		minor:         minor,
		syntax:        syn,
		bindingID:     globalBindingIDCounter.next(),
		state:         StateInit,
	}

	slots, flags, multi, err := bindingIDSlot(b.bindingID, syn)
	if err != nil {
		b.state = StateFailed
		return nil, err
	}

	b.state = StateBinding
	body := EncodeBindBody(BindBody{
		BindingStatus:            0,
		InterfaceUUID:            ifaceUUID,
		InterfaceMajor:           major,
		InterfaceMinor:           minor,
		TransferSyntaxFlags:      flags,
		BindingIDSlots:           slots,
		SupportsMultipleSyntaxes: multi,
	})

	result, err := conn.SendReceive(body)
	if err != nil {
		b.state = StateFailed
		observeBind(syn.String(), false)
		return nil, err
	}

	status, err := DecodeBindStatus(result.Out)
	if err != nil {
		b.state = StateFailed
		observeBind(syn.String(), false)
		return nil, err
	}
	if status != 0 {
		b.state = StateFailed
		observeBind(syn.String(), false)
		return nil, ndrerrors.New(ndrerrors.ErrConnectionRefused, "bind to %s rejected with status %d", FormatUUID(ifaceUUID), status)
	}

	b.state = StateBound
	observeBind(syn.String(), true)
	logger.Debug("rpc: bound", "interface", FormatUUID(ifaceUUID), "syntax", syn, "binding_id", b.bindingID)
	return b, nil
}

// BindNegotiated tries preferNDR64's chosen syntax first, falling back
// to the other on bind failure. Callers thread
// config.BindingConfig.PreferNDR64 through here rather than pinning a
// syntax at the call site.
func BindNegotiated(conn *port.Connection, ifaceUUID ndr.GUID, major, minor uint16, preferNDR64 bool) (*Binding, error) {
	first, second := ndr.SyntaxDCE, ndr.SyntaxNDR64
	if preferNDR64 {
		first, second = second, first
	}

	b, err := Bind(conn, ifaceUUID, major, minor, first)
	if err == nil {
		return b, nil
	}
	logger.Debug("rpc: bind failed, falling back", "interface", FormatUUID(ifaceUUID), "syntax", first, "error", err)
	return Bind(conn, ifaceUUID, major, minor, second)
}

// Disconnect tears down the binding's underlying connection and
// transitions to the terminal StateClosed.
func (b *Binding) Disconnect() error {
	b.mu.Lock()
	b.state = StateClosed
	b.mu.Unlock()
	return b.conn.Disconnect()
}
