package rpc

import (
	"github.com/marmos91/ndrctl/internal/port"
)

// scriptedPort is an in-memory port.MessagePort whose reply to each
// SendWaitReceive call is taken from a per-port-name queue. Tests push
// replies with enqueueForName before the exchange that is meant to
// consume them, regardless of whether the corresponding Connect has
// happened yet.
type scriptedPort struct {
	nextHandle port.Handle
	names      map[port.Handle]string
	queues     map[string][][]byte
	connectErr map[string]error

	// viewByName, when true for a name, makes every reply popped from
	// that name's queue report continuation-required and CaptureView
	// returns view.
	viewByName map[string]bool
	view       []byte
}

func newScriptedPort() *scriptedPort {
	return &scriptedPort{
		nextHandle: 1,
		names:      map[port.Handle]string{},
		queues:     map[string][][]byte{},
		connectErr: map[string]error{},
		viewByName: map[string]bool{},
	}
}

func (p *scriptedPort) Connect(name string, attrs port.Attributes) (port.Handle, error) {
	if err, ok := p.connectErr[name]; ok {
		return port.HandleInvalid, err
	}
	h := p.nextHandle
	p.nextHandle++
	p.names[h] = name
	return h, nil
}

func (p *scriptedPort) Disconnect(h port.Handle) error {
	delete(p.names, h)
	return nil
}

// SendWaitReceive pops the next queued body for h's port name and wraps
// it in a realistic port message header before returning it, so
// Connection.SendReceive's header parsing runs over every scripted
// exchange exactly as it would over a real reply. An empty queue
// returns a nil, unframed reply -- deliberately too short for a header,
// reproducing the "no tower answered" failure mode without a queued
// script entry.
func (p *scriptedPort) SendWaitReceive(h port.Handle, flags uint32, in []byte) ([]byte, error) {
	if flags == port.FlagReleaseMessage {
		return nil, nil
	}
	name := p.names[h]
	q := p.queues[name]
	if len(q) == 0 {
		return nil, nil
	}
	reply := q[0]
	p.queues[name] = q[1:]

	var typ uint16
	if p.viewByName[name] {
		typ = uint16(port.ReplyContinuationRequired)
	}
	framed := append(port.EncodeHeader(port.Header{
		DataLength:     uint16(len(reply)),
		TotalLength:    uint16(port.HeaderSize + len(reply)),
		Type:           typ,
		DataInfoOffset: port.HeaderSize,
	}), reply...)
	return framed, nil
}

func (p *scriptedPort) CaptureView(h port.Handle) ([]byte, bool) {
	name := p.names[h]
	if p.viewByName[name] {
		return p.view, true
	}
	return nil, false
}

// enqueueForName pushes reply onto name's queue, consumed by the next
// exchange over any connection opened against that name.
func (p *scriptedPort) enqueueForName(name string, reply []byte) {
	p.queues[name] = append(p.queues[name], reply)
}

// enqueueViewForName marks every subsequent reply on name's queue as
// carrying view, returned verbatim from CaptureView.
func (p *scriptedPort) enqueueViewForName(name string, view []byte) {
	p.viewByName[name] = true
	p.view = view
}
