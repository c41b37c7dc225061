package rpc

import (
	"time"

	"github.com/marmos91/ndrctl/internal/logger"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
)

// Call invokes procnum on the binding with a marshalled in-buffer and
// returns the marshalled out-buffer for the caller to unmarshal.
//
// Steps: build a request with the fixed sentinel call-id, concatenate
// inBuffer, send-receive, map a fault reply to an error, otherwise
// verify the response header's message type and call-id, then extract
// the out-buffer from either the inline payload or the view payload.
func (b *Binding) Call(procnum uint32, inBuffer []byte) ([]byte, error) {
	b.mu.Lock()
	if b.state != StateBound {
		state := b.state
		b.mu.Unlock()
		return nil, ndrerrors.New(ndrerrors.ErrInvalidMessage, "call on binding in state %d, expected Bound", state)
	}
	b.state = StateInCall
	b.mu.Unlock()

	start := time.Now()

	reqBody := EncodeRequestBody(RequestBody{
		Flags:     0,
		CallID:    sentinelCallID,
		BindingID: uint32(b.bindingID),
		Procnum:   procnum,
	})

	frame := make([]byte, 0, len(reqBody)+len(inBuffer))
	frame = append(frame, reqBody...)
	frame = append(frame, inBuffer...)

	result, err := b.conn.SendReceive(frame)
	if err != nil {
		b.backToBound()
		observeCall(procnum, false, start)
		return nil, err
	}

	if status, ok := DecodeFault(result.Out); ok {
		b.backToBound()
		observeCall(procnum, false, start)
		observeFault(status)
		logger.Debug("rpc: call faulted", "procnum", procnum, "rpc_status", status)
		return nil, ndrerrors.NewFault(status)
	}

	hdr, payloadOffset, err := DecodeResponseHeader(result.Out)
	if err != nil {
		b.backToBound()
		observeCall(procnum, false, start)
		return nil, err
	}
	if hdr.CallID != sentinelCallID {
		b.backToBound()
		observeCall(procnum, false, start)
		return nil, ndrerrors.New(ndrerrors.ErrInvalidMessage, "response call-id %#x does not match request %#x", hdr.CallID, sentinelCallID)
	}

	var outBuffer []byte
	if hdr.Flags&ResponseFlagViewPresent != 0 {
		outBuffer = result.View
	} else {
		outBuffer = result.Out[payloadOffset:]
	}

	b.backToBound()
	observeCall(procnum, true, start)
	return outBuffer, nil
}

// backToBound returns the binding to StateBound after a call completes,
// whether by response or by fault -- a call-level failure never tears
// down the binding.
func (b *Binding) backToBound() {
	b.mu.Lock()
	if b.state == StateInCall {
		b.state = StateBound
	}
	b.mu.Unlock()
}
