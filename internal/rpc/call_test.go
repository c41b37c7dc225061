package rpc

import (
	"encoding/binary"
	"testing"

	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
	"github.com/marmos91/ndrctl/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeResponse(flags uint32, callID uint32, payload []byte) []byte {
	hdr := make([]byte, responseHeaderSize)
	binary.LittleEndian.PutUint64(hdr[0:8], MessageTypeResponse)
	binary.LittleEndian.PutUint32(hdr[8:12], flags)
	binary.LittleEndian.PutUint32(hdr[12:16], callID)
	return append(hdr, payload...)
}

func encodeFaultFrame(status uint32) []byte {
	data := make([]byte, faultHeaderSize)
	binary.LittleEndian.PutUint64(data[0:8], MessageTypeFault)
	binary.LittleEndian.PutUint32(data[8:12], status)
	return data
}

func boundBinding(t *testing.T, fp *scriptedPort, name string) *Binding {
	t.Helper()
	conn, err := port.Connect(fp, name, port.DefaultAttributes)
	require.NoError(t, err)
	fp.enqueueForName(name, successfulBindReply())
	b, err := Bind(conn, ndr.GUID{1}, 1, 0, ndr.SyntaxDCE)
	require.NoError(t, err)
	return b
}

func TestCallReturnsInlineOutBuffer(t *testing.T) {
	fp := newScriptedPort()
	b := boundBinding(t, fp, `\RPC Control\widget`)
	fp.enqueueForName(`\RPC Control\widget`, encodeResponse(0, sentinelCallID, []byte{0xDE, 0xAD}))

	out, err := b.Call(7, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, out)
	assert.Equal(t, StateBound, b.State())
}

func TestCallReturnsViewOutBuffer(t *testing.T) {
	fp := newScriptedPort()
	b := boundBinding(t, fp, `\RPC Control\widget`)
	fp.enqueueViewForName(`\RPC Control\widget`, []byte{0xCA, 0xFE})
	fp.enqueueForName(`\RPC Control\widget`, encodeResponse(ResponseFlagViewPresent, sentinelCallID, nil))

	out, err := b.Call(7, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCA, 0xFE}, out)
}

func TestCallFaultReturnsFaultErrorAndRebinds(t *testing.T) {
	fp := newScriptedPort()
	b := boundBinding(t, fp, `\RPC Control\widget`)
	fp.enqueueForName(`\RPC Control\widget`, encodeFaultFrame(0x6D1))

	_, err := b.Call(7, nil)
	require.Error(t, err)
	code, ok := ndrerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ndrerrors.ErrFaultReceived, code)
	assert.Equal(t, StateBound, b.State(), "a call-level fault must not tear down the binding")
}

func TestCallMismatchedCallIDFails(t *testing.T) {
	fp := newScriptedPort()
	b := boundBinding(t, fp, `\RPC Control\widget`)
	fp.enqueueForName(`\RPC Control\widget`, encodeResponse(0, 0x1111, nil))

	_, err := b.Call(7, nil)
	require.Error(t, err)
	code, ok := ndrerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ndrerrors.ErrInvalidMessage, code)
}

func TestCallOnUnboundBindingRejected(t *testing.T) {
	fp := newScriptedPort()
	conn, err := port.Connect(fp, `\RPC Control\widget`, port.DefaultAttributes)
	require.NoError(t, err)
	b := &Binding{conn: conn, state: StateInit}

	_, err = b.Call(1, nil)
	require.Error(t, err)
	code, ok := ndrerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ndrerrors.ErrInvalidMessage, code)
}
