package rpc

import (
	"testing"

	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
	"github.com/marmos91/ndrctl/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successfulBindReply() []byte {
	return EncodeBindBody(BindBody{BindingStatus: 0})
}

func rejectedBindReply() []byte {
	return EncodeBindBody(BindBody{BindingStatus: 5})
}

func TestBindSuccessTransitionsToBound(t *testing.T) {
	fp := newScriptedPort()
	conn, err := port.Connect(fp, `\RPC Control\widget`, port.DefaultAttributes)
	require.NoError(t, err)
	fp.enqueueForName(`\RPC Control\widget`, successfulBindReply())

	ifaceUUID := ndr.GUID{1, 2, 3, 4}
	b, err := Bind(conn, ifaceUUID, 1, 0, ndr.SyntaxDCE)
	require.NoError(t, err)
	assert.Equal(t, StateBound, b.State())
	assert.Equal(t, ifaceUUID, b.InterfaceUUID())
	assert.Equal(t, ndr.SyntaxDCE, b.Syntax())
	assert.NotZero(t, b.BindingID())
}

func TestBindRejectedTransitionsToFailed(t *testing.T) {
	fp := newScriptedPort()
	conn, err := port.Connect(fp, `\RPC Control\widget`, port.DefaultAttributes)
	require.NoError(t, err)
	fp.enqueueForName(`\RPC Control\widget`, rejectedBindReply())

	_, err = Bind(conn, ndr.GUID{1}, 1, 0, ndr.SyntaxDCE)
	require.Error(t, err)
	code, ok := ndrerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ndrerrors.ErrConnectionRefused, code)
}

func TestBindUnknownSyntaxFailsBeforeSend(t *testing.T) {
	fp := newScriptedPort()
	conn, err := port.Connect(fp, `\RPC Control\widget`, port.DefaultAttributes)
	require.NoError(t, err)

	_, err = Bind(conn, ndr.GUID{1}, 1, 0, ndr.Syntax(99))
	require.Error(t, err)
	code, ok := ndrerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ndrerrors.ErrUnknownTransferSyntax, code)
}

func TestBindNegotiatedFallsBackToDCE(t *testing.T) {
	fp := newScriptedPort()
	conn, err := port.Connect(fp, `\RPC Control\widget`, port.DefaultAttributes)
	require.NoError(t, err)
	// preferNDR64=true: first attempt (NDR64) rejected, second attempt (DCE) succeeds.
	fp.enqueueForName(`\RPC Control\widget`, rejectedBindReply())
	fp.enqueueForName(`\RPC Control\widget`, successfulBindReply())

	b, err := BindNegotiated(conn, ndr.GUID{1}, 1, 0, true)
	require.NoError(t, err)
	assert.Equal(t, ndr.SyntaxDCE, b.Syntax())
}

func TestBindNegotiatedDefaultPinsDCE(t *testing.T) {
	fp := newScriptedPort()
	conn, err := port.Connect(fp, `\RPC Control\widget`, port.DefaultAttributes)
	require.NoError(t, err)
	// preferNDR64=false: first (and only) attempt is DCE.
	fp.enqueueForName(`\RPC Control\widget`, successfulBindReply())

	b, err := BindNegotiated(conn, ndr.GUID{1}, 1, 0, false)
	require.NoError(t, err)
	assert.Equal(t, ndr.SyntaxDCE, b.Syntax())
}

func TestDisconnectClosesBinding(t *testing.T) {
	fp := newScriptedPort()
	conn, err := port.Connect(fp, `\RPC Control\widget`, port.DefaultAttributes)
	require.NoError(t, err)
	fp.enqueueForName(`\RPC Control\widget`, successfulBindReply())

	b, err := Bind(conn, ndr.GUID{1}, 1, 0, ndr.SyntaxDCE)
	require.NoError(t, err)

	require.NoError(t, b.Disconnect())
	assert.Equal(t, StateClosed, b.State())
}
