package inspect

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/ndrctl/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	headerSize = 0

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	err := Cmd.Execute()
	return out.String(), err
}

func writeFrame(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func encodeResponseFrame(callID uint32) []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[0:8], rpc.MessageTypeResponse)
	binary.LittleEndian.PutUint32(buf[8:12], rpc.ResponseFlagViewPresent)
	binary.LittleEndian.PutUint32(buf[12:16], callID)
	return append(buf, 0xAA, 0xBB)
}

func encodeFaultFrame(rpcStatus uint32) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint64(buf[0:8], rpc.MessageTypeFault)
	binary.LittleEndian.PutUint32(buf[8:12], rpcStatus)
	return buf
}

func TestInspectRequestFrame(t *testing.T) {
	body := rpc.EncodeRequestBody(rpc.RequestBody{CallID: 0xDEADC0DE, BindingID: 2, Procnum: 7})
	path := writeFrame(t, body)

	out, err := runCmd(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "type=request")
	assert.Contains(t, out, "procnum=7")
}

func TestInspectResponseFrame(t *testing.T) {
	path := writeFrame(t, encodeResponseFrame(0xDEADC0DE))

	out, err := runCmd(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "type=response")
	assert.Contains(t, out, "out_bytes=2")
}

func TestInspectFaultFrame(t *testing.T) {
	path := writeFrame(t, encodeFaultFrame(1753))

	out, err := runCmd(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "type=fault")
	assert.Contains(t, out, "rpc_status=1753")
}

func TestInspectRejectsTruncatedFile(t *testing.T) {
	path := writeFrame(t, []byte{1, 2, 3})

	_, err := runCmd(t, path)
	require.Error(t, err)
}

func TestInspectHeaderSizeSkipsLeadingBytes(t *testing.T) {
	body := rpc.EncodeRequestBody(rpc.RequestBody{CallID: 1, Procnum: 9})
	framed := append(make([]byte, 8), body...)
	path := writeFrame(t, framed)

	out, err := runCmd(t, path, "--header-size", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "procnum=9")
}
