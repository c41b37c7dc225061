package tower

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buildIface, buildMajor, buildMinor, buildSyntax, buildOutFile = "", 1, 0, "dce", ""
	decodeHex = false

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	err := Cmd.Execute()
	return out.String(), err
}

func TestBuildRequiresIface(t *testing.T) {
	_, err := runCmd(t, "build")
	require.Error(t, err)
}

func TestBuildPrintsHexTower(t *testing.T) {
	out, err := runCmd(t, "build", "--iface", "e1af8308-5d1f-11c9-91a4-08002b14a0fa")
	require.NoError(t, err)

	raw, err := hex.DecodeString(out[:len(out)-1])
	require.NoError(t, err)
	assert.Greater(t, len(raw), 2)
}

func TestBuildWritesFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "tower.bin")
	_, err := runCmd(t, "build", "--iface", "e1af8308-5d1f-11c9-91a4-08002b14a0fa", "--out", outFile)
	require.NoError(t, err)
}

func TestBuildGeneratesRandomInterfaceUUID(t *testing.T) {
	out, err := runCmd(t, "build", "--iface", "random")
	require.NoError(t, err)

	raw, err := hex.DecodeString(out[:len(out)-1])
	require.NoError(t, err)
	assert.Greater(t, len(raw), 2)
}

func TestBuildRejectsBadSyntax(t *testing.T) {
	_, err := runCmd(t, "build", "--iface", "e1af8308-5d1f-11c9-91a4-08002b14a0fa", "--syntax", "bogus")
	require.Error(t, err)
}

func TestDecodeRoundTripsBuiltTower(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "tower.bin")
	_, err := runCmd(t, "build", "--iface", "e1af8308-5d1f-11c9-91a4-08002b14a0fa", "--out", outFile)
	require.NoError(t, err)

	out, err := runCmd(t, "decode", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "4 floors")
}
