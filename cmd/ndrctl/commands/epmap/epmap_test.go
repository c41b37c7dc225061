package epmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoPrintsWellKnownIdentifiers(t *testing.T) {
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetArgs([]string{"info"})
	require.NoError(t, Cmd.Execute())

	assert.Contains(t, out.String(), `\RPC Control\epmapper`)
	assert.Contains(t, out.String(), "e1af8308-5d1f-11c9-91a4-08002b14a0fa")
}
