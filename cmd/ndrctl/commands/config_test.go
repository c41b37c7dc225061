package commands

import (
	"bytes"
	"testing"

	"github.com/marmos91/ndrctl/cmd/ndrctl/cmdutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCmdPrintsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmdutil.Flags.Output = "table"
	cmdutil.Flags.ConfigPath = ""

	var out bytes.Buffer
	configCmd.SetOut(&out)
	configCmd.SetArgs(nil)
	require.NoError(t, configCmd.Execute())

	assert.Contains(t, out.String(), "logging.level")
	assert.Contains(t, out.String(), "info")
}

func TestConfigCmdPrintsJSON(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmdutil.Flags.Output = "json"
	cmdutil.Flags.ConfigPath = ""
	defer func() { cmdutil.Flags.Output = "table" }()

	var out bytes.Buffer
	configCmd.SetOut(&out)
	configCmd.SetArgs(nil)
	require.NoError(t, configCmd.Execute())

	assert.Contains(t, out.String(), `"level": "info"`)
}
