package commands

import (
	"strconv"

	"github.com/marmos91/ndrctl/cmd/ndrctl/cmdutil"
	"github.com/marmos91/ndrctl/internal/cli/timeutil"
	"github.com/marmos91/ndrctl/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective engine configuration",
	Long: `Config loads configuration from the config file, with NDRCTL_*
environment variables overriding the keys the file sets, fills unset
values with defaults, and prints the resolved values. Without a config
file it prints the defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmdutil.LoadConfig()
		if err != nil {
			return err
		}
		return cmdutil.PrintResource(cmd.OutOrStdout(), cfg, configTable{cfg})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// configTable renders a *config.Config as a flat key/value table.
type configTable struct {
	cfg *config.Config
}

// Headers implements output.TableRenderer.
func (t configTable) Headers() []string {
	return []string{"KEY", "VALUE"}
}

// Rows implements output.TableRenderer.
func (t configTable) Rows() [][]string {
	c := t.cfg
	return [][]string{
		{"logging.level", c.Logging.Level},
		{"logging.format", c.Logging.Format},
		{"transport.call_timeout", timeutil.FormatUptime(c.Transport.CallTimeout.String())},
		{"transport.max_message_payload", c.Transport.MaxMessagePayload.String()},
		{"binding.prefer_ndr64", strconv.FormatBool(c.Binding.PreferNDR64)},
		{"epmapper.port_name", c.Epmapper.PortName},
		{"epmapper.lookup_timeout", timeutil.FormatUptime(c.Epmapper.LookupTimeout.String())},
		{"metrics.enabled", strconv.FormatBool(c.Metrics.Enabled)},
		{"metrics.address", c.Metrics.Address},
	}
}
