// Package commands implements the CLI commands for ndrctl.
package commands

import (
	"context"
	"os"

	"github.com/marmos91/ndrctl/cmd/ndrctl/cmdutil"
	epmapcmd "github.com/marmos91/ndrctl/cmd/ndrctl/commands/epmap"
	inspectcmd "github.com/marmos91/ndrctl/cmd/ndrctl/commands/inspect"
	towercmd "github.com/marmos91/ndrctl/cmd/ndrctl/commands/tower"
	"github.com/marmos91/ndrctl/internal/telemetry"
	"github.com/spf13/cobra"
)

// traceShutdown flushes the trace exporter on process exit. Set by
// PersistentPreRunE when --trace-endpoint is passed; a no-op otherwise.
var traceShutdown = func(context.Context) error { return nil }

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ndrctl",
	Short: "ndrctl - DCE/NDR marshalling and local-RPC inspection tool",
	Long: `ndrctl inspects and builds the wire artifacts of the DCE/NDR
marshalling engine: captured bind/request/response/fault frames and
endpoint-mapper lookup towers.

Use "ndrctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmdutil.Flags.ConfigPath, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")

		traceEndpoint, _ := cmd.Flags().GetString("trace-endpoint")
		if traceEndpoint == "" {
			return nil
		}
		cfg := telemetry.DefaultConfig()
		cfg.Enabled = true
		cfg.Endpoint = traceEndpoint
		shutdown, err := telemetry.Init(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		traceShutdown = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return traceShutdown(context.Background())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/ndrctl/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("trace-endpoint", "", "OTLP gRPC endpoint to export command spans to (tracing disabled if empty)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(towercmd.Cmd)
	rootCmd.AddCommand(inspectcmd.Cmd)
	rootCmd.AddCommand(epmapcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
