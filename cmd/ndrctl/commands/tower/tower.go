// Package tower implements "ndrctl tower", which builds and decodes
// endpoint-mapper lookup towers without requiring a live epmapper
// connection.
package tower

import "github.com/spf13/cobra"

// Cmd is the "tower" command group.
var Cmd = &cobra.Command{
	Use:   "tower",
	Short: "Build and decode endpoint-mapper lookup towers",
}

func init() {
	Cmd.AddCommand(buildCmd)
	Cmd.AddCommand(decodeCmd)
}
