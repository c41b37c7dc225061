package tower

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/ndrctl/internal/rpc"
	"github.com/spf13/cobra"
)

var decodeHex bool

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode a tower or ept_map reply payload and print its floors",
	Long: `Decode reads a file containing either a single encoded tower or a
full ept_map reply (a length-prefixed sequence of towers), and prints
the floor count and extracted named-pipe endpoint for each tower found.

By default the file is read as raw bytes; pass --hex if it contains a
hex-encoded string instead (the form "ndrctl tower build" prints).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		if decodeHex {
			decoded, err := hex.DecodeString(strings.TrimSpace(string(raw)))
			if err != nil {
				return fmt.Errorf("decoding hex: %w", err)
			}
			raw = decoded
		}

		towers := rpc.SplitTowers(raw)
		if len(towers) == 0 {
			// Not a multi-tower reply; try it as a single tower.
			towers = [][]byte{raw}
		}

		w := cmd.OutOrStdout()
		for i, t := range towers {
			floors := rpc.TowerFloorCount(t)
			endpoint, hasEndpoint := rpc.ExtractNamedPipeEndpoint(t)
			fmt.Fprintf(w, "tower %d: %d floors", i, floors)
			if hasEndpoint {
				fmt.Fprintf(w, ", endpoint=%s", endpoint)
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeHex, "hex", false, "Treat the input file as a hex-encoded string")
}
