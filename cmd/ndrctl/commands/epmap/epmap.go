// Package epmap implements "ndrctl epmap", which surfaces the
// well-known identifiers the endpoint-mapper side call is built from.
package epmap

import (
	"fmt"

	"github.com/marmos91/ndrctl/internal/rpc"
	"github.com/spf13/cobra"
)

// Cmd is the "epmap" command group.
var Cmd = &cobra.Command{
	Use:   "epmap",
	Short: "Inspect the well-known endpoint-mapper identifiers",
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the well-known epmapper port name, interface, and transfer-syntax UUIDs",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "port name:        %s\n", rpc.EpmapperPortName)
		fmt.Fprintf(w, "interface UUID:   %s\n", rpc.FormatUUID(rpc.EpmapperInterfaceUUID))
		fmt.Fprintf(w, "interface ver:    %d.%d\n", rpc.EpmapperVersionMajor, rpc.EpmapperVersionMinor)
		fmt.Fprintf(w, "proc ept_map:     %d\n", rpc.ProcEptMap)
		fmt.Fprintf(w, "DCE syntax UUID:  %s (%d.%d)\n", rpc.FormatUUID(rpc.DCETransferSyntaxUUID), rpc.DCETransferSyntaxMajor, rpc.DCETransferSyntaxMinor)
		fmt.Fprintf(w, "NDR64 syntax UUID: %s (%d.%d)\n", rpc.FormatUUID(rpc.NDR64TransferSyntaxUUID), rpc.NDR64TransferSyntaxMajor, rpc.NDR64TransferSyntaxMinor)
	},
}

func init() {
	Cmd.AddCommand(infoCmd)
}
