package tower

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/ndrctl/internal/logger"
	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/marmos91/ndrctl/internal/rpc"
	"github.com/marmos91/ndrctl/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	buildIface   string
	buildMajor   uint16
	buildMinor   uint16
	buildSyntax  string
	buildOutFile string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a four-floor ept_map lookup tower for an interface",
	Long: `Build encodes the interface-UUID, transfer-syntax, local-RPC, and
named-pipe floors of an ept_map lookup tower, the same request
LookupAndBind sends to the well-known epmapper port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := telemetry.StartSpan(cmd.Context(), "ndrctl.tower.build")
		defer span.End()

		var ifaceUUID ndr.GUID
		if strings.EqualFold(buildIface, "random") {
			ifaceUUID = rpc.NewInterfaceUUID()
			logger.Debug("tower build: generated random interface UUID", "interface", rpc.FormatUUID(ifaceUUID))
		} else {
			var err error
			ifaceUUID, err = rpc.ParseUUID(buildIface)
			if err != nil {
				telemetry.RecordError(ctx, err)
				return fmt.Errorf("invalid --iface: %w", err)
			}
		}
		telemetry.SetAttributes(ctx, telemetry.InterfaceUUID(rpc.FormatUUID(ifaceUUID)))

		var synUUID = rpc.DCETransferSyntaxUUID
		synMajor, synMinor := rpc.DCETransferSyntaxMajor, rpc.DCETransferSyntaxMinor
		switch strings.ToLower(buildSyntax) {
		case "dce", "":
		case "ndr64":
			synUUID, synMajor, synMinor = rpc.NDR64TransferSyntaxUUID, rpc.NDR64TransferSyntaxMajor, rpc.NDR64TransferSyntaxMinor
		default:
			err := fmt.Errorf("invalid --syntax %q (valid: dce, ndr64)", buildSyntax)
			telemetry.RecordError(ctx, err)
			return err
		}
		telemetry.SetAttributes(ctx, telemetry.TransferSyntax(buildSyntax))

		towerBytes := rpc.BuildLookupTower(ifaceUUID, buildMajor, buildMinor, synUUID, synMajor, synMinor)

		if buildOutFile != "" {
			return os.WriteFile(buildOutFile, towerBytes, 0o644)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(towerBytes))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildIface, "iface", "", `Interface UUID, or "random" to generate one (required)`)
	buildCmd.Flags().Uint16Var(&buildMajor, "major", 1, "Interface major version")
	buildCmd.Flags().Uint16Var(&buildMinor, "minor", 0, "Interface minor version")
	buildCmd.Flags().StringVar(&buildSyntax, "syntax", "dce", "Transfer syntax for floor 2 (dce|ndr64)")
	buildCmd.Flags().StringVar(&buildOutFile, "out", "", "Write raw tower bytes to this file instead of printing hex")
	_ = buildCmd.MarkFlagRequired("iface")
}
