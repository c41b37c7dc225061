// Package inspect implements "ndrctl inspect", which decodes a captured
// local-RPC message body and prints its header fields.
package inspect

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/marmos91/ndrctl/internal/rpc"
	"github.com/marmos91/ndrctl/internal/telemetry"
	"github.com/spf13/cobra"
)

var headerSize int

// Cmd is the "inspect" command.
var Cmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Decode a captured bind/request/response/fault message body",
	Long: `Inspect reads a raw captured message body (as sent over a port
connection) and prints the fields of its header, dispatching on the
8-byte message-type discriminant that leads every bind, request,
response, and fault body.

If the file also contains a leading port-message header, pass
--header-size to skip it before the message body begins.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := telemetry.StartSpan(cmd.Context(), "ndrctl.inspect")
		defer span.End()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			telemetry.RecordError(ctx, err)
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		if len(raw) < headerSize {
			return fmt.Errorf("file shorter than --header-size %d", headerSize)
		}
		body := raw[headerSize:]
		if len(body) < 8 {
			return fmt.Errorf("body too short to contain a message-type discriminant")
		}

		w := cmd.OutOrStdout()
		msgType := binary.LittleEndian.Uint64(body[0:8])
		switch msgType {
		case rpc.MessageTypeBind:
			status, err := rpc.DecodeBindStatus(body)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "type=bind status=%d\n", status)

		case rpc.MessageTypeRequest:
			hdr, offset, err := rpc.DecodeRequestHeader(body)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "type=request call_id=%#x binding_id=%d procnum=%d flags=%#x in_bytes=%d\n",
				hdr.CallID, hdr.BindingID, hdr.Procnum, hdr.Flags, len(body)-offset)

		case rpc.MessageTypeResponse:
			hdr, offset, err := rpc.DecodeResponseHeader(body)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "type=response call_id=%#x flags=%#x out_bytes=%d\n",
				hdr.CallID, hdr.Flags, len(body)-offset)

		case rpc.MessageTypeFault:
			status, ok := rpc.DecodeFault(body)
			if !ok {
				return fmt.Errorf("malformed fault body")
			}
			fmt.Fprintf(w, "type=fault rpc_status=%d\n", status)

		default:
			return fmt.Errorf("unrecognised message type %d", msgType)
		}
		return nil
	},
}

func init() {
	Cmd.Flags().IntVar(&headerSize, "header-size", 0, "Bytes of leading port-message header to skip before the message body")
}
