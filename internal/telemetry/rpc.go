package telemetry

import "go.opentelemetry.io/otel/attribute"

// Attribute keys the CLI commands attach to their command-level spans.
const (
	AttrInterfaceUUID  = "rpc.interface_uuid"
	AttrTransferSyntax = "rpc.transfer_syntax"
)

// InterfaceUUID returns an attribute for an interface UUID under
// inspection or being built into a tower.
func InterfaceUUID(uuid string) attribute.KeyValue {
	return attribute.String(AttrInterfaceUUID, uuid)
}

// TransferSyntax returns an attribute naming a transfer syntax.
func TransferSyntax(name string) attribute.KeyValue {
	return attribute.String(AttrTransferSyntax, name)
}
