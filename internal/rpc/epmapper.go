package rpc

import (
	"bytes"
	"encoding/binary"

	"github.com/marmos91/ndrctl/internal/compat/xdrcompat"
	"github.com/marmos91/ndrctl/internal/config"
	"github.com/marmos91/ndrctl/internal/logger"
	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
	"github.com/marmos91/ndrctl/internal/port"
)

// Well-known endpoint-mapper identifiers.
const (
	EpmapperPortName = `\RPC Control\epmapper`
)

// EpmapperInterfaceUUID, with EpmapperVersionMajor/EpmapperVersionMinor
// below, identifies the endpoint-mapper interface itself.
var (
	EpmapperInterfaceUUID = mustGUID("e1af8308-5d1f-11c9-91a4-08002b14a0fa")
)

const (
	EpmapperVersionMajor uint16 = 3
	EpmapperVersionMinor uint16 = 0

	// ProcEptMap is the ept_map procedure ordinal.
	ProcEptMap uint32 = 3
)

// Transfer-syntax UUIDs, used as the left-hand side of floor 2 in an
// endpoint-mapper lookup tower.
var (
	DCETransferSyntaxUUID   = mustGUID("8a885d04-1ceb-11c9-9fe8-08002b104860")
	NDR64TransferSyntaxUUID = mustGUID("71710533-beba-4937-8319-b5dbef9ccc36")
)

const (
	DCETransferSyntaxMajor uint16 = 2
	DCETransferSyntaxMinor uint16 = 0

	NDR64TransferSyntaxMajor uint16 = 1
	NDR64TransferSyntaxMinor uint16 = 0
)

// Protocol identifier tags used as floor left-hand-side prefixes.
const (
	ProtoUUIDDerived uint8 = 0x0D
	ProtoLocalRPC    uint8 = 0x0C
	ProtoNamedPipe   uint8 = 0x10
)

// floor is one entry of a tower: a count-prefixed left-hand protocol
// identifier and a count-prefixed right-hand address or version datum.
type floor struct {
	LHS []byte
	RHS []byte
}

func (f floor) encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(f.LHS)))
	buf.Write(f.LHS)
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(f.RHS)))
	buf.Write(f.RHS)
	return buf.Bytes()
}

func decodeFloor(data []byte) (f floor, rest []byte, err error) {
	if len(data) < 2 {
		return floor{}, nil, ndrerrors.New(ndrerrors.ErrInvalidMessage, "truncated floor lhs length")
	}
	lhsLen := int(binary.LittleEndian.Uint16(data[0:2]))
	data = data[2:]
	if len(data) < lhsLen+2 {
		return floor{}, nil, ndrerrors.New(ndrerrors.ErrInvalidMessage, "truncated floor lhs body")
	}
	f.LHS = data[:lhsLen]
	data = data[lhsLen:]
	rhsLen := int(binary.LittleEndian.Uint16(data[0:2]))
	data = data[2:]
	if len(data) < rhsLen {
		return floor{}, nil, ndrerrors.New(ndrerrors.ErrInvalidMessage, "truncated floor rhs body")
	}
	f.RHS = data[:rhsLen]
	return f, data[rhsLen:], nil
}

// BuildLookupTower builds the four-floor ept_map request tower for
// ifaceUUID/version over the given transfer syntax.
func BuildLookupTower(ifaceUUID ndr.GUID, ifaceMajor, ifaceMinor uint16, syntaxUUID ndr.GUID, syntaxMajor, syntaxMinor uint16) []byte {
	floor1LHS := append([]byte{ProtoUUIDDerived}, ifaceUUID[:]...)
	floor1LHS = binary.LittleEndian.AppendUint16(floor1LHS, ifaceMajor)
	floor1RHS := make([]byte, 2)
	binary.LittleEndian.PutUint16(floor1RHS, ifaceMinor)
	floor1 := floor{LHS: floor1LHS, RHS: floor1RHS}

	floor2LHS := append([]byte{ProtoUUIDDerived}, syntaxUUID[:]...)
	floor2LHS = binary.LittleEndian.AppendUint16(floor2LHS, syntaxMajor)
	floor2RHS := make([]byte, 2)
	binary.LittleEndian.PutUint16(floor2RHS, syntaxMinor)
	floor2 := floor{LHS: floor2LHS, RHS: floor2RHS}

	floor3 := floor{LHS: []byte{ProtoLocalRPC}, RHS: []byte{0, 0}}

	emptyEndpoint, err := xdrcompat.EncodeEndpointString("")
	if err != nil {
		// EncodeEndpointString("") cannot fail; panic would only mean
		// go-xdr itself is broken.
		panic(err)
	}
	floor4 := floor{LHS: []byte{ProtoNamedPipe}, RHS: emptyEndpoint} // endpoint left for the mapper to fill in

	tower := new(bytes.Buffer)
	_ = binary.Write(tower, binary.LittleEndian, uint16(4)) // floor count
	tower.Write(floor1.encode())
	tower.Write(floor2.encode())
	tower.Write(floor3.encode())
	tower.Write(floor4.encode())
	return tower.Bytes()
}

// ExtractNamedPipeEndpoint reads floor count, walks the floors, and
// returns the named-pipe floor's endpoint string (ASCII) if present.
func ExtractNamedPipeEndpoint(towerBytes []byte) (string, bool) {
	if len(towerBytes) < 2 {
		return "", false
	}
	count := int(binary.LittleEndian.Uint16(towerBytes[0:2]))
	rest := towerBytes[2:]
	for i := 0; i < count; i++ {
		f, next, err := decodeFloor(rest)
		if err != nil {
			return "", false
		}
		rest = next
		if len(f.LHS) == 1 && f.LHS[0] == ProtoNamedPipe && len(f.RHS) > 0 {
			endpoint, err := xdrcompat.DecodeEndpointString(f.RHS)
			if err != nil || endpoint == "" {
				continue
			}
			return endpoint, true
		}
	}
	return "", false
}

// LookupAndBind performs a side call to the well-known endpoint-mapper
// port -- named by cfg.Epmapper.PortName, falling back to
// EpmapperPortName when cfg is nil -- resolving the real port name for
// ifaceUUID/version and binding to it under the syntax preference
// cfg.Binding.PreferNDR64 names (BindNegotiated's fallback rule
// applies). The first successful bind among the returned towers wins;
// if none bind, the lookup fails with ConnectionRefused.
func LookupAndBind(backend port.MessagePort, cfg *config.Config, ifaceUUID ndr.GUID, ifaceMajor, ifaceMinor uint16) (*Binding, error) {
	epmapperPortName := EpmapperPortName
	maxPayload := port.DefaultMaxMessagePayload
	preferNDR64 := false
	if cfg != nil {
		if cfg.Epmapper.PortName != "" {
			epmapperPortName = cfg.Epmapper.PortName
		}
		if cfg.Transport.MaxMessagePayload != 0 {
			maxPayload = int(cfg.Transport.MaxMessagePayload.Int64())
		}
		preferNDR64 = cfg.Binding.PreferNDR64
	}
	attrs := port.AttributesFor(maxPayload)

	epmapConn, err := port.Connect(backend, epmapperPortName, attrs)
	if err != nil {
		return nil, err
	}
	epmapBinding, err := Bind(epmapConn, EpmapperInterfaceUUID, EpmapperVersionMajor, EpmapperVersionMinor, ndr.SyntaxDCE)
	if err != nil {
		return nil, err
	}
	defer func() { _ = epmapBinding.Disconnect() }()

	reqTower := BuildLookupTower(ifaceUUID, ifaceMajor, ifaceMinor, DCETransferSyntaxUUID, DCETransferSyntaxMajor, DCETransferSyntaxMinor)

	outBuffer, err := epmapBinding.Call(ProcEptMap, reqTower)
	if err != nil {
		return nil, err
	}

	towers := SplitTowers(outBuffer)
	if len(towers) == 0 {
		observeEpmapLookup(false)
		return nil, ndrerrors.New(ndrerrors.ErrConnectionRefused, "ept_map returned no towers for %s", FormatUUID(ifaceUUID))
	}

	for _, t := range towers {
		endpoint, ok := ExtractNamedPipeEndpoint(t)
		if !ok {
			continue
		}
		portName := `\RPC Control\` + endpoint
		conn, err := port.Connect(backend, portName, attrs)
		if err != nil {
			logger.Debug("rpc: epmapper endpoint failed to connect", "endpoint", portName, "error", err)
			continue
		}
		binding, err := BindNegotiated(conn, ifaceUUID, ifaceMajor, ifaceMinor, preferNDR64)
		if err != nil {
			logger.Debug("rpc: epmapper endpoint failed to bind", "endpoint", portName, "error", err)
			_ = conn.Disconnect()
			continue
		}
		observeEpmapLookup(true)
		return binding, nil
	}

	observeEpmapLookup(false)
	return nil, ndrerrors.New(ndrerrors.ErrConnectionRefused, "no usable endpoint for %s", FormatUUID(ifaceUUID))
}

// TowerFloorCount reads the leading floor count of a single encoded
// tower, or 0 if towerBytes is too short to contain one.
func TowerFloorCount(towerBytes []byte) int {
	if len(towerBytes) < 2 {
		return 0
	}
	return int(binary.LittleEndian.Uint16(towerBytes[0:2]))
}

// SplitTowers splits an ept_map reply payload into individual
// length-prefixed tower byte strings. The reply is an NDR conformant
// array of (length, tower-bytes) pairs; each tower is self-describing
// via its own leading floor count, so a length-prefix walk is enough to
// recover the boundaries without decoding the full ept_map response
// envelope.
func SplitTowers(data []byte) [][]byte {
	var towers [][]byte
	for len(data) >= 4 {
		n := int(binary.LittleEndian.Uint32(data[0:4]))
		data = data[4:]
		if n <= 0 || n > len(data) {
			break
		}
		towers = append(towers, data[:n])
		data = data[n:]
	}
	return towers
}

// mustGUID parses a canonical UUID string into wire-order GUID bytes.
// Panics on malformed input; only used for the fixed well-known
// identifiers above.
func mustGUID(s string) ndr.GUID {
	g, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return g
}
