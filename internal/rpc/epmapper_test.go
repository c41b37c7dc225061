package rpc

import (
	"encoding/binary"
	"testing"

	"github.com/marmos91/ndrctl/internal/compat/xdrcompat"
	"github.com/marmos91/ndrctl/internal/config"
	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLookupTowerHasFourFloors(t *testing.T) {
	iface := ndr.GUID{1, 2, 3, 4}
	tower := BuildLookupTower(iface, 1, 0, DCETransferSyntaxUUID, DCETransferSyntaxMajor, DCETransferSyntaxMinor)
	require.True(t, len(tower) > 2)
	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(tower[0:2]))

	endpoint, ok := ExtractNamedPipeEndpoint(tower)
	assert.False(t, ok, "a request tower's named-pipe floor carries no endpoint yet")
	assert.Empty(t, endpoint)
}

func buildReplyTowerWithEndpoint(endpoint string) []byte {
	encodedEndpoint, err := xdrcompat.EncodeEndpointString(endpoint)
	if err != nil {
		panic(err)
	}

	f1 := floor{LHS: []byte{ProtoUUIDDerived}, RHS: []byte{0, 0}}
	f2 := floor{LHS: []byte{ProtoUUIDDerived}, RHS: []byte{0, 0}}
	f3 := floor{LHS: []byte{ProtoLocalRPC}, RHS: []byte{0, 0}}
	f4 := floor{LHS: []byte{ProtoNamedPipe}, RHS: encodedEndpoint}

	tower := make([]byte, 0, 64)
	tower = binary.LittleEndian.AppendUint16(tower, 4)
	tower = append(tower, f1.encode()...)
	tower = append(tower, f2.encode()...)
	tower = append(tower, f3.encode()...)
	tower = append(tower, f4.encode()...)
	return tower
}

func TestExtractNamedPipeEndpoint(t *testing.T) {
	tower := buildReplyTowerWithEndpoint("widgetsvc")
	endpoint, ok := ExtractNamedPipeEndpoint(tower)
	require.True(t, ok)
	assert.Equal(t, "widgetsvc", endpoint)
}

func TestSplitTowersRoundTrip(t *testing.T) {
	t1 := buildReplyTowerWithEndpoint("one")
	t2 := buildReplyTowerWithEndpoint("two")

	payload := make([]byte, 0)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(t1)))
	payload = append(payload, t1...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(t2)))
	payload = append(payload, t2...)

	towers := SplitTowers(payload)
	require.Len(t, towers, 2)
	e1, ok := ExtractNamedPipeEndpoint(towers[0])
	require.True(t, ok)
	assert.Equal(t, "one", e1)
	e2, ok := ExtractNamedPipeEndpoint(towers[1])
	require.True(t, ok)
	assert.Equal(t, "two", e2)
}

func TestLookupAndBindEndToEnd(t *testing.T) {
	fp := newScriptedPort()

	replyTower := buildReplyTowerWithEndpoint("targetsvc")
	towersPayload := make([]byte, 0)
	towersPayload = binary.LittleEndian.AppendUint32(towersPayload, uint32(len(replyTower)))
	towersPayload = append(towersPayload, replyTower...)

	targetName := `\RPC Control\targetsvc`

	fp.enqueueForName(EpmapperPortName, successfulBindReply())
	fp.enqueueForName(EpmapperPortName, encodeResponse(0, sentinelCallID, towersPayload))
	fp.enqueueForName(targetName, successfulBindReply())

	cfg := config.DefaultConfig()
	cfg.Binding.PreferNDR64 = true

	ifaceUUID := ndr.GUID{5, 6, 7, 8}
	b, err := LookupAndBind(fp, cfg, ifaceUUID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, ifaceUUID, b.InterfaceUUID())
	assert.Equal(t, StateBound, b.State())
	assert.Equal(t, ndr.SyntaxNDR64, b.Syntax(), "BindNegotiated prefers NDR64 when cfg.Binding.PreferNDR64 is set")
}

func TestLookupAndBindFailsWhenNoTowerBinds(t *testing.T) {
	fp := newScriptedPort()

	replyTower := buildReplyTowerWithEndpoint("deadend")
	towersPayload := make([]byte, 0)
	towersPayload = binary.LittleEndian.AppendUint32(towersPayload, uint32(len(replyTower)))
	towersPayload = append(towersPayload, replyTower...)

	fp.enqueueForName(EpmapperPortName, successfulBindReply())
	fp.enqueueForName(EpmapperPortName, encodeResponse(0, sentinelCallID, towersPayload))
	// No bind reply queued for \RPC Control\deadend under either syntax:
	// both the DCE and NDR64 attempts will read an empty reply, too short
	// for a port message header, and fail, so the endpoint is skipped.

	_, err := LookupAndBind(fp, nil, ndr.GUID{9}, 1, 0)
	require.Error(t, err)
}
