package rpc

import (
	"encoding/binary"
	"testing"

	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBindBodyRoundTrip(t *testing.T) {
	body := BindBody{
		BindingStatus:            0,
		InterfaceUUID:            ndr.GUID{1, 2, 3, 4},
		InterfaceMajor:           1,
		InterfaceMinor:           0,
		TransferSyntaxFlags:      TransferSyntaxNDR64,
		BindingIDSlots:           [3]uint16{0, 0, 7},
		SupportsMultipleSyntaxes: 1,
	}
	encoded := EncodeBindBody(body)

	// message type first, little-endian uint64.
	assert.Equal(t, uint64(MessageTypeBind), binary.LittleEndian.Uint64(encoded[0:8]))

	status, err := DecodeBindStatus(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), status)

	// Literal byte-exact check of the full NDR64 bind frame: message
	// type, zero-padded UUID+major/minor, TransferSyntaxFlags=02 00 00
	// 00, the three binding-id slots with only the NDR64 slot non-zero,
	// SupportsMultipleSyntaxes=01 00 00 00, and all remaining fields
	// zero.
	var expected []byte
	expected = append(expected, 1, 0, 0, 0, 0, 0, 0, 0) // MessageTypeBind
	expected = append(expected, 0, 0, 0, 0)             // BindingStatus
	expected = append(expected, 1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0) // InterfaceUUID, zero-padded
	expected = append(expected, 1, 0) // InterfaceMajor
	expected = append(expected, 0, 0) // InterfaceMinor
	expected = append(expected, 0, 0, 0, 0) // major/minor padding to 32 bits
	expected = append(expected, 2, 0, 0, 0) // TransferSyntaxFlags = TransferSyntaxNDR64
	expected = append(expected, 0, 0) // BindingIDSlots[0] (unused)
	expected = append(expected, 0, 0) // BindingIDSlots[1] (DCE), zero
	expected = append(expected, 7, 0) // BindingIDSlots[2] (NDR64), the only non-zero slot
	expected = append(expected, 1, 0, 0, 0) // SupportsMultipleSyntaxes
	expected = append(expected, 0, 0, 0, 0) // SupportsCausalFlowID
	expected = append(expected, 0, 0, 0, 0, 0, 0, 0, 0) // CausalFlowID
	expected = append(expected, 0, 0, 0, 0) // AssociationData
	assert.Equal(t, expected, encoded)
}

func TestDecodeBindReplyStatusRejectsWrongMessageType(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint64(data[0:8], MessageTypeRequest)
	_, err := DecodeBindStatus(data)
	require.Error(t, err)
}

func TestEncodeRequestBodyOmitsUUIDUnlessFlagged(t *testing.T) {
	withoutUUID := EncodeRequestBody(RequestBody{CallID: sentinelCallID, Procnum: 5})
	withUUID := EncodeRequestBody(RequestBody{CallID: sentinelCallID, Procnum: 5, Flags: RequestFlagUUIDSpecified, UUID: ndr.GUID{9}})
	assert.Equal(t, len(withoutUUID)+16, len(withUUID))
}

func TestDecodeResponseHeaderAndPayloadOffset(t *testing.T) {
	hdr := make([]byte, responseHeaderSize)
	binary.LittleEndian.PutUint64(hdr[0:8], MessageTypeResponse)
	binary.LittleEndian.PutUint32(hdr[8:12], ResponseFlagViewPresent)
	binary.LittleEndian.PutUint32(hdr[12:16], sentinelCallID)
	payload := append(hdr, 0xAA, 0xBB)

	decoded, offset, err := DecodeResponseHeader(payload)
	require.NoError(t, err)
	assert.Equal(t, sentinelCallID, decoded.CallID)
	assert.Equal(t, ResponseFlagViewPresent, decoded.Flags)
	assert.Equal(t, []byte{0xAA, 0xBB}, payload[offset:])
}

func TestDecodeResponseHeaderRejectsTruncated(t *testing.T) {
	_, _, err := DecodeResponseHeader([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeFault(t *testing.T) {
	data := make([]byte, faultHeaderSize)
	binary.LittleEndian.PutUint64(data[0:8], MessageTypeFault)
	binary.LittleEndian.PutUint32(data[8:12], 0x1234)

	status, ok := DecodeFault(data)
	require.True(t, ok)
	assert.Equal(t, uint32(0x1234), status)

	_, ok = DecodeFault([]byte{1, 2, 3, 4})
	assert.False(t, ok)

	notFault := make([]byte, faultHeaderSize)
	binary.LittleEndian.PutUint64(notFault[0:8], MessageTypeResponse)
	_, ok = DecodeFault(notFault)
	assert.False(t, ok)
}

func TestFormatUUID(t *testing.T) {
	g := mustGUID("e1af8308-5d1f-11c9-91a4-08002b14a0fa")
	assert.Equal(t, "e1af8308-5d1f-11c9-91a4-08002b14a0fa", FormatUUID(g))
}

func TestParseUUIDRejectsMalformedInput(t *testing.T) {
	_, err := ParseUUID("not-a-uuid")
	require.Error(t, err)

	_, err = ParseUUID("zzzzzzzz-5d1f-11c9-91a4-08002b14a0fa")
	require.Error(t, err)
}

func TestDecodeRequestHeaderWithAndWithoutUUID(t *testing.T) {
	withoutUUID := EncodeRequestBody(RequestBody{CallID: sentinelCallID, BindingID: 3, Procnum: 5})
	hdr, offset, err := DecodeRequestHeader(withoutUUID)
	require.NoError(t, err)
	assert.Equal(t, sentinelCallID, hdr.CallID)
	assert.Equal(t, uint32(3), hdr.BindingID)
	assert.Equal(t, uint32(5), hdr.Procnum)
	assert.Equal(t, len(withoutUUID), offset)

	uuid := ndr.GUID{9, 8, 7}
	withUUID := EncodeRequestBody(RequestBody{CallID: sentinelCallID, Flags: RequestFlagUUIDSpecified, Procnum: 5, UUID: uuid})
	hdr2, offset2, err := DecodeRequestHeader(withUUID)
	require.NoError(t, err)
	assert.Equal(t, uuid, hdr2.UUID)
	assert.Equal(t, len(withUUID), offset2)
}

func TestDecodeRequestHeaderRejectsTruncated(t *testing.T) {
	_, _, err := DecodeRequestHeader([]byte{1, 2, 3})
	require.Error(t, err)
}
