// Package xdrcompat wraps github.com/rasky/go-xdr's reflection-based
// RFC 4506 codec for the one field this engine shares with classic
// ONC-RPC wire conventions: the named-pipe endpoint string carried in
// an ept_map lookup tower's fourth floor. NDR and XDR disagree on
// almost everything (byte order, alignment, pointer deferral) but
// agree on the shape of a length-prefixed, zero-padded string, so
// floor 4's right-hand side is encoded and decoded through go-xdr
// rather than duplicating that logic by hand.
package xdrcompat

import (
	"bytes"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// EncodeEndpointString encodes name as an RFC 4506 XDR string: a
// four-byte big-endian length followed by the bytes, zero-padded to a
// multiple of four.
func EncodeEndpointString(name string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, name); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEndpointString decodes an RFC 4506 XDR string previously
// produced by EncodeEndpointString, or embedded as floor 4's
// right-hand side by an endpoint mapper speaking the same convention.
func DecodeEndpointString(data []byte) (string, error) {
	var s string
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &s); err != nil {
		return "", err
	}
	return s, nil
}
