package xdrcompat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEndpointStringRoundTrips(t *testing.T) {
	cases := []string{"", "lrpc-1234", "a-fairly-long-endpoint-name-needing-padding"}

	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			encoded, err := EncodeEndpointString(name)
			require.NoError(t, err)
			assert.Equal(t, 0, len(encoded)%4)

			decoded, err := DecodeEndpointString(encoded)
			require.NoError(t, err)
			assert.Equal(t, name, decoded)
		})
	}
}
