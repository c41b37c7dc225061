package marshal

import (
	"testing"

	"github.com/marmos91/ndrctl/internal/ndr"
	"github.com/marmos91/ndrctl/internal/ndrerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStickyStatus(t *testing.T) {
	t.Run("LatchesFirstFailure", func(t *testing.T) {
		b := New(ndr.SyntaxDCE)
		big := ndr.NewSizeT(uint64(1) << 32)
		b.Marshal(big)
		require.Error(t, b.Status())
		firstErr := b.Status()

		before := append([]byte(nil), b.Bytes()...)
		b.Marshal(ndr.NewPrimitive(uint32(1)))
		assert.Equal(t, firstErr, b.Status(), "status must not change after the first failure")
		assert.Equal(t, before, b.Bytes(), "bytes must not change after the first failure")
	})

	t.Run("SuccessfulChainAccumulates", func(t *testing.T) {
		b := New(ndr.SyntaxDCE)
		b.Marshal(ndr.NewPrimitive(uint32(1))).Marshal(ndr.NewPrimitive(uint16(2)))
		require.NoError(t, b.Status())
		assert.Len(t, b.Bytes(), 6)
	})
}

func TestUnmarshalRoundTrip(t *testing.T) {
	out := New(ndr.SyntaxNDR64)
	out.Marshal(ndr.NewSizeT(7))
	require.NoError(t, out.Status())

	in := NewFromBytes(out.Bytes(), ndr.SyntaxNDR64)
	var sz ndr.SizeT
	in.Unmarshal(&sz)
	require.NoError(t, in.Status())
	assert.Equal(t, uint64(7), sz.Value)
}

func TestUnknownSyntaxLatches(t *testing.T) {
	b := New(ndr.Syntax(0xFF))
	b.Marshal(ndr.NewPrimitive(uint32(1)))
	require.Error(t, b.Status())
	code, ok := ndrerrors.CodeOf(b.Status())
	require.True(t, ok)
	assert.Equal(t, ndrerrors.ErrUnknownTransferSyntax, code)
}
