package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRangeTextInt4(t *testing.T) {
	r := NewRegistry()
	got, err := decodeRangeText(r, OIDInt4, []byte("[1,10)"), DecodeContext{})
	require.NoError(t, err)
	rng := got.(Range)
	require.False(t, rng.Empty)
	require.True(t, rng.LowerInc)
	require.False(t, rng.UpperInc)
	require.Equal(t, int64(1), rng.Lower)
	require.Equal(t, int64(10), rng.Upper)
}

func TestRangeTextEmpty(t *testing.T) {
	r := NewRegistry()
	got, err := decodeRangeText(r, OIDInt4, []byte("empty"), DecodeContext{})
	require.NoError(t, err)
	require.True(t, got.(Range).Empty)
}

func TestRangeTextUnboundedUpper(t *testing.T) {
	r := NewRegistry()
	got, err := decodeRangeText(r, OIDInt4, []byte("[5,)"), DecodeContext{})
	require.NoError(t, err)
	rng := got.(Range)
	require.True(t, rng.UpperInf)
	require.Equal(t, int64(5), rng.Lower)
}

func TestMultirangeTextInt4(t *testing.T) {
	r := NewRegistry()
	got, err := decodeMultirangeText(r, OIDInt4, []byte("{[1,2),[5,6)}"), DecodeContext{})
	require.NoError(t, err)
	mr := got.(Multirange)
	require.Len(t, mr, 2)
	require.Equal(t, int64(1), mr[0].Lower)
	require.Equal(t, int64(5), mr[1].Lower)
}

func TestMultirangeTextEmpty(t *testing.T) {
	r := NewRegistry()
	got, err := decodeMultirangeText(r, OIDInt4, []byte("{}"), DecodeContext{})
	require.NoError(t, err)
	require.Len(t, got.(Multirange), 0)
}
