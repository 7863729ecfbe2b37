package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInetTextIPv4(t *testing.T) {
	got, err := decodeInetText([]byte("192.168.1.0/24"), DecodeContext{})
	require.NoError(t, err)
	n := got.(Inet)
	require.Equal(t, "192.168.1.0/24", n.String())
}

func TestInetTextBareAddress(t *testing.T) {
	got, err := decodeInetText([]byte("10.0.0.1"), DecodeContext{})
	require.NoError(t, err)
	n := got.(Inet)
	require.Equal(t, 32, n.Bits)
}

func TestInetBinaryIPv4(t *testing.T) {
	payload := []byte{pgsqlAFInet, 24, 0, 4, 10, 0, 0, 1}
	got, err := decodeInetBinary(payload, DecodeContext{})
	require.NoError(t, err)
	n := got.(Inet)
	require.Equal(t, "10.0.0.1", n.IP.String())
	require.Equal(t, 24, n.Bits)
}
