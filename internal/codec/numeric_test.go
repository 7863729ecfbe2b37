package codec

import (
	"encoding/binary"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func appendInt16(dst []byte, v int16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	return append(dst, b[:]...)
}

func appendUint16(dst []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(dst, b[:]...)
}

// S7: numeric binary payload for 12345.67 is ndigits=3, weight=1,
// sign=0x0000, dscale=2, digits [1, 2345, 6700].
func TestNumericBinaryS7(t *testing.T) {
	var payload []byte
	payload = appendInt16(payload, 3)
	payload = appendInt16(payload, 1)
	payload = appendUint16(payload, numericPositive)
	payload = appendInt16(payload, 2)
	payload = appendInt16(payload, 1)
	payload = appendInt16(payload, 2345)
	payload = appendInt16(payload, 6700)

	got, err := decodeNumericBinary(payload, DecodeContext{})
	require.NoError(t, err)
	n := got.(Numeric)
	require.False(t, n.NaN)
	require.Equal(t, 0, n.Inf)
	require.True(t, n.Decimal.Equal(mustDecimal(t, "12345.67")), "got %s", n.Decimal)
}

func TestNumericBinaryNaN(t *testing.T) {
	var payload []byte
	payload = appendInt16(payload, 0)
	payload = appendInt16(payload, 0)
	payload = appendUint16(payload, numericNaN)
	payload = appendInt16(payload, 0)

	got, err := decodeNumericBinary(payload, DecodeContext{})
	require.NoError(t, err)
	require.True(t, got.(Numeric).NaN)
}

func TestNumericBinaryInfinity(t *testing.T) {
	var payload []byte
	payload = appendInt16(payload, 0)
	payload = appendInt16(payload, 0)
	payload = appendUint16(payload, numericPosInf)
	payload = appendInt16(payload, 0)

	got, err := decodeNumericBinary(payload, DecodeContext{})
	require.NoError(t, err)
	require.Equal(t, 1, got.(Numeric).Inf)
}

func TestNumericTextSpecials(t *testing.T) {
	got, err := decodeNumericText([]byte("NaN"), DecodeContext{})
	require.NoError(t, err)
	require.True(t, got.(Numeric).NaN)

	got, err = decodeNumericText([]byte("-Infinity"), DecodeContext{})
	require.NoError(t, err)
	require.Equal(t, -1, got.(Numeric).Inf)

	got, err = decodeNumericText([]byte("3.140"), DecodeContext{})
	require.NoError(t, err)
	require.True(t, got.(Numeric).Decimal.Equal(mustDecimal(t, "3.140")))
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
