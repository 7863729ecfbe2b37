package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func int32Bytes(v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

// S5: date binary INT32_MAX decodes to "infinity"; 2921939 (the day
// offset from the 2000-01-01 epoch to 9999-12-31) decodes to 9999-12-31;
// -1 decodes to 1999-12-31.
func TestDateBinaryS5(t *testing.T) {
	got, err := decodeDateBinary(int32Bytes(pgInt32Infinity), DecodeContext{})
	require.NoError(t, err)
	require.Equal(t, "infinity", got.(Date).String())

	got, err = decodeDateBinary(int32Bytes(2921939), DecodeContext{})
	require.NoError(t, err)
	require.Equal(t, "9999-12-31", got.(Date).String())

	got, err = decodeDateBinary(int32Bytes(-1), DecodeContext{})
	require.NoError(t, err)
	require.Equal(t, "1999-12-31", got.(Date).String())
}

func TestDateBinaryNegInfinity(t *testing.T) {
	got, err := decodeDateBinary(int32Bytes(pgInt32NegInfinity), DecodeContext{})
	require.NoError(t, err)
	require.Equal(t, "-infinity", got.(Date).String())
}

func TestDateTextISO(t *testing.T) {
	got, err := decodeDateText([]byte("2024-03-05"), DecodeContext{ISODates: true})
	require.NoError(t, err)
	require.Equal(t, "2024-03-05", got.(Date).String())
}

func TestTimestampBinaryOneDayPastEpoch(t *testing.T) {
	usec := int64(24 * 60 * 60 * 1_000_000) // exactly one day past epoch
	var payload [8]byte
	binary.BigEndian.PutUint64(payload[:], uint64(usec))
	got, err := decodeTimestampBinary(false)(payload[:], DecodeContext{})
	require.NoError(t, err)
	ts := got.(Timestamp)
	require.Equal(t, 0, ts.Infinity)
	require.Equal(t, 2000, ts.Time.Year())
	require.Equal(t, 2, int(ts.Time.Month()))
	require.Equal(t, 2, ts.Time.Day())
}
