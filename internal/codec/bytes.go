package codec

import (
	"encoding/binary"
	"math"
)

// truncatedError is returned when a binary payload ends before all
// expected fields have been read.
type truncatedError struct{ need, have int }

func (e *truncatedError) Error() string {
	return "pgwire: truncated value payload"
}

func need(b []byte, n int) error {
	if len(b) < n {
		return &truncatedError{need: n, have: len(b)}
	}
	return nil
}

// getInt16 reads a big-endian int16 from the front of b.
func getInt16(b []byte) (int16, []byte, error) {
	if err := need(b, 2); err != nil {
		return 0, b, err
	}
	return int16(binary.BigEndian.Uint16(b)), b[2:], nil
}

func getUint16(b []byte) (uint16, []byte, error) {
	if err := need(b, 2); err != nil {
		return 0, b, err
	}
	return binary.BigEndian.Uint16(b), b[2:], nil
}

func getInt32(b []byte) (int32, []byte, error) {
	if err := need(b, 4); err != nil {
		return 0, b, err
	}
	return int32(binary.BigEndian.Uint32(b)), b[4:], nil
}

func getUint32(b []byte) (uint32, []byte, error) {
	if err := need(b, 4); err != nil {
		return 0, b, err
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

func getInt64(b []byte) (int64, []byte, error) {
	if err := need(b, 8); err != nil {
		return 0, b, err
	}
	return int64(binary.BigEndian.Uint64(b)), b[8:], nil
}

func getUint64(b []byte) (uint64, []byte, error) {
	if err := need(b, 8); err != nil {
		return 0, b, err
	}
	return binary.BigEndian.Uint64(b), b[8:], nil
}

func getFloat32(b []byte) (float32, []byte, error) {
	v, rest, err := getUint32(b)
	if err != nil {
		return 0, b, err
	}
	return math.Float32frombits(v), rest, nil
}

func getFloat64(b []byte) (float64, []byte, error) {
	v, rest, err := getUint64(b)
	if err != nil {
		return 0, b, err
	}
	return math.Float64frombits(v), rest, nil
}

// putInt16/32/64 append a big-endian encoding of v to dst, matching the
// parameter encoder's inline-buffer style (§4.5).
func putInt16(dst []byte, v int16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	return append(dst, b[:]...)
}

func putInt32(dst []byte, v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return append(dst, b[:]...)
}

func putInt64(dst []byte, v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return append(dst, b[:]...)
}

func putFloat64(dst []byte, v float64) []byte {
	return putInt64(dst, int64(math.Float64bits(v)))
}
