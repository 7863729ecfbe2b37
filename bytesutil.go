package pgwire

import (
	"encoding/binary"
	"fmt"
)

func getInt32Field(b []byte) (int32, []byte, error) {
	if len(b) < 4 {
		return 0, b, fmt.Errorf("pgwire: truncated int32 field")
	}
	return int32(binary.BigEndian.Uint32(b)), b[4:], nil
}

func getInt16Field(b []byte) (int16, []byte, error) {
	if len(b) < 2 {
		return 0, b, fmt.Errorf("pgwire: truncated int16 field")
	}
	return int16(binary.BigEndian.Uint16(b)), b[2:], nil
}
