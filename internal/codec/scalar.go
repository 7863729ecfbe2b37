package codec

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

func registerScalars(r *Registry) {
	r.Register(&Codec{OID: OIDBool, Name: "bool", Text: decodeBoolText, Binary: decodeBoolBinary})
	r.Register(&Codec{OID: OIDInt2, Name: "int2", Text: decodeIntText(16), Binary: decodeInt2Binary})
	r.Register(&Codec{OID: OIDInt4, Name: "int4", Text: decodeIntText(32), Binary: decodeInt4Binary})
	r.Register(&Codec{OID: OIDInt8, Name: "int8", Text: decodeIntText(64), Binary: decodeInt8Binary})
	r.Register(&Codec{OID: OIDFloat4, Name: "float4", Text: decodeFloatText(32), Binary: decodeFloat4Binary})
	r.Register(&Codec{OID: OIDFloat8, Name: "float8", Text: decodeFloatText(64), Binary: decodeFloat8Binary})
	r.Register(&Codec{OID: OIDText, Name: "text", Text: decodeTextText, Binary: decodeTextText})
	r.Register(&Codec{OID: OIDVarchar, Name: "varchar", Text: decodeTextText, Binary: decodeTextText})
	r.Register(&Codec{OID: OIDBPChar, Name: "bpchar", Text: decodeTextText, Binary: decodeTextText})
	r.Register(&Codec{OID: OIDUnknown, Name: "unknown", Text: decodeTextText, Binary: decodeTextText})
	r.Register(&Codec{OID: OIDJSON, Name: "json", Text: decodeTextText, Binary: decodeTextText})
	r.Register(&Codec{OID: OIDBytea, Name: "bytea", Text: decodeByteaText, Binary: decodeByteaBinary})
	r.Register(&Codec{OID: OIDUUID, Name: "uuid", Text: decodeUUIDText, Binary: decodeUUIDBinary})
}

func decodeBoolText(src []byte, _ DecodeContext) (any, error) {
	if len(src) != 1 {
		return nil, fmt.Errorf("pgwire: invalid bool text %q", src)
	}
	switch src[0] {
	case 't':
		return true, nil
	case 'f':
		return false, nil
	default:
		return nil, fmt.Errorf("pgwire: invalid bool text %q", src)
	}
}

func decodeBoolBinary(src []byte, _ DecodeContext) (any, error) {
	if len(src) != 1 {
		return nil, fmt.Errorf("pgwire: invalid bool binary length %d", len(src))
	}
	return src[0] != 0, nil
}

func decodeIntText(bits int) TextDecoder {
	return func(src []byte, _ DecodeContext) (any, error) {
		v, err := strconv.ParseInt(string(src), 10, bits)
		if err != nil {
			return nil, fmt.Errorf("pgwire: invalid int%d text %q: %w", bits, src, err)
		}
		return v, nil
	}
}

func decodeInt2Binary(src []byte, _ DecodeContext) (any, error) {
	v, _, err := getInt16(src)
	if err != nil {
		return nil, err
	}
	return int64(v), nil
}

func decodeInt4Binary(src []byte, _ DecodeContext) (any, error) {
	v, _, err := getInt32(src)
	if err != nil {
		return nil, err
	}
	return int64(v), nil
}

func decodeInt8Binary(src []byte, _ DecodeContext) (any, error) {
	v, _, err := getInt64(src)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeFloatText(bits int) TextDecoder {
	return func(src []byte, _ DecodeContext) (any, error) {
		v, err := strconv.ParseFloat(string(src), bits)
		if err != nil {
			return nil, fmt.Errorf("pgwire: invalid float%d text %q: %w", bits, src, err)
		}
		return v, nil
	}
}

func decodeFloat4Binary(src []byte, _ DecodeContext) (any, error) {
	v, _, err := getFloat32(src)
	if err != nil {
		return nil, err
	}
	return float64(v), nil
}

func decodeFloat8Binary(src []byte, _ DecodeContext) (any, error) {
	v, _, err := getFloat64(src)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeTextText(src []byte, _ DecodeContext) (any, error) {
	return string(src), nil
}

func decodeByteaText(src []byte, _ DecodeContext) (any, error) {
	if len(src) >= 2 && src[0] == '\\' && src[1] == 'x' {
		return hexDecode(src[2:])
	}
	// legacy escape format: octal \nnn and doubled backslashes.
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		if src[i] != '\\' {
			out = append(out, src[i])
			continue
		}
		if i+1 < len(src) && src[i+1] == '\\' {
			out = append(out, '\\')
			i++
			continue
		}
		if i+3 < len(src) {
			n := (int(src[i+1]-'0') << 6) | (int(src[i+2]-'0') << 3) | int(src[i+3]-'0')
			out = append(out, byte(n))
			i += 3
			continue
		}
		return nil, fmt.Errorf("pgwire: invalid bytea escape at byte %d", i)
	}
	return out, nil
}

func hexDecode(src []byte) ([]byte, error) {
	if len(src)%2 != 0 {
		return nil, fmt.Errorf("pgwire: odd-length bytea hex payload")
	}
	out := make([]byte, len(src)/2)
	for i := range out {
		hi, err := hexNibble(src[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(src[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(b byte) (byte, error) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', nil
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, nil
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("pgwire: invalid hex digit %q", b)
	}
}

func decodeByteaBinary(src []byte, _ DecodeContext) (any, error) {
	return append([]byte(nil), src...), nil
}

func decodeUUIDText(src []byte, _ DecodeContext) (any, error) {
	id, err := uuid.ParseBytes(src)
	if err != nil {
		return nil, fmt.Errorf("pgwire: invalid uuid text %q: %w", src, err)
	}
	return id, nil
}

func decodeUUIDBinary(src []byte, _ DecodeContext) (any, error) {
	id, err := uuid.FromBytes(src)
	if err != nil {
		return nil, fmt.Errorf("pgwire: invalid uuid binary payload: %w", err)
	}
	return id, nil
}
