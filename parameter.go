package pgwire

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wrennet/pgwire/internal/codec"
	"github.com/wrennet/pgwire/pkg/wire"
)

// ClockTime is a time-of-day with no associated date or zone, the input
// shape for the `time` column type (§4.5).
type ClockTime time.Duration

// LocalTimestamp is a naive (zone-less) date and time, the input shape
// for the `timestamp` column type; unlike time.Time, its wall-clock
// fields are taken at face value, never converted through a zone.
type LocalTimestamp time.Time

// Param is the result of encoding one input value: the OID PostgreSQL
// should interpret the bytes as, the wire format used, and the payload
// itself (nil means SQL NULL).
type Param struct {
	OID     codec.OID
	Format  wire.FormatCode
	Payload []byte
}

// EncodeParam dispatches on v's Go type to produce a (OID, format,
// payload) tuple per the table in §4.5. hint is the caller-supplied OID
// override used only when v's shape doesn't map to a known PostgreSQL
// type ("other with oid hint" / "other without hint").
func EncodeParam(v any, hint codec.OID) (Param, error) {
	if v == nil {
		return Param{Format: wire.BinaryFormat}, nil
	}

	switch val := v.(type) {
	case bool:
		b := byte(0)
		if val {
			b = 1
		}
		return Param{OID: codec.OIDBool, Format: wire.BinaryFormat, Payload: []byte{b}}, nil

	case int:
		return encodeInt(int64(val))
	case int8:
		return encodeInt(int64(val))
	case int16:
		return encodeInt(int64(val))
	case int32:
		return encodeInt(int64(val))
	case int64:
		return encodeInt(val)
	case uint8:
		return encodeInt(int64(val))
	case uint16:
		return encodeInt(int64(val))
	case uint32:
		return encodeInt(int64(val))
	case uint64:
		if val > math.MaxInt64 {
			return encodeTextFallback(strconv.FormatUint(val, 10), codec.OIDUnknown)
		}
		return encodeInt(int64(val))
	case *big.Int:
		return encodeTextFallback(val.String(), codec.OIDUnknown)

	case float32:
		return encodeFloat(float64(val))
	case float64:
		return encodeFloat(val)

	case decimal.Decimal:
		return encodeNumeric(val)
	case codec.Numeric:
		if val.NaN {
			return encodeTextFallback("NaN", codec.OIDNumeric)
		}
		if val.Inf > 0 {
			return encodeTextFallback("Infinity", codec.OIDNumeric)
		}
		if val.Inf < 0 {
			return encodeTextFallback("-Infinity", codec.OIDNumeric)
		}
		return encodeNumeric(val.Decimal)

	case string:
		return Param{OID: codec.OIDText, Format: wire.TextFormat, Payload: []byte(val)}, nil
	case []byte:
		return Param{OID: codec.OIDBytea, Format: wire.BinaryFormat, Payload: val}, nil

	case uuid.UUID:
		b := val[:]
		return Param{OID: codec.OIDUUID, Format: wire.BinaryFormat, Payload: append([]byte(nil), b...)}, nil

	case codec.Date:
		return encodeDate(val)
	case ClockTime:
		return encodeClockTime(val)
	case codec.TimeTz:
		return encodeTimeTz(val)
	case LocalTimestamp:
		return encodeTimestamp(time.Time(val), false)
	case time.Time:
		return encodeTimestamp(val, true)
	case codec.Interval:
		return encodeInterval(val)

	case net.IP:
		return encodeTextFallback(val.String(), codec.OIDInet)
	case *net.IPNet:
		return encodeTextFallback(val.String(), codec.OIDCIDR)

	default:
		if hint != 0 {
			return encodeTextFallback(fmt.Sprintf("%v", v), hint)
		}
		return encodeTextFallback(fmt.Sprintf("%v", v), codec.OIDUnknown)
	}
}

func encodeTextFallback(s string, oid codec.OID) (Param, error) {
	return Param{OID: oid, Format: wire.TextFormat, Payload: []byte(s)}, nil
}

func encodeInt(v int64) (Param, error) {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(int32(v)))
		return Param{OID: codec.OIDInt4, Format: wire.BinaryFormat, Payload: b[:]}, nil
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return Param{OID: codec.OIDInt8, Format: wire.BinaryFormat, Payload: b[:]}, nil
}

func encodeFloat(v float64) (Param, error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return Param{OID: codec.OIDFloat8, Format: wire.BinaryFormat, Payload: b[:]}, nil
}

// encodeNumeric renders d in PostgreSQL's base-10000 numeric binary
// layout (§4.2, S7): the unscaled coefficient's decimal digits are
// zero-padded, left and right, until its integer part and fractional
// part each span a whole number of 4-digit groups, then each group
// becomes one base-10000 digit, most significant first.
func encodeNumeric(d decimal.Decimal) (Param, error) {
	neg := d.Sign() < 0
	coeff := new(big.Int).Abs(d.Coefficient())
	exp := d.Exponent()

	digits := coeff.String()
	if digits == "0" {
		digits = ""
	}
	if exp > 0 {
		digits += zeros(int(exp))
		exp = 0
	}
	dscale := int(-exp) // true decimal-place count, unaffected by grouping padding

	if digits == "" {
		var buf []byte
		buf = appendInt16(buf, 0)
		buf = appendInt16(buf, 0)
		buf = appendUint16(buf, numericPositiveSign)
		buf = appendInt16(buf, int16(dscale))
		return Param{OID: codec.OIDNumeric, Format: wire.BinaryFormat, Payload: buf}, nil
	}

	intLen := len(digits) - dscale // may be <= 0 for values in (-1, 1)

	var leftPad int
	if intLen > 0 {
		leftPad = (4 - intLen%4) % 4
	} else {
		leftPad = -intLen
	}
	digits = zeros(leftPad) + digits
	intLen += leftPad // now a non-negative multiple of 4

	fracLen := len(digits) - intLen
	rightPad := (4 - fracLen%4) % 4
	digits += zeros(rightPad)

	groups := make([]int16, 0, len(digits)/4)
	for i := 0; i < len(digits); i += 4 {
		n, _ := strconv.Atoi(digits[i : i+4])
		groups = append(groups, int16(n))
	}
	weight := int32(intLen/4) - 1

	var buf []byte
	buf = appendInt16(buf, int16(len(groups)))
	buf = appendInt16(buf, int16(weight))
	sign := uint16(numericPositiveSign)
	if neg {
		sign = numericNegativeSign
	}
	buf = appendUint16(buf, sign)
	buf = appendInt16(buf, int16(dscale))
	for _, g := range groups {
		buf = appendInt16(buf, g)
	}
	return Param{OID: codec.OIDNumeric, Format: wire.BinaryFormat, Payload: buf}, nil
}

const (
	numericPositiveSign = 0x0000
	numericNegativeSign = 0x4000
)

func zeros(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

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

func encodeDate(d codec.Date) (Param, error) {
	if d.Infinity > 0 {
		return Param{OID: codec.OIDDate, Format: wire.BinaryFormat, Payload: int32Payload(math.MaxInt32)}, nil
	}
	if d.Infinity < 0 {
		return Param{OID: codec.OIDDate, Format: wire.BinaryFormat, Payload: int32Payload(math.MinInt32)}, nil
	}
	days := int32(d.Time.UTC().Sub(pgEpochUTC).Hours() / 24)
	return Param{OID: codec.OIDDate, Format: wire.BinaryFormat, Payload: int32Payload(days)}, nil
}

var pgEpochUTC = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func encodeClockTime(c ClockTime) (Param, error) {
	usec := int64(time.Duration(c) / time.Microsecond)
	return Param{OID: codec.OIDTime, Format: wire.BinaryFormat, Payload: int64Payload(usec)}, nil
}

func encodeTimeTz(t codec.TimeTz) (Param, error) {
	midnight := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	usec := int64(t.Time.Sub(midnight) / time.Microsecond)
	var buf []byte
	buf = append(buf, int64Payload(usec)...)
	// wire "zone" is seconds WEST of UTC; OffsetSecs is seconds EAST.
	buf = append(buf, int32Payload(-t.OffsetSecs)...)
	return Param{OID: codec.OIDTimeTz, Format: wire.BinaryFormat, Payload: buf}, nil
}

func encodeTimestamp(t time.Time, aware bool) (Param, error) {
	var usec int64
	if aware {
		usec = int64(t.UTC().Sub(pgEpochUTC) / time.Microsecond)
	} else {
		naiveEpoch := time.Date(2000, 1, 1, 0, 0, 0, 0, t.Location())
		usec = int64(t.Sub(naiveEpoch) / time.Microsecond)
	}
	oid := codec.OIDTimestamp
	if aware {
		oid = codec.OIDTimestampTz
	}
	return Param{OID: oid, Format: wire.BinaryFormat, Payload: int64Payload(usec)}, nil
}

func encodeInterval(iv codec.Interval) (Param, error) {
	var buf []byte
	buf = append(buf, int64Payload(iv.Microseconds)...)
	buf = append(buf, int32Payload(iv.Days)...)
	buf = append(buf, int32Payload(iv.Months)...)
	return Param{OID: codec.OIDInterval, Format: wire.BinaryFormat, Payload: buf}, nil
}

func int32Payload(v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

func int64Payload(v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return b[:]
}
