package codec

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// numeric sign codes, per the wire format (src/backend/utils/adt/numeric.c).
const (
	numericPositive  = 0x0000
	numericNegative  = 0x4000
	numericNaN       = 0xC000
	numericPosInf    = 0xD000
	numericNegInf    = 0xF000
	numericDigitBase = 10000
)

// Numeric is the decode result for the `numeric` type. shopspring/decimal
// has no representation for NaN or the infinities PostgreSQL 14+ added to
// numeric, so those three states are carried alongside the decimal value
// rather than forced into it.
type Numeric struct {
	Decimal decimal.Decimal
	NaN     bool
	Inf     int // 0 = finite, +1 = Infinity, -1 = -Infinity
}

func (n Numeric) String() string {
	switch {
	case n.NaN:
		return "NaN"
	case n.Inf > 0:
		return "Infinity"
	case n.Inf < 0:
		return "-Infinity"
	default:
		return n.Decimal.String()
	}
}

func registerNumeric(r *Registry) {
	r.Register(&Codec{OID: OIDNumeric, Name: "numeric", Text: decodeNumericText, Binary: decodeNumericBinary})
}

func decodeNumericText(src []byte, _ DecodeContext) (any, error) {
	s := string(src)
	switch s {
	case "NaN":
		return Numeric{NaN: true}, nil
	case "Infinity":
		return Numeric{Inf: 1}, nil
	case "-Infinity":
		return Numeric{Inf: -1}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("pgwire: invalid numeric text %q: %w", src, err)
	}
	return Numeric{Decimal: d}, nil
}

// decodeNumericBinary parses PostgreSQL's base-10000 numeric wire format:
// ndigits int16, weight int16, sign int16, dscale int16, then ndigits
// big-endian int16 digits each in [0, 10000).
func decodeNumericBinary(src []byte, _ DecodeContext) (any, error) {
	ndigits, rest, err := getInt16(src)
	if err != nil {
		return nil, err
	}
	weight, rest, err := getInt16(rest)
	if err != nil {
		return nil, err
	}
	sign, rest, err := getUint16(rest)
	if err != nil {
		return nil, err
	}
	dscale, rest, err := getInt16(rest)
	if err != nil {
		return nil, err
	}

	switch sign {
	case numericNaN:
		return Numeric{NaN: true}, nil
	case numericPosInf:
		return Numeric{Inf: 1}, nil
	case numericNegInf:
		return Numeric{Inf: -1}, nil
	case numericPositive, numericNegative:
		// fall through to digit assembly below
	default:
		return nil, fmt.Errorf("pgwire: invalid numeric sign code 0x%04x", sign)
	}

	if ndigits < 0 {
		return nil, fmt.Errorf("pgwire: negative numeric ndigits %d", ndigits)
	}

	// Assemble the base-10000 digits into one big.Int, most significant
	// digit first, then scale by the power of ten implied by weight: digit
	// i contributes digit[i] * 10000^(weight-i), so treating the digit
	// sequence as a single base-10000 integer places its units digit at
	// 10000^(weight-(ndigits-1)).
	magnitude := new(big.Int)
	base := big.NewInt(numericDigitBase)
	for i := int16(0); i < ndigits; i++ {
		d, r, err := getInt16(rest)
		if err != nil {
			return nil, err
		}
		if d < 0 || d >= numericDigitBase {
			return nil, fmt.Errorf("pgwire: numeric digit %d out of range", d)
		}
		magnitude.Mul(magnitude, base)
		magnitude.Add(magnitude, big.NewInt(int64(d)))
		rest = r
	}
	if sign == numericNegative {
		magnitude.Neg(magnitude)
	}

	exp := int32(4) * (int32(weight) - int32(ndigits) + 1)
	d := decimal.NewFromBigInt(magnitude, exp)
	if dscale >= 0 {
		d = d.Truncate(int32(dscale))
	}
	return Numeric{Decimal: d}, nil
}
