package codec

import (
	"fmt"
	"strings"
)

// range flags, per src/include/utils/rangetypes.h.
const (
	rangeEmpty  = 0x01
	rangeLBInc  = 0x02
	rangeUBInc  = 0x04
	rangeLBInf  = 0x08
	rangeUBInf  = 0x10
	rangeLBNull = 0x20
	rangeUBNull = 0x40
)

// Range is the decode result for every range OID. Lower/Upper are nil when
// the corresponding bound is infinite (LowerInf/UpperInf) or the range is
// Empty, in which case both bound fields are meaningless.
type Range struct {
	Lower, Upper         any
	LowerInc, UpperInc   bool
	LowerInf, UpperInf   bool
	Empty                bool
}

func (r Range) String() string {
	if r.Empty {
		return "empty"
	}
	var b strings.Builder
	if r.LowerInc {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if !r.LowerInf {
		fmt.Fprintf(&b, "%v", r.Lower)
	}
	b.WriteByte(',')
	if !r.UpperInf {
		fmt.Fprintf(&b, "%v", r.Upper)
	}
	if r.UpperInc {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

// Multirange is the decode result for every multirange OID: an ordered,
// non-overlapping list of Ranges.
type Multirange []Range

func registerRanges(r *Registry) {
	ranges := []struct{ rng, elem OID }{
		{OIDInt4Range, OIDInt4},
		{OIDInt8Range, OIDInt8},
		{OIDNumRange, OIDNumeric},
		{OIDTsRange, OIDTimestamp},
		{OIDTstzRange, OIDTimestampTz},
		{OIDDateRange, OIDDate},
	}
	for _, p := range ranges {
		elem := p.elem
		r.Register(&Codec{
			OID:  p.rng,
			Name: "range",
			Text: func(src []byte, ctx DecodeContext) (any, error) {
				return decodeRangeText(r, elem, src, ctx)
			},
			Binary: func(src []byte, ctx DecodeContext) (any, error) {
				return decodeRangeBinary(r, elem, src, ctx)
			},
		})
	}

	multi := []struct{ multi, elem OID }{
		{OIDInt4MultiRange, OIDInt4},
		{OIDInt8MultiRange, OIDInt8},
		{OIDNumMultiRange, OIDNumeric},
		{OIDTsMultiRange, OIDTimestamp},
		{OIDTstzMultiRange, OIDTimestampTz},
		{OIDDateMultiRange, OIDDate},
	}
	for _, p := range multi {
		elem := p.elem
		r.Register(&Codec{
			OID:  p.multi,
			Name: "multirange",
			Text: func(src []byte, ctx DecodeContext) (any, error) {
				return decodeMultirangeText(r, elem, src, ctx)
			},
			Binary: func(src []byte, ctx DecodeContext) (any, error) {
				return decodeMultirangeBinary(r, elem, src, ctx)
			},
		})
	}
}

func decodeRangeBinary(r *Registry, elem OID, src []byte, ctx DecodeContext) (any, error) {
	if len(src) < 1 {
		return nil, fmt.Errorf("pgwire: truncated range payload")
	}
	flags := src[0]
	rest := src[1:]
	rng := Range{
		Empty:    flags&rangeEmpty != 0,
		LowerInc: flags&rangeLBInc != 0,
		UpperInc: flags&rangeUBInc != 0,
		LowerInf: flags&rangeLBInf != 0,
		UpperInf: flags&rangeUBInf != 0,
	}
	if rng.Empty {
		return rng, nil
	}
	if !rng.LowerInf && flags&rangeLBNull == 0 {
		v, remaining, err := readRangeBound(r, elem, rest, ctx)
		if err != nil {
			return nil, fmt.Errorf("pgwire: range lower bound: %w", err)
		}
		rng.Lower = v
		rest = remaining
	}
	if !rng.UpperInf && flags&rangeUBNull == 0 {
		v, _, err := readRangeBound(r, elem, rest, ctx)
		if err != nil {
			return nil, fmt.Errorf("pgwire: range upper bound: %w", err)
		}
		rng.Upper = v
	}
	return rng, nil
}

func readRangeBound(r *Registry, elem OID, src []byte, ctx DecodeContext) (any, []byte, error) {
	length, rest, err := getInt32(src)
	if err != nil {
		return nil, src, err
	}
	if err := need(rest, int(length)); err != nil {
		return nil, src, err
	}
	v, err := r.Decode(elem, true, rest[:length], ctx)
	if err != nil {
		return nil, src, err
	}
	return v, rest[length:], nil
}

func decodeMultirangeBinary(r *Registry, elem OID, src []byte, ctx DecodeContext) (any, error) {
	count, rest, err := getInt32(src)
	if err != nil {
		return nil, err
	}
	out := make(Multirange, 0, count)
	for i := int32(0); i < count; i++ {
		length, r2, err := getInt32(rest)
		if err != nil {
			return nil, err
		}
		if err := need(r2, int(length)); err != nil {
			return nil, err
		}
		v, err := decodeRangeBinary(r, elem, r2[:length], ctx)
		if err != nil {
			return nil, fmt.Errorf("pgwire: multirange element %d: %w", i, err)
		}
		out = append(out, v.(Range))
		rest = r2[length:]
	}
	return out, nil
}

// decodeRangeText parses PostgreSQL's bracket notation, e.g. "[1,10)",
// "(,)" (both bounds infinite), or the literal "empty".
func decodeRangeText(r *Registry, elem OID, src []byte, ctx DecodeContext) (any, error) {
	s := string(src)
	if strings.EqualFold(s, "empty") {
		return Range{Empty: true}, nil
	}
	if len(s) < 3 {
		return nil, fmt.Errorf("pgwire: invalid range text %q", src)
	}
	rng := Range{}
	switch s[0] {
	case '[':
		rng.LowerInc = true
	case '(':
		rng.LowerInc = false
	default:
		return nil, fmt.Errorf("pgwire: range text must start with '[' or '(': %q", src)
	}
	switch s[len(s)-1] {
	case ']':
		rng.UpperInc = true
	case ')':
		rng.UpperInc = false
	default:
		return nil, fmt.Errorf("pgwire: range text must end with ']' or ')': %q", src)
	}
	body := s[1 : len(s)-1]
	lowerStr, upperStr, err := splitRangeBody(body)
	if err != nil {
		return nil, fmt.Errorf("pgwire: invalid range text %q: %w", src, err)
	}
	if lowerStr == "" {
		rng.LowerInf = true
	} else {
		v, err := r.Decode(elem, false, []byte(unquoteRangeBound(lowerStr)), ctx)
		if err != nil {
			return nil, fmt.Errorf("pgwire: range lower bound: %w", err)
		}
		rng.Lower = v
	}
	if upperStr == "" {
		rng.UpperInf = true
	} else {
		v, err := r.Decode(elem, false, []byte(unquoteRangeBound(upperStr)), ctx)
		if err != nil {
			return nil, fmt.Errorf("pgwire: range upper bound: %w", err)
		}
		rng.Upper = v
	}
	return rng, nil
}

// splitRangeBody splits "a,b" into "a" and "b", honoring double-quoted
// bounds that may themselves contain a comma.
func splitRangeBody(body string) (string, string, error) {
	inQuotes := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			inQuotes = !inQuotes
		case '\\':
			i++
		case ',':
			if !inQuotes {
				return body[:i], body[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("no unquoted comma found")
}

func unquoteRangeBound(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
		s = strings.ReplaceAll(s, `\\`, `\`)
	}
	return s
}

// decodeMultirangeText parses "{r1,r2,...}", e.g. "{[1,2),[5,6)}", or the
// empty "{}".
func decodeMultirangeText(r *Registry, elem OID, src []byte, ctx DecodeContext) (any, error) {
	s := strings.TrimSpace(string(src))
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("pgwire: invalid multirange text %q", src)
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return Multirange{}, nil
	}
	var out Multirange
	depth := 0
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				v, err := decodeRangeText(r, elem, []byte(body[start:i]), ctx)
				if err != nil {
					return nil, err
				}
				out = append(out, v.(Range))
				start = i + 1
			}
		}
	}
	v, err := decodeRangeText(r, elem, []byte(body[start:]), ctx)
	if err != nil {
		return nil, err
	}
	out = append(out, v.(Range))
	return out, nil
}
