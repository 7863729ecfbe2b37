package codec

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// pgEpoch is the zero point of every date/time/timestamp wire value:
// midnight, January 1 2000, the day PostgreSQL's internal clock starts
// counting from.
var pgEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	pgInt32Infinity    = math.MaxInt32
	pgInt32NegInfinity = math.MinInt32
	pgInt64Infinity    = math.MaxInt64
	pgInt64NegInfinity = math.MinInt64

	usecPerDay = 24 * 60 * 60 * 1000000
)

// Timestamp is the decode result for timestamp and timestamptz. Postgres
// allows timestamps to be saturated to +/-infinity independent of any
// representable time.Time value, so that state rides alongside Time rather
// than being approximated by it.
type Timestamp struct {
	Time     time.Time
	Infinity int // 0 = finite, +1 = infinity, -1 = -infinity
}

func (t Timestamp) String() string {
	switch t.Infinity {
	case 1:
		return "infinity"
	case -1:
		return "-infinity"
	default:
		return t.Time.Format(time.RFC3339Nano)
	}
}

// Date is the decode result for the date type, saturating the same way
// Timestamp does.
type Date struct {
	Time     time.Time
	Infinity int
}

func (d Date) String() string {
	switch d.Infinity {
	case 1:
		return "infinity"
	case -1:
		return "-infinity"
	default:
		return d.Time.Format("2006-01-02")
	}
}

// Interval is the decode result for the interval type: PostgreSQL keeps
// months, days and microseconds-of-day separate rather than collapsing
// them, since "1 month" is not a fixed number of days.
type Interval struct {
	Months       int32
	Days         int32
	Microseconds int64
}

func registerDateTime(r *Registry) {
	r.Register(&Codec{OID: OIDDate, Name: "date", Text: decodeDateText, Binary: decodeDateBinary})
	r.Register(&Codec{OID: OIDTimestamp, Name: "timestamp", Text: decodeTimestampText(false), Binary: decodeTimestampBinary(false)})
	r.Register(&Codec{OID: OIDTimestampTz, Name: "timestamptz", Text: decodeTimestampText(true), Binary: decodeTimestampBinary(true)})
	r.Register(&Codec{OID: OIDTime, Name: "time", Text: decodeTimeText, Binary: decodeTimeBinary})
	r.Register(&Codec{OID: OIDTimeTz, Name: "timetz", Text: decodeTimeTzText, Binary: decodeTimeTzBinary})
	r.Register(&Codec{OID: OIDInterval, Name: "interval", Text: decodeIntervalText, Binary: decodeIntervalBinary})
}

func decodeDateText(src []byte, ctx DecodeContext) (any, error) {
	s := string(src)
	switch s {
	case "infinity":
		return Date{Infinity: 1}, nil
	case "-infinity":
		return Date{Infinity: -1}, nil
	}
	if !ctx.ISODates {
		return s, nil // non-ISO DateStyle: raw text
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("pgwire: invalid date text %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func decodeDateBinary(src []byte, _ DecodeContext) (any, error) {
	days, _, err := getInt32(src)
	if err != nil {
		return nil, err
	}
	switch days {
	case pgInt32Infinity:
		return Date{Infinity: 1}, nil
	case pgInt32NegInfinity:
		return Date{Infinity: -1}, nil
	}
	return Date{Time: pgEpoch.AddDate(0, 0, int(days))}, nil
}

func decodeTimestampText(tz bool) TextDecoder {
	return func(src []byte, ctx DecodeContext) (any, error) {
		s := string(src)
		switch s {
		case "infinity":
			return Timestamp{Infinity: 1}, nil
		case "-infinity":
			return Timestamp{Infinity: -1}, nil
		}
		if !ctx.ISODates {
			return s, nil // non-ISO DateStyle: raw text
		}
		layout := "2006-01-02 15:04:05.999999999"
		loc := ctx.loc()
		if tz {
			layout += "Z07:00"
			loc = time.UTC
		}
		// PostgreSQL renders BC years with a trailing " BC" marker rather
		// than a negative year; time.Parse has no layout verb for it, so
		// strip it and negate the year field ourselves.
		bc := strings.HasSuffix(s, " BC")
		s = strings.TrimSuffix(s, " BC")
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return nil, fmt.Errorf("pgwire: invalid timestamp text %q: %w", src, err)
		}
		if bc {
			t = t.AddDate(-2*t.Year()+1, 0, 0)
		}
		return Timestamp{Time: t}, nil
	}
}

func decodeTimestampBinary(tz bool) BinaryDecoder {
	return func(src []byte, ctx DecodeContext) (any, error) {
		usec, _, err := getInt64(src)
		if err != nil {
			return nil, err
		}
		switch usec {
		case pgInt64Infinity:
			return Timestamp{Infinity: 1}, nil
		case pgInt64NegInfinity:
			return Timestamp{Infinity: -1}, nil
		}
		t := pgEpoch.Add(time.Duration(usec) * time.Microsecond)
		if tz {
			t = t.In(ctx.loc())
		}
		return Timestamp{Time: t}, nil
	}
}

func decodeTimeText(src []byte, _ DecodeContext) (any, error) {
	t, err := time.Parse("15:04:05.999999999", string(src))
	if err != nil {
		return nil, fmt.Errorf("pgwire: invalid time text %q: %w", src, err)
	}
	return t, nil
}

func decodeTimeBinary(src []byte, _ DecodeContext) (any, error) {
	usec, _, err := getInt64(src)
	if err != nil {
		return nil, err
	}
	return pgEpoch.Add(time.Duration(usec) * time.Microsecond), nil
}

// TimeTz is the decode result for timetz: a time-of-day plus a fixed UTC
// offset, since time.Time's own zone machinery assumes a calendar date.
type TimeTz struct {
	Time       time.Time
	OffsetSecs int32 // seconds east of UTC
}

func decodeTimeTzText(src []byte, _ DecodeContext) (any, error) {
	s := string(src)
	idx := strings.IndexAny(s, "+-")
	if idx <= 0 {
		return nil, fmt.Errorf("pgwire: invalid timetz text %q", src)
	}
	t, err := time.Parse("15:04:05.999999999", s[:idx])
	if err != nil {
		return nil, fmt.Errorf("pgwire: invalid timetz text %q: %w", src, err)
	}
	offParts := strings.Split(s[idx:], ":")
	offH, err := parseIntStrict(offParts[0])
	if err != nil {
		return nil, fmt.Errorf("pgwire: invalid timetz offset %q: %w", src, err)
	}
	offM := 0
	if len(offParts) > 1 {
		offM, _ = parseIntStrict(offParts[1])
		if offH < 0 {
			offM = -offM
		}
	}
	return TimeTz{Time: t, OffsetSecs: int32(offH*3600 + offM*60)}, nil
}

func parseIntStrict(s string) (int, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	var v int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a digit: %q", c)
		}
		v = v*10 + int(c-'0')
	}
	if neg {
		v = -v
	}
	return v, nil
}

func decodeTimeTzBinary(src []byte, _ DecodeContext) (any, error) {
	usec, rest, err := getInt64(src)
	if err != nil {
		return nil, err
	}
	zone, _, err := getInt32(rest)
	if err != nil {
		return nil, err
	}
	t := pgEpoch.Add(time.Duration(usec) * time.Microsecond)
	// wire "zone" is seconds WEST of UTC; OffsetSecs is conventionally
	// seconds EAST, matching time.Location's own sign convention.
	return TimeTz{Time: t, OffsetSecs: -zone}, nil
}

func decodeIntervalText(src []byte, _ DecodeContext) (any, error) {
	return parseIntervalText(string(src))
}

func decodeIntervalBinary(src []byte, _ DecodeContext) (any, error) {
	usec, rest, err := getInt64(src)
	if err != nil {
		return nil, err
	}
	days, rest, err := getInt32(rest)
	if err != nil {
		return nil, err
	}
	months, _, err := getInt32(rest)
	if err != nil {
		return nil, err
	}
	return Interval{Months: months, Days: days, Microseconds: usec}, nil
}

// parseIntervalText parses PostgreSQL's default ("postgres") interval
// output style: "[-]Y years [-]M mons [-]D days [-]HH:MM:SS[.ffffff]". Every
// component is optional; what's present is separated by single spaces.
func parseIntervalText(s string) (Interval, error) {
	var iv Interval
	fields := strings.Fields(s)
	i := 0
	for i < len(fields) {
		tok := fields[i]
		if strings.Contains(tok, ":") {
			d, err := parseIntervalClock(tok)
			if err != nil {
				return Interval{}, err
			}
			iv.Microseconds += d
			i++
			continue
		}
		if i+1 >= len(fields) {
			return Interval{}, fmt.Errorf("pgwire: malformed interval text %q", s)
		}
		n, err := parseIntStrict(tok)
		if err != nil {
			return Interval{}, fmt.Errorf("pgwire: malformed interval text %q: %w", s, err)
		}
		unit := strings.TrimSuffix(fields[i+1], "s")
		switch unit {
		case "year":
			iv.Months += int32(n) * 12
		case "mon":
			iv.Months += int32(n)
		case "day":
			iv.Days += int32(n)
		default:
			return Interval{}, fmt.Errorf("pgwire: unknown interval unit %q", fields[i+1])
		}
		i += 2
	}
	return iv, nil
}

func parseIntervalClock(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("pgwire: malformed interval clock %q", s)
	}
	h, err := parseIntStrict(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := parseIntStrict(parts[1])
	if err != nil {
		return 0, err
	}
	secParts := strings.SplitN(parts[2], ".", 2)
	sec, err := parseIntStrict(secParts[0])
	if err != nil {
		return 0, err
	}
	var usec int64
	if len(secParts) == 2 {
		frac := secParts[1]
		for len(frac) < 6 {
			frac += "0"
		}
		frac = frac[:6]
		v, err := parseIntStrict(frac)
		if err != nil {
			return 0, err
		}
		usec = int64(v)
	}
	total := int64(h)*3600*1000000 + int64(m)*60*1000000 + int64(sec)*1000000 + usec
	if neg {
		total = -total
	}
	return total, nil
}
