package pgwire

import (
	"strings"
	"time"
)

// Session tracks server parameter status (`S` ParameterStatus messages)
// that influence how values are decoded (§4.6). It has no behaviour beyond
// bookkeeping; the codec registry consults it through codec.DecodeContext.
type Session struct {
	params map[string]string

	isoDates   bool
	location   *time.Location
	encodingOK bool

	transactionStatus byte // 'I' idle, 'T' in-block, 'E' failed block
}

func newSession() *Session {
	return &Session{
		params:            make(map[string]string),
		location:          time.UTC,
		transactionStatus: 'I',
	}
}

// Set records a ParameterStatus update and applies any side effects the
// parameter name triggers.
func (s *Session) Set(name, value string) error {
	s.params[name] = value
	switch name {
	case "DateStyle":
		s.isoDates = strings.HasPrefix(value, "ISO,") || value == "ISO"
	case "TimeZone":
		if loc, err := time.LoadLocation(value); err == nil {
			s.location = loc
		} else {
			s.location = time.UTC
		}
	case "client_encoding":
		if !strings.EqualFold(value, "UTF8") && !strings.EqualFold(value, "UTF-8") {
			return &ConfigError{Reason: "client_encoding must be UTF8, server reported " + value}
		}
		s.encodingOK = true
	}
	return nil
}

// Get returns the last-known value of a server parameter.
func (s *Session) Get(name string) (string, bool) {
	v, ok := s.params[name]
	return v, ok
}

// ISODates reports whether DateStyle is ISO, enabling parse-to-date
// decoding (§4.6); when false, the textual date and timestamp decoders
// return the raw text instead.
func (s *Session) ISODates() bool { return s.isoDates }

// Location is the session's resolved time zone, defaulting to UTC until a
// TimeZone ParameterStatus names a recognised IANA zone.
func (s *Session) Location() *time.Location { return s.location }

// TransactionStatus is the most recent ReadyForQuery status byte.
func (s *Session) TransactionStatus() byte { return s.transactionStatus }

func (s *Session) setTransactionStatus(b byte) { s.transactionStatus = b }
