package pgwire

import (
	"fmt"
	"strconv"

	"github.com/wrennet/pgwire/codes"
	pgerrors "github.com/wrennet/pgwire/errors"
	"github.com/wrennet/pgwire/pkg/wire"
)

// Notice is the decoded payload of a NoticeResponse (`N`), carrying
// severity, SQLSTATE code, message, detail and hint (SUPPLEMENTED FEATURES
// #1); unlike ServerError it keeps no constraint name or source location.
type Notice struct {
	Severity pgerrors.Severity
	Code     string
	Message  string
	Detail   string
	Hint     string
}

// Notification is the decoded payload of a NotificationResponse (`A`):
// the raw LISTEN/NOTIFY event, with no routing or subscription logic
// (SUPPLEMENTED FEATURES #2 — policy is a facade concern).
type Notification struct {
	PID     int32
	Channel string
	Payload string
}

// parseFields reads a sequence of (tag byte, C-string value) pairs
// terminated by a zero byte, the shared body format of ErrorResponse and
// NoticeResponse (§6).
func parseFields(payload []byte) map[wire.ErrFieldTag]string {
	out := make(map[wire.ErrFieldTag]string)
	i := 0
	for i < len(payload) {
		tag := wire.ErrFieldTag(payload[i])
		i++
		if tag == 0 {
			break
		}
		start := i
		for i < len(payload) && payload[i] != 0 {
			i++
		}
		out[tag] = string(payload[start:i])
		i++ // skip the terminating zero
	}
	return out
}

func buildServerError(payload []byte) *ServerError {
	f := parseFields(payload)
	se := &ServerError{
		Severity:       pgerrors.Severity(f[wire.ErrFieldSeverityV]),
		Code:           codeFromFields(f),
		Message:        f[wire.ErrFieldMsgPrimary],
		Detail:         f[wire.ErrFieldDetail],
		Hint:           f[wire.ErrFieldHint],
		ConstraintName: f[wire.ErrFieldConstraintName],
	}
	if se.Severity == "" {
		se.Severity = pgerrors.Severity(f[wire.ErrFieldSeverity])
	}
	if file, ok := f[wire.ErrFieldSrcFile]; ok {
		src := &pgerrors.Source{File: file, Function: f[wire.ErrFieldSrcFunction]}
		if line, err := strconv.Atoi(f[wire.ErrFieldSrcLine]); err == nil {
			src.Line = int32(line)
		}
		se.Source = src
	}
	return se
}

func buildNotice(payload []byte) Notice {
	f := parseFields(payload)
	sev := f[wire.ErrFieldSeverityV]
	if sev == "" {
		sev = f[wire.ErrFieldSeverity]
	}
	return Notice{
		Severity: pgerrors.Severity(sev),
		Code:     f[wire.ErrFieldSQLState],
		Message:  f[wire.ErrFieldMsgPrimary],
		Detail:   f[wire.ErrFieldDetail],
		Hint:     f[wire.ErrFieldHint],
	}
}

func codeFromFields(f map[wire.ErrFieldTag]string) codes.Code {
	return codes.Code(f[wire.ErrFieldSQLState])
}

// parseNotification decodes a NotificationResponse (`A`) payload: a
// big-endian int32 PID followed by two C-strings, channel then payload.
func parseNotification(payload []byte) (Notification, error) {
	if len(payload) < 4 {
		return Notification{}, &FramingError{Err: errShortNotification}
	}
	pid := int32(uint32(payload[0])<<24 | uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3]))
	rest := payload[4:]

	channel, rest, ok := cutCString(rest)
	if !ok {
		return Notification{}, &FramingError{Err: errShortNotification}
	}
	body, _, ok := cutCString(rest)
	if !ok {
		return Notification{}, &FramingError{Err: errShortNotification}
	}
	return Notification{PID: pid, Channel: channel, Payload: body}, nil
}

func cutCString(b []byte) (string, []byte, bool) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], true
		}
	}
	return "", b, false
}

var errShortNotification = fmt.Errorf("pgwire: truncated NotificationResponse payload")
