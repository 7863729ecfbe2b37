package pgwire

import (
	"fmt"

	"github.com/wrennet/pgwire/codes"
	pgerrors "github.com/wrennet/pgwire/errors"
)

// FramingError wraps a buffer.FrameError or any other failure to split the
// byte stream into whole messages (§7).
type FramingError struct {
	Err error
}

func (e *FramingError) Error() string { return fmt.Sprintf("pgwire: framing error: %v", e.Err) }
func (e *FramingError) Unwrap() error  { return e.Err }

// DecodeError wraps a value that could not be parsed for its declared OID
// and format (§7).
type DecodeError struct {
	Column int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pgwire: decode error at column %d: %v", e.Column, e.Err)
}
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError wraps a parameter value that EncodeParam failed to encode;
// BuildExecute returns it. EncodeParam itself falls back to textual
// encoding (with the `unknown` OID where no better type applies) rather
// than failing for values outside a binary encoding's range.
type EncodeError struct {
	Value any
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("pgwire: encode error for %T: %v", e.Value, e.Err)
}
func (e *EncodeError) Unwrap() error { return e.Err }

// ProtocolStateError reports a message received while the engine was in a
// state that does not expect it (e.g. DataRow before RowDescription).
type ProtocolStateError struct {
	State   State
	Message string
}

func (e *ProtocolStateError) Error() string {
	return fmt.Sprintf("pgwire: protocol state error in %s: %s", e.State, e.Message)
}

// ServerError is an `E` ErrorResponse surfaced to the caller, with the
// message's fields (severity, SQLSTATE code, message, detail, hint,
// constraint, source) assigned as plain struct fields.
type ServerError struct {
	Severity       pgerrors.Severity
	Code           codes.Code
	Message        string
	Detail         string
	Hint           string
	ConstraintName string
	Source         *pgerrors.Source
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("pgwire: server error [%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("pgwire: server error: %s", e.Message)
}

// TransportError is propagated verbatim from the transport (read/write
// failures on the underlying connection); it is always fatal.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("pgwire: transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error  { return e.Err }

// ConfigError is an immediate fatal configuration problem, currently only
// raised when client_encoding is reported as anything but UTF8 (§4.6,
// §7).
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "pgwire: config error: " + e.Reason }
