package pgwire

// State is the protocol engine's top-level state (§4.4).
type State int

const (
	// Closed is the zero value: no connection attempt has been made. The
	// engine does not enter it again after Startup.
	Closed State = iota
	// Connecting covers the startup message through the authentication
	// handshake, up to the first AuthenticationOk.
	Connecting
	// Authenticating covers BackendKeyData/ParameterStatus settling after
	// AuthenticationOk, up to the first ReadyForQuery.
	Authenticating
	// ReadyForQuery is the idle state: the engine accepts a new execute.
	ReadyForQuery
	// Executing covers one execute-to-ReadyForQuery cycle; no new execute
	// is accepted until the cycle completes (invariant 5).
	Executing
	// Terminating is entered once Terminate has been built or Drain has
	// failed (a framing error or a fatal error from a frame handler); no
	// further messages are expected.
	Terminating
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Connecting:
		return "CONNECTING"
	case Authenticating:
		return "AUTHENTICATING"
	case ReadyForQuery:
		return "READY_FOR_QUERY"
	case Executing:
		return "EXECUTING"
	case Terminating:
		return "TERMINATING"
	default:
		return "UNKNOWN"
	}
}
