// Package pgwire implements the wire-protocol core of a PostgreSQL
// client: a byte-oriented protocol state machine for the Simple and
// Extended Query flows, a transparent prepared-statement cache, a
// per-type value codec registry, and a parameter encoder. It drives a
// single connection; transport (TCP/TLS), connection pooling, and the
// high-level cursor API are facade concerns layered on top (§1).
package pgwire

import (
	"fmt"
	"log/slog"

	"github.com/wrennet/pgwire/internal/auth"
	"github.com/wrennet/pgwire/internal/cache"
	"github.com/wrennet/pgwire/internal/codec"
	"github.com/wrennet/pgwire/pkg/buffer"
	"github.com/wrennet/pgwire/pkg/wire"
)

// FormatCode is the wire format a value is encoded/decoded in, re-exported
// from pkg/wire so callers configuring an Engine don't need a second
// import for two constants.
type FormatCode = wire.FormatCode

const (
	TextFormat   = wire.TextFormat
	BinaryFormat = wire.BinaryFormat
)

// ScramClientFactory constructs the SCRAM-SHA-256 client used to answer
// an AuthenticationSASL challenge. Tests substitute a fake to avoid
// exercising the real exchange math; production code leaves the default
// (auth.NewScramClient) in place.
type ScramClientFactory func(user, password string) (*auth.ScramClient, error)

// Engine drives one PostgreSQL connection's wire protocol (§2). It owns
// the incoming framer, the outgoing message builder, the prepared-
// statement cache, the type codec registry, and session/auth state. It
// performs no I/O itself: a facade feeds it bytes via Region/Advance/
// Drain and sends back whatever Outbound returns.
type Engine struct {
	logger   *slog.Logger
	framer   *buffer.Framer
	writer   *buffer.Writer
	registry *codec.Registry
	cache    *cache.Cache
	session  *Session

	cacheSize           int
	cacheThreshold      int
	defaultResultFormat FormatCode

	onNotice       func(Notice)
	onNotification func(Notification)
	scramFactory   ScramClientFactory

	state      State
	backendKey BackendKey

	user     string
	password string
	scram    *auth.ScramClient

	// per-execute-cycle accumulator (§3 "Result accumulators")
	results  []Result
	curField []Field
	curDec   []columnDecoder
	curRows  []Row
	rawMode  bool

	activeKey      cache.Key
	activeLookup   cache.Result
	cacheInUse     bool
	parsedThisTurn bool

	pendingErr   error
	wipeOnSync   bool

	lastResults []Result
	lastErr     error
}

// NewEngine constructs an Engine in the Closed state. Callers must call
// Startup to begin the handshake.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:              slog.Default(),
		registry:            codec.NewRegistry(),
		session:             newSession(),
		cacheSize:           16,
		cacheThreshold:      5,
		defaultResultFormat: wire.BinaryFormat,
		scramFactory:        auth.NewScramClient,
		state:               Closed,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = cache.New(e.cacheSize, e.cacheThreshold)
	e.framer = buffer.NewFramer(e.logger, true) // backend messages are always typed (§6)
	e.writer = buffer.NewWriter(e.logger)
	return e
}

// State reports the engine's current top-level state (§4.4).
func (e *Engine) State() State { return e.state }

// BackendKey returns the process/secret key pair captured from
// BackendKeyData, used by the facade to build an out-of-band cancel
// request (§5, §6).
func (e *Engine) BackendKey() BackendKey { return e.backendKey }

// Session exposes the tracked server parameter state (§4.6).
func (e *Engine) Session() *Session { return e.session }

// Startup builds the startup message, records the credentials auth will
// need, and transitions to Connecting. params must include at least
// "user"; "database" is conventionally included too (§6).
func (e *Engine) Startup(user, password string, params map[string]string) []byte {
	e.logger.Debug("starting handshake", slog.String("user", user))
	e.user = user
	e.password = password
	e.state = Connecting

	merged := make(map[string]string, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	merged["user"] = user
	return BuildStartup(merged)
}

// Region returns a writable slice the caller should fill via a single
// transport read, then report back via Advance (§4.1, §6).
func (e *Engine) Region(n int) []byte { return e.framer.Region(n) }

// Advance records that n bytes were just written into the slice returned
// by the most recent Region call.
func (e *Engine) Advance(n int) { e.framer.Advance(n) }

// Drain hands every complete frame currently buffered to the state
// machine, in order. Call Outbound afterwards to retrieve any message the
// engine needs sent in response (auth challenges, mid-handshake replies).
func (e *Engine) Drain() error {
	_, err := e.framer.Drain(e.handleFrame)
	if err != nil {
		if _, ok := err.(*buffer.FrameError); ok {
			err = &FramingError{Err: err}
		}
		e.state = Terminating
		return err
	}
	return nil
}

// Outbound returns and clears any bytes the engine has queued for the
// transport since the last call (auth responses produced mid-Drain, or
// the message sequence from BuildExecute).
func (e *Engine) Outbound() []byte {
	b := append([]byte(nil), e.writer.Bytes()...)
	e.writer.Reset()
	return b
}

// Ready reports whether the engine is idle and can accept a new execute
// (invariant 5).
func (e *Engine) Ready() bool { return e.state == ReadyForQuery }

// TakeResult returns and clears the outcome of the most recently
// completed execute-to-ReadyForQuery cycle.
func (e *Engine) TakeResult() ([]Result, error) {
	res, err := e.lastResults, e.lastErr
	e.lastResults, e.lastErr = nil, nil
	return res, err
}

// Terminate builds a Terminate message and moves the engine to
// Terminating; no further messages are expected after this (§6).
func (e *Engine) Terminate() []byte {
	e.writer.Reset()
	e.writer.Start(wire.FrontendTerminate)
	e.writer.End()
	b := e.writer.Bytes()
	e.writer.Reset()
	e.state = Terminating
	return b
}

func (e *Engine) decodeContext() codec.DecodeContext {
	return codec.DecodeContext{ISODates: e.session.ISODates(), Location: e.session.Location()}
}

func (e *Engine) handleFrame(tag byte, payload []byte) error {
	switch wire.BackendTag(tag) {
	case wire.BackendAuth:
		return e.handleAuth(payload)
	case wire.BackendBackendKeyData:
		key, err := parseBackendKeyData(payload)
		if err != nil {
			return &FramingError{Err: err}
		}
		e.backendKey = key
		return nil
	case wire.BackendParameterStatus:
		name, rest, ok := cutCString(payload)
		if !ok {
			return &FramingError{Err: fmt.Errorf("pgwire: truncated ParameterStatus")}
		}
		value, _, ok := cutCString(rest)
		if !ok {
			return &FramingError{Err: fmt.Errorf("pgwire: truncated ParameterStatus value")}
		}
		if err := e.session.Set(name, value); err != nil {
			e.logger.Warn("rejecting server parameter", slog.String("name", name), slog.String("value", value), "err", err)
			return err // fatal: Drain fails and the engine moves to Terminating
		}
		return nil
	case wire.BackendRowDescription:
		return e.handleRowDescription(payload)
	case wire.BackendNoData:
		e.curField = nil
		e.curDec = nil
		if e.cacheInUse && e.activeLookup.WillReachThreshold && e.parsedThisTurn {
			e.activeLookup.Stmt.Fields = []Field(nil)
			e.activeLookup.Stmt.Decoders = []columnDecoder(nil)
		}
		return nil
	case wire.BackendDataRow:
		return e.handleDataRow(payload)
	case wire.BackendCommandComplete:
		cmdTag, _, ok := cutCString(payload)
		if !ok {
			return &FramingError{Err: fmt.Errorf("pgwire: truncated CommandComplete")}
		}
		e.results = append(e.results, Result{Fields: e.curField, Rows: e.curRows, Tag: cmdTag})
		e.curRows = nil
		e.curField = nil
		e.curDec = nil
		if isDiscardOrDeallocateAll(cmdTag) {
			e.logger.Debug("statement cache will be cleared at next ReadyForQuery", slog.String("command", cmdTag))
			e.wipeOnSync = true
		}
		return nil
	case wire.BackendEmptyQueryResponse:
		e.results = append(e.results, Result{})
		return nil
	case wire.BackendParseComplete:
		e.parsedThisTurn = true
		return nil
	case wire.BackendBindComplete, wire.BackendCloseComplete, wire.BackendParameterDescription, wire.BackendPortalSuspended:
		return nil
	case wire.BackendErrorResponse:
		e.pendingErr = buildServerError(payload)
		return nil
	case wire.BackendNoticeResponse:
		if e.onNotice != nil {
			e.onNotice(buildNotice(payload))
		}
		return nil
	case wire.BackendNotificationResponse:
		n, err := parseNotification(payload)
		if err != nil {
			return err
		}
		if e.onNotification != nil {
			e.onNotification(n)
		}
		return nil
	case wire.BackendReadyForQuery:
		return e.handleReadyForQuery(payload)
	case wire.BackendCopyInResponse, wire.BackendCopyOutResponse, wire.BackendCopyData, wire.BackendCopyDone:
		// COPY streaming is a facade concern (§1 scope note); the engine
		// merely surfaces that one is in progress rather than driving it.
		e.pendingErr = &ProtocolStateError{State: e.state, Message: "COPY protocol messages are not driven by this engine"}
		return nil
	default:
		return &ProtocolStateError{State: e.state, Message: fmt.Sprintf("unrecognised backend message tag %q", tag)}
	}
}

func (e *Engine) handleAuth(payload []byte) error {
	methodRaw, rest, err := getInt32Field(payload)
	if err != nil {
		return &FramingError{Err: err}
	}
	method := auth.Method(methodRaw)
	e.logger.Debug("received authentication request", slog.String("method", method.String()))

	switch method {
	case auth.MethodOK:
		e.logger.Debug("authentication succeeded")
		e.state = Authenticating
		return nil
	case auth.MethodCleartextPassword:
		e.writePasswordMessage(auth.Cleartext(e.password))
		return nil
	case auth.MethodMD5Password:
		if len(rest) < 4 {
			return &FramingError{Err: fmt.Errorf("pgwire: truncated MD5 salt")}
		}
		var salt [4]byte
		copy(salt[:], rest[:4])
		e.writePasswordMessage(auth.MD5(e.user, e.password, salt))
		return nil
	case auth.MethodSASL:
		if !containsMechanism(rest, auth.Mechanism) {
			return &auth.ErrUnsupportedMethod{Method: method}
		}
		client, err := e.scramFactory(e.user, e.password)
		if err != nil {
			return err
		}
		e.scram = client
		resp, err := client.InitialResponse()
		if err != nil {
			return err
		}
		e.writeSASLInitial(auth.Mechanism, resp)
		return nil
	case auth.MethodSASLContinue:
		if e.scram == nil {
			return &ProtocolStateError{State: e.state, Message: "AuthenticationSASLContinue without a prior AuthenticationSASL"}
		}
		resp, err := e.scram.Continue(string(rest))
		if err != nil {
			return err
		}
		e.writeSASLResponse(resp)
		return nil
	case auth.MethodSASLFinal:
		if e.scram == nil {
			return &ProtocolStateError{State: e.state, Message: "AuthenticationSASLFinal without a prior AuthenticationSASL"}
		}
		return e.scram.Final(string(rest))
	default:
		e.logger.Error("unsupported authentication method requested", slog.String("method", method.String()))
		return &auth.ErrUnsupportedMethod{Method: method}
	}
}

func containsMechanism(rest []byte, want string) bool {
	for len(rest) > 0 {
		name, r, ok := cutCString(rest)
		if !ok || name == "" {
			break
		}
		if name == want {
			return true
		}
		rest = r
	}
	return false
}

func (e *Engine) writePasswordMessage(pw string) {
	e.writer.Start(wire.FrontendPassword)
	e.writer.AddCString(pw)
	e.writer.End()
}

func (e *Engine) writeSASLInitial(mechanism, resp string) {
	e.writer.Start(wire.FrontendPassword)
	e.writer.AddCString(mechanism)
	if resp == "" {
		e.writer.AddInt32(-1)
	} else {
		e.writer.AddInt32(int32(len(resp)))
		e.writer.AddString(resp)
	}
	e.writer.End()
}

func (e *Engine) writeSASLResponse(resp string) {
	e.writer.Start(wire.FrontendPassword)
	e.writer.AddString(resp)
	e.writer.End()
}

func (e *Engine) handleRowDescription(payload []byte) error {
	fields, err := parseRowDescription(payload)
	if err != nil {
		return err
	}
	e.curField = fields
	e.curDec = buildDecoders(fields, e.registry, e.decodeContext(), e.rawMode)

	if e.cacheInUse && e.activeLookup.WillReachThreshold && e.parsedThisTurn {
		e.activeLookup.Stmt.Fields = fields
		e.activeLookup.Stmt.Decoders = e.curDec
	}
	return nil
}

func (e *Engine) handleDataRow(payload []byte) error {
	if e.curDec == nil && e.curField == nil {
		return &ProtocolStateError{State: e.state, Message: "DataRow received before RowDescription"}
	}
	row, err := parseDataRow(payload, e.curDec)
	if err != nil {
		return err
	}
	e.curRows = append(e.curRows, row)
	return nil
}

func isDiscardOrDeallocateAll(tag string) bool {
	return tag == "DISCARD ALL" || tag == "DEALLOCATE ALL"
}

func (e *Engine) handleReadyForQuery(payload []byte) error {
	if len(payload) < 1 {
		return &FramingError{Err: fmt.Errorf("pgwire: truncated ReadyForQuery")}
	}
	e.session.setTransactionStatus(payload[0])

	switch e.state {
	case Connecting, Authenticating:
		e.state = ReadyForQuery
		return nil
	case Executing:
		if e.cacheInUse {
			e.cache.Commit(e.activeKey, e.activeLookup, e.pendingErr == nil, e.parsedThisTurn)
		}
		if e.wipeOnSync {
			e.cache.WipeAll()
			e.wipeOnSync = false
		}
		e.lastResults = e.results
		e.lastErr = e.pendingErr
		e.results = nil
		e.pendingErr = nil
		e.cacheInUse = false
		e.parsedThisTurn = false
		e.state = ReadyForQuery
		return nil
	default:
		return &ProtocolStateError{State: e.state, Message: "unexpected ReadyForQuery"}
	}
}
