package pgwire

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrennet/pgwire/internal/auth"
	"github.com/wrennet/pgwire/pkg/wire"
)

func frame(tag byte, body []byte) []byte {
	buf := make([]byte, 0, 5+len(body))
	if tag != 0 {
		buf = append(buf, tag)
	}
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(4+len(body)))
	buf = append(buf, l[:]...)
	return append(buf, body...)
}

func i32(v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

func i16(v int16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	return b[:]
}

func cstr(s string) []byte { return append([]byte(s), 0) }

func feed(t *testing.T, e *Engine, chunks ...[]byte) {
	t.Helper()
	var all []byte
	for _, c := range chunks {
		all = append(all, c...)
	}
	region := e.Region(len(all))
	copy(region, all)
	e.Advance(len(all))
	require.NoError(t, e.Drain())
}

func fieldDescBody(name string, oid int32) []byte {
	var b []byte
	b = append(b, cstr(name)...)
	b = append(b, i32(0)...)  // table OID
	b = append(b, i16(0)...)  // column index
	b = append(b, i32(oid)...) // type OID
	b = append(b, i16(-1)...) // type size
	b = append(b, i32(-1)...) // type modifier
	b = append(b, i16(int16(wire.BinaryFormat))...)
	return b
}

func rowDescriptionBody(fields ...[]byte) []byte {
	b := i16(int16(len(fields)))
	for _, f := range fields {
		b = append(b, f...)
	}
	return b
}

func dataRowBody(cols ...[]byte) []byte {
	b := i16(int16(len(cols)))
	for _, c := range cols {
		if c == nil {
			b = append(b, i32(-1)...)
			continue
		}
		b = append(b, i32(int32(len(c)))...)
		b = append(b, c...)
	}
	return b
}

func doHandshake(t *testing.T, e *Engine) {
	t.Helper()
	e.Startup("alice", "secret", map[string]string{"database": "postgres"})
	feed(t, e, frame(byte(wire.BackendAuth), i32(0)))
	require.Equal(t, Authenticating, e.State())
	feed(t, e,
		frame(byte(wire.BackendBackendKeyData), append(i32(42), i32(99)...)),
		frame(byte(wire.BackendParameterStatus), append(cstr("DateStyle"), cstr("ISO, MDY")...)),
		frame(byte(wire.BackendReadyForQuery), []byte{'I'}),
	)
	require.Equal(t, ReadyForQuery, e.State())
	require.Equal(t, BackendKey{ProcessID: 42, SecretKey: 99}, e.BackendKey())
}

// TestHandshakeMD5 walks Startup through an MD5 challenge to ReadyForQuery.
func TestHandshakeMD5(t *testing.T) {
	e := NewEngine()
	e.Startup("alice", "secret", nil)
	require.Equal(t, Connecting, e.State())

	var salt [4]byte
	copy(salt[:], []byte{1, 2, 3, 4})
	feed(t, e, frame(byte(wire.BackendAuth), append(i32(5), salt[:]...)))

	out := e.Outbound()
	require.NotEmpty(t, out)
	require.Equal(t, byte(wire.FrontendPassword), out[0])

	feed(t, e, frame(byte(wire.BackendAuth), i32(0)))
	require.Equal(t, Authenticating, e.State())

	feed(t, e, frame(byte(wire.BackendReadyForQuery), []byte{'I'}))
	require.Equal(t, ReadyForQuery, e.State())
}

// TestHandshakeSCRAM drives the AuthenticationSASL step only: the engine
// must answer with a SASLInitialResponse password message. The
// SASLContinue/SASLFinal steps are not exercised here.
func TestHandshakeSCRAM(t *testing.T) {
	e := NewEngine()
	e.Startup("alice", "secret", nil)

	mechList := append(cstr(auth.Mechanism), 0)
	feed(t, e, frame(byte(wire.BackendAuth), append(i32(10), mechList...)))
	out := e.Outbound()
	require.NotEmpty(t, out)
	require.Equal(t, byte(wire.FrontendPassword), out[0])
}

// TestSimpleQuery exercises S1: zero params and a text result format pick
// the Simple Query path and a single-statement batch decodes correctly.
func TestSimpleQuery(t *testing.T) {
	e := NewEngine()
	doHandshake(t, e)

	out, err := e.BuildExecute("SELECT 1, 'a'", nil, TextFormat, false, nil)
	require.NoError(t, err)
	require.Equal(t, byte(wire.FrontendSimpleQuery), out[0])
	require.Equal(t, Executing, e.State())

	fields := rowDescriptionBody(
		fieldDescBody("?column?", 23),
		fieldDescBody("?column?", 25),
	)
	row := dataRowBody([]byte{0, 0, 0, 1}, []byte("a"))
	feed(t, e,
		frame(byte(wire.BackendRowDescription), fields),
		frame(byte(wire.BackendDataRow), row),
		frame(byte(wire.BackendCommandComplete), cstr("SELECT 1")),
		frame(byte(wire.BackendReadyForQuery), []byte{'I'}),
	)
	require.Equal(t, ReadyForQuery, e.State())

	results, err := e.TakeResult()
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "SELECT 1", results[0].Tag)
	require.Len(t, results[0].Rows, 1)
	require.Equal(t, int64(1), results[0].Rows[0][0])
	require.Equal(t, "a", results[0].Rows[0][1])
}

// TestExtendedBinary exercises S2: one bound parameter (and the binary
// result format) forces Extended Query even though the statement is
// uncached the first time.
func TestExtendedBinary(t *testing.T) {
	e := NewEngine()
	doHandshake(t, e)

	out, err := e.BuildExecute("SELECT $1::int4 + 1", []any{41}, BinaryFormat, false, nil)
	require.NoError(t, err)
	require.Equal(t, byte(wire.FrontendParse), out[0])

	feed(t, e,
		frame(byte(wire.BackendParseComplete), nil),
		frame(byte(wire.BackendBindComplete), nil),
		frame(byte(wire.BackendRowDescription), rowDescriptionBody(fieldDescBody("?column?", 23))),
		frame(byte(wire.BackendDataRow), dataRowBody(i32(42))),
		frame(byte(wire.BackendCommandComplete), cstr("SELECT 1")),
		frame(byte(wire.BackendReadyForQuery), []byte{'I'}),
	)

	results, err := e.TakeResult()
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int64(42), results[0].Rows[0][0])
}

// TestPrepareThreshold exercises S3: threshold=1 promotes the statement to
// prepared on its second execution, and the third skips Parse/Describe.
func TestPrepareThreshold(t *testing.T) {
	e := NewEngine(WithStatementCache(2, 1))
	doHandshake(t, e)

	runOnce := func() []byte {
		out, err := e.BuildExecute("SELECT $1::int4", []any{7}, BinaryFormat, false, nil)
		require.NoError(t, err)
		return out
	}
	ackOnce := func(withParse bool) {
		if withParse {
			feed(t, e, frame(byte(wire.BackendParseComplete), nil))
		}
		feed(t, e,
			frame(byte(wire.BackendBindComplete), nil),
			frame(byte(wire.BackendRowDescription), rowDescriptionBody(fieldDescBody("int4", 23))),
			frame(byte(wire.BackendDataRow), dataRowBody(i32(7))),
			frame(byte(wire.BackendCommandComplete), cstr("SELECT 1")),
			frame(byte(wire.BackendReadyForQuery), []byte{'I'}),
		)
		_, err := e.TakeResult()
		require.NoError(t, err)
	}

	out1 := runOnce()
	require.Equal(t, byte(wire.FrontendParse), out1[0])
	ackOnce(true)
	require.Equal(t, 1, e.cache.Len())

	out2 := runOnce()
	require.Equal(t, byte(wire.FrontendParse), out2[0])
	ackOnce(true)

	out3 := runOnce()
	require.Equal(t, byte(wire.FrontendBind), out3[0], "third execution should skip Parse once prepared")
	ackOnce(false)
}

// TestLRUEvictionPiggybacksClose exercises S4: with cache_size=2 and
// threshold=1, promoting A to prepared, filling the cache with B, then
// forcing a Miss on C evicts A (the LRU entry) and schedules its Close
// — which goes out piggy-backed on the very next Execute, ahead of that
// execute's own Parse.
func TestLRUEvictionPiggybacksClose(t *testing.T) {
	e := NewEngine(WithStatementCache(2, 1))
	doHandshake(t, e)

	run := func(sql string) []byte {
		out, err := e.BuildExecute(sql, []any{7}, BinaryFormat, false, nil)
		require.NoError(t, err)
		return out
	}
	ack := func() {
		feed(t, e,
			frame(byte(wire.BackendParseComplete), nil),
			frame(byte(wire.BackendBindComplete), nil),
			frame(byte(wire.BackendRowDescription), rowDescriptionBody(fieldDescBody("int4", 23))),
			frame(byte(wire.BackendDataRow), dataRowBody(i32(7))),
			frame(byte(wire.BackendCommandComplete), cstr("SELECT 1")),
			frame(byte(wire.BackendReadyForQuery), []byte{'I'}),
		)
		_, err := e.TakeResult()
		require.NoError(t, err)
	}

	out1 := run("SELECT A($1)")
	require.Equal(t, byte(wire.FrontendParse), out1[0])
	ack()
	require.Equal(t, 1, e.cache.Len())

	// second execution of A: ExecCount already at threshold, promotes to prepared.
	out2 := run("SELECT A($1)")
	require.Equal(t, byte(wire.FrontendParse), out2[0])
	ack()

	out3 := run("SELECT B($1)")
	require.Equal(t, byte(wire.FrontendParse), out3[0])
	ack()
	require.Equal(t, 2, e.cache.Len())

	// C is a Miss against a full cache: evicts A (least-recently-used),
	// which was prepared, so its Close is scheduled for the next turn.
	out4 := run("SELECT C($1)")
	require.Equal(t, byte(wire.FrontendParse), out4[0])
	ack()
	require.Equal(t, 2, e.cache.Len())

	out5 := run("SELECT D($1)")
	require.Equal(t, byte(wire.FrontendClose), out5[0], "evicted prepared statement's Close should piggyback on the next execute")
	require.Contains(t, string(out5), "_pagio_001")
	ack()
	require.Equal(t, 2, e.cache.Len())
}

// TestErrorPropagation verifies a server ErrorResponse is captured and
// delivered instead of a batch result once ReadyForQuery arrives.
func TestErrorPropagation(t *testing.T) {
	e := NewEngine()
	doHandshake(t, e)

	_, err := e.BuildExecute("SELECT bogus", nil, TextFormat, false, nil)
	require.NoError(t, err)

	body := append([]byte{byte(wire.ErrFieldSeverityV)}, cstr("ERROR")...)
	body = append(body, byte(wire.ErrFieldSQLState))
	body = append(body, cstr("42601")...)
	body = append(body, byte(wire.ErrFieldMsgPrimary))
	body = append(body, cstr("syntax error")...)
	body = append(body, 0)

	feed(t, e,
		frame(byte(wire.BackendErrorResponse), body),
		frame(byte(wire.BackendReadyForQuery), []byte{'I'}),
	)

	results, err := e.TakeResult()
	require.Nil(t, results)
	require.Error(t, err)
	serr, ok := err.(*ServerError)
	require.True(t, ok)
	require.Equal(t, "syntax error", serr.Message)
	require.EqualValues(t, "42601", serr.Code)
}
