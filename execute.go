package pgwire

import (
	"log/slog"

	"github.com/wrennet/pgwire/internal/cache"
	"github.com/wrennet/pgwire/internal/codec"
	"github.com/wrennet/pgwire/pkg/wire"
)

// BuildExecute assembles the message sequence for one execute-to-Sync
// unit and returns it as a single contiguous payload (§5's "single
// assembly step"). sql is the statement text; params are encoded via
// EncodeParam using hints (may be nil, or shorter than params — missing
// entries get no hint). resultFormat picks the format Extended Query
// requests for result columns; raw bypasses the codec registry and
// returns every column as uninterpreted bytes (§4.4 "raw result" mode).
//
// The engine must be Ready; BuildExecute transitions it to Executing.
func (e *Engine) BuildExecute(sql string, params []any, resultFormat FormatCode, raw bool, hints []codec.OID) ([]byte, error) {
	if e.state != ReadyForQuery {
		return nil, &ProtocolStateError{State: e.state, Message: "execute requested while engine is not idle"}
	}

	encoded := make([]Param, len(params))
	oids := make([]uint32, len(params))
	for i, v := range params {
		var hint codec.OID
		if i < len(hints) {
			hint = hints[i]
		}
		p, err := EncodeParam(v, hint)
		if err != nil {
			return nil, &EncodeError{Value: v, Err: err}
		}
		encoded[i] = p
		oids[i] = uint32(p.OID)
	}

	e.writer.Reset()
	e.results = nil
	e.curField = nil
	e.curDec = nil
	e.curRows = nil
	e.pendingErr = nil
	e.rawMode = raw
	e.parsedThisTurn = false

	key := cache.Key{SQL: sql, OIDs: cache.Fingerprint(oids)}
	useCache := !e.cache.Disabled()
	simple := len(params) == 0 && resultFormat != wire.BinaryFormat && (!useCache || e.cache.Lookup(key).Outcome == cache.Miss)

	if simple {
		e.cacheInUse = false
		e.writer.Start(wire.FrontendSimpleQuery)
		e.writer.AddCString(sql)
		e.writer.End()
		e.state = Executing
		return e.Outbound(), nil
	}

	var lookup cache.Result
	if useCache {
		lookup = e.cache.Lookup(key)
	} else {
		lookup = cache.Result{Outcome: cache.Miss}
	}
	e.activeKey = key
	e.activeLookup = lookup
	e.cacheInUse = useCache

	if pending := e.cache.TakePendingClose(); pending != nil {
		e.logger.Debug("closing evicted prepared statement", slog.String("name", pending.Name))
		e.writer.Start(wire.FrontendClose)
		e.writer.AddByte(byte(wire.DescribeStatement))
		e.writer.AddCString(pending.Name)
		e.writer.End()
	}

	if lookup.Outcome == cache.PreparedReady {
		e.logger.Debug("reusing prepared statement", slog.String("name", lookup.Stmt.Name))
		stmt := lookup.Stmt
		if fields, ok := stmt.Fields.([]Field); ok {
			e.curField = fields
		}
		if decs, ok := stmt.Decoders.([]columnDecoder); ok {
			e.curDec = decs
		}
		e.writeBind(stmt.Name, encoded, resultFormat)
		e.writeExecute()
		e.writer.Start(wire.FrontendSync)
		e.writer.End()
		e.state = Executing
		return e.Outbound(), nil
	}

	stmtName := ""
	if lookup.Outcome == cache.Unprepared && lookup.WillReachThreshold {
		stmtName = lookup.Stmt.Name
		e.logger.Debug("promoting statement to prepared", slog.String("name", stmtName))
	}

	e.writer.Start(wire.FrontendParse)
	e.writer.AddCString(stmtName)
	e.writer.AddCString(sql)
	e.writer.AddInt16(int16(len(oids)))
	for _, oid := range oids {
		e.writer.AddUint32(oid)
	}
	e.writer.End()

	e.writeBind(stmtName, encoded, resultFormat)

	e.writer.Start(wire.FrontendDescribe)
	e.writer.AddByte(byte(wire.DescribePortal))
	e.writer.AddCString("")
	e.writer.End()

	e.writeExecute()

	e.writer.Start(wire.FrontendSync)
	e.writer.End()

	e.state = Executing
	return e.Outbound(), nil
}

func (e *Engine) writeBind(stmtName string, params []Param, resultFormat FormatCode) {
	e.writer.Start(wire.FrontendBind)
	e.writer.AddCString("") // unnamed portal
	e.writer.AddCString(stmtName)

	e.writer.AddInt16(int16(len(params)))
	for _, p := range params {
		e.writer.AddInt16(int16(p.Format))
	}

	e.writer.AddInt16(int16(len(params)))
	for _, p := range params {
		e.writer.AddInt32Field(p.Payload)
	}

	e.writer.AddInt16(1)
	e.writer.AddInt16(int16(resultFormat))
	e.writer.End()
}

// Execute is BuildExecute using the engine's configured default result
// format (§4.4: binary unless WithDefaultResultFormat overrides it).
func (e *Engine) Execute(sql string, params []any, raw bool, hints []codec.OID) ([]byte, error) {
	return e.BuildExecute(sql, params, e.defaultResultFormat, raw, hints)
}

func (e *Engine) writeExecute() {
	e.writer.Start(wire.FrontendExecute)
	e.writer.AddCString("") // unnamed portal
	e.writer.AddInt32(0)    // no row limit
	e.writer.End()
}

// Retryable reports whether se represents PostgreSQL's "cached plan must
// not change result type" condition outside a transaction block — the
// one case §7 calls out where the facade may transparently retry once
// the pending Close (already scheduled by Cache.Commit's eviction path)
// has gone out.
func (se *ServerError) Retryable(s *Session) bool {
	return se.Message == "cached plan must not change result type" && s.TransactionStatus() == 'I'
}
