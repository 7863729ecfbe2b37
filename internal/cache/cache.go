// Package cache implements the transparent prepared-statement cache
// described in spec §3/§4.3: an insertion-ordered table keyed by (SQL,
// parameter-OID fingerprint), evicting least-recently-used entries with a
// deferred server-side Close, and promoting entries to "prepared" once
// their execution count reaches a configured threshold.
package cache

import (
	"container/list"
	"encoding/binary"
	"fmt"
)

// Key identifies a logical prepared statement: the SQL text, plus — when
// the statement takes parameters — the big-endian OID fingerprint of their
// types, since the server plans differently per parameter type.
type Key struct {
	SQL  string
	OIDs string
}

// Fingerprint renders parameter OIDs as the big-endian byte string the
// cache key uses, per §3 "Cache key".
func Fingerprint(oids []uint32) string {
	if len(oids) == 0 {
		return ""
	}
	b := make([]byte, 4*len(oids))
	for i, oid := range oids {
		binary.BigEndian.PutUint32(b[i*4:], oid)
	}
	return string(b)
}

// Statement is the cache's per-entry descriptor (§3 "Statement
// descriptor").
type Statement struct {
	Index          int    // 1..N, unique within the cache
	Name           string // "_pagio_%03d" when indexed, empty for the unnamed statement
	ExecCount      int
	Prepared       bool
	MarkedForClose bool
	Fields         any // result field list, opaque to the cache; set by the state machine
	Decoders       any // decoder vector, opaque to the cache; set by the state machine
}

// Outcome classifies a Lookup result per §4.3.
type Outcome int

const (
	// Miss: no entry exists for this key.
	Miss Outcome = iota
	// Unprepared: entry exists but is not yet prepared; WillReachThreshold
	// tells whether this execution should promote it.
	Unprepared
	// PreparedReady: entry exists, is prepared, and can be executed via
	// Bind/Execute/Sync alone.
	PreparedReady
)

// Result is returned by Lookup.
type Result struct {
	Outcome Outcome
	Stmt    *Statement
	// WillReachThreshold is true when the entry's prior execution count has
	// already reached the configured threshold — the state machine must
	// issue Parse with a server-side name this turn to promote it.
	WillReachThreshold bool
}

type entry struct {
	key  Key
	stmt *Statement
}

// Cache is the LRU-ordered prepared-statement table. It performs no
// internal synchronisation: per §5 it is owned exclusively by the single
// protocol engine driving one connection.
type Cache struct {
	size      int
	threshold int
	order     *list.List // front = most-recently-used, back = least
	entries   map[Key]*list.Element
	free      []int // indices 1..size not yet assigned
	pending   *Statement
}

// New constructs a Cache holding at most size entries. size <= 0 or
// threshold <= 0 disables caching outright, per §8 S4.
func New(size, threshold int) *Cache {
	c := &Cache{
		size:      size,
		threshold: threshold,
		order:     list.New(),
		entries:   make(map[Key]*list.Element),
	}
	for i := size; i >= 1; i-- {
		c.free = append(c.free, i)
	}
	return c
}

// Disabled reports whether caching is turned off (threshold <= 0 or
// size <= 0).
func (c *Cache) Disabled() bool {
	return c.threshold <= 0 || c.size <= 0
}

// Lookup resolves a cache key to one of the three outcomes in §4.3.
func (c *Cache) Lookup(key Key) Result {
	if c.Disabled() {
		return Result{Outcome: Miss}
	}

	el, ok := c.entries[key]
	if !ok {
		return Result{Outcome: Miss}
	}

	stmt := el.Value.(*entry).stmt
	if stmt.Prepared {
		return Result{Outcome: PreparedReady, Stmt: stmt}
	}

	willReach := stmt.ExecCount >= c.threshold
	return Result{Outcome: Unprepared, Stmt: stmt, WillReachThreshold: willReach}
}

// Commit applies the outcome of one execute-to-ReadyForQuery cycle for the
// given key. lookup is the Result previously returned by Lookup for the
// same key. success is false when the server reported an error for this
// statement. parsed is true when a Parse was sent and acknowledged this
// cycle (only meaningful when lookup.WillReachThreshold was true).
func (c *Cache) Commit(key Key, lookup Result, success bool, parsed bool) {
	if c.Disabled() {
		return
	}

	switch lookup.Outcome {
	case Miss:
		if success {
			c.insert(key)
		}
	case Unprepared, PreparedReady:
		el := c.entries[key]
		if el == nil {
			return
		}
		stmt := el.Value.(*entry).stmt

		if !success {
			if stmt.Prepared {
				c.evictElement(el)
				c.schedulePendingClose(stmt)
			}
			return
		}

		c.order.MoveToFront(el)
		if !stmt.Prepared {
			stmt.ExecCount++
			if parsed {
				stmt.Prepared = true
			}
		}
	}
}

// insert creates a new entry for key, evicting the least-recently-used
// entry first if the cache is full.
func (c *Cache) insert(key Key) *Statement {
	var index int
	if len(c.free) > 0 {
		index = c.free[len(c.free)-1]
		c.free = c.free[:len(c.free)-1]
	} else {
		back := c.order.Back()
		evicted := back.Value.(*entry)
		index = evicted.stmt.Index
		c.order.Remove(back)
		delete(c.entries, evicted.key)
		if evicted.stmt.Prepared {
			c.schedulePendingClose(evicted.stmt)
		}
	}

	stmt := &Statement{
		Index:     index,
		Name:      fmt.Sprintf("_pagio_%03d", index),
		ExecCount: 1,
	}
	el := c.order.PushFront(&entry{key: key, stmt: stmt})
	c.entries[key] = el
	return stmt
}

func (c *Cache) evictElement(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.key)
}

// schedulePendingClose records a statement whose server-side resources
// must be released via a Close message piggy-backed onto the next Execute
// flow (invariant 4: at most one pending close at a time).
func (c *Cache) schedulePendingClose(stmt *Statement) {
	stmt.MarkedForClose = true
	c.pending = stmt
}

// PendingClose reports the statement awaiting a piggy-backed Close, if
// any, without consuming it.
func (c *Cache) PendingClose() *Statement {
	return c.pending
}

// TakePendingClose consumes and returns the statement awaiting a
// piggy-backed Close, clearing the slot.
func (c *Cache) TakePendingClose() *Statement {
	s := c.pending
	c.pending = nil
	return s
}

// WipeAll clears every entry and cancels any pending close, per the
// DISCARD ALL / DEALLOCATE ALL sync rule (§4.3): the server has already
// released every prepared statement's resources, so no further Close
// messages are owed.
func (c *Cache) WipeAll() {
	c.order = list.New()
	c.entries = make(map[Key]*list.Element)
	c.free = c.free[:0]
	for i := c.size; i >= 1; i-- {
		c.free = append(c.free, i)
	}
	c.pending = nil
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	return c.order.Len()
}
