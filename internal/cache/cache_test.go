package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupMiss(t *testing.T) {
	c := New(2, 1)
	res := c.Lookup(Key{SQL: "SELECT $1::int4"})
	require.Equal(t, Miss, res.Outcome)
}

// S3: threshold=1, cache_size=2. Run "SELECT $1::int4" three times. After
// the second execution the entry becomes prepared; the third sees
// PreparedReady.
func TestPrepareThreshold(t *testing.T) {
	c := New(2, 1)
	key := Key{SQL: "SELECT $1::int4"}

	res := c.Lookup(key)
	require.Equal(t, Miss, res.Outcome)
	c.Commit(key, res, true, false)

	res = c.Lookup(key)
	require.Equal(t, Unprepared, res.Outcome)
	require.True(t, res.WillReachThreshold)
	c.Commit(key, res, true, true)

	res = c.Lookup(key)
	require.Equal(t, PreparedReady, res.Outcome)
	require.Equal(t, "_pagio_001", res.Stmt.Name)
	c.Commit(key, res, true, false)
}

// S4: cache_size=2, threshold=1. Execute A, B, A, C. After C the cache
// contains {A, C}; B has been evicted. B was only ever executed once, so
// it never reached "prepared" and its eviction owes no Close.
func TestLRUEviction(t *testing.T) {
	c := New(2, 1)
	a := Key{SQL: "A"}
	b := Key{SQL: "B"}
	cc := Key{SQL: "C"}

	run := func(k Key) {
		res := c.Lookup(k)
		c.Commit(k, res, true, res.WillReachThreshold)
	}

	run(a)  // miss: insert A, exec#1, unprepared
	run(b)  // miss: insert B, exec#1, unprepared
	run(a)  // hit A: exec count already met threshold -> Parse(name), prepared

	require.Equal(t, 2, c.Len())

	run(cc) // cache full: evict LRU (B, still unprepared), reuse its index for C

	require.Equal(t, 2, c.Len())
	_, stillThere := c.entries[b]
	require.False(t, stillThere, "B must be fully evicted")
	require.Nil(t, c.PendingClose(), "B was never prepared, no Close is owed")

	aRes := c.Lookup(a)
	require.Equal(t, PreparedReady, aRes.Outcome)

	cRes := c.Lookup(cc)
	require.Equal(t, Unprepared, cRes.Outcome)
	require.Equal(t, 2, cRes.Stmt.Index, "C reuses B's evicted index")
}

// A prepared entry that gets evicted owes a deferred Close of its
// server-side name, piggy-backed onto the next Execute.
func TestLRUEvictionOfPreparedEntrySchedulesClose(t *testing.T) {
	c := New(2, 1)
	a := Key{SQL: "A"}
	b := Key{SQL: "B"}
	cc := Key{SQL: "C"}

	run := func(k Key) {
		res := c.Lookup(k)
		c.Commit(k, res, true, res.WillReachThreshold)
	}

	run(a)
	run(b)
	run(b) // B's 2nd execution promotes it to prepared
	run(a) // A's 2nd execution promotes it to prepared; order: [A, B]

	run(cc) // evict LRU = B, which is now prepared

	pending := c.TakePendingClose()
	require.NotNil(t, pending)
	require.Equal(t, "_pagio_002", pending.Name)

	cRes := c.Lookup(cc)
	require.Equal(t, pending.Index, cRes.Stmt.Index, "C reuses B's evicted index")
}

func TestCommitFailureKeepsUnpreparedEntryInPlace(t *testing.T) {
	c := New(2, 3)
	key := Key{SQL: "SELECT $1"}

	res := c.Lookup(key)
	c.Commit(key, res, true, false) // insert, exec count 1

	res = c.Lookup(key)
	c.Commit(key, res, false, false) // execution failed; entry stays, not prepared

	require.Equal(t, 1, c.Len())
	require.Nil(t, c.PendingClose())
}

func TestCommitFailureOnPreparedSchedulesClose(t *testing.T) {
	c := New(2, 1)
	key := Key{SQL: "SELECT $1"}

	res := c.Lookup(key)
	c.Commit(key, res, true, false) // first execution: insert, exec count 1 (meets threshold=1)

	res = c.Lookup(key)
	c.Commit(key, res, true, true) // second execution: named Parse acknowledged, becomes prepared

	res = c.Lookup(key)
	require.Equal(t, PreparedReady, res.Outcome)
	c.Commit(key, res, false, false) // server error on a prepared statement

	require.Equal(t, 0, c.Len())
	require.NotNil(t, c.PendingClose())
}

func TestWipeAllCancelsPendingClose(t *testing.T) {
	c := New(1, 1)
	key := Key{SQL: "SELECT 1"}
	res := c.Lookup(key)
	c.Commit(key, res, true, false) // insert

	res = c.Lookup(key)
	c.Commit(key, res, true, true) // promote to prepared

	res = c.Lookup(key)
	c.Commit(key, res, false, false)
	require.NotNil(t, c.PendingClose())

	c.WipeAll()
	require.Nil(t, c.PendingClose())
	require.Equal(t, 0, c.Len())
}

func TestDisabledThresholdNeverCaches(t *testing.T) {
	c := New(4, 0)
	key := Key{SQL: "SELECT 1"}
	res := c.Lookup(key)
	require.Equal(t, Miss, res.Outcome)
	c.Commit(key, res, true, false)
	require.Equal(t, 0, c.Len())
}

func TestFingerprintDistinguishesParamTypes(t *testing.T) {
	require.NotEqual(t, Fingerprint([]uint32{23}), Fingerprint([]uint32{25}))
	require.Equal(t, "", Fingerprint(nil))
}
