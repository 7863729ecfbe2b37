package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMD5KnownVector(t *testing.T) {
	// "md5" + hex(md5(hex(md5("s3cret"+"alice")) + "\x01\x02\x03\x04")),
	// plus the algorithm's structure: "md5" prefix, 32 hex chars,
	// deterministic for the same inputs, different for different salts.
	salt := [4]byte{1, 2, 3, 4}
	got := MD5("alice", "s3cret", salt)
	require.Equal(t, "md5b79948bbeb35dee03ab8fe15a839030b", got)
	require.True(t, len(got) == 35)
	require.Equal(t, "md5", got[:3])

	again := MD5("alice", "s3cret", salt)
	require.Equal(t, got, again)

	otherSalt := [4]byte{5, 6, 7, 8}
	require.NotEqual(t, got, MD5("alice", "s3cret", otherSalt))
}

func TestCleartextPassesThrough(t *testing.T) {
	require.Equal(t, "hunter2", Cleartext("hunter2"))
}

func TestScramClientProducesInitialResponse(t *testing.T) {
	c, err := NewScramClient("alice", "s3cret")
	require.NoError(t, err)
	first, err := c.InitialResponse()
	require.NoError(t, err)
	require.Contains(t, first, "n=alice")
	require.False(t, c.Done())
}
