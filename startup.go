package pgwire

import (
	"encoding/binary"
	"sort"

	"github.com/wrennet/pgwire/pkg/wire"
)

// BuildStartup renders the protocol startup message: a 4-byte length, the
// protocol version (196608 = 3.0), null-terminated key/value pairs, and a
// terminating zero byte (§6). Keys are sorted for deterministic output;
// the wire format itself is order-insensitive.
func BuildStartup(params map[string]string) []byte {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	body := make([]byte, 0, 64)
	var verBuf [4]byte
	binary.BigEndian.PutUint32(verBuf[:], uint32(wire.VersionProtocol))
	body = append(body, verBuf[:]...)
	for _, k := range keys {
		body = append(body, k...)
		body = append(body, 0)
		body = append(body, params[k]...)
		body = append(body, 0)
	}
	body = append(body, 0)

	msg := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(msg[:4], uint32(len(msg)))
	copy(msg[4:], body)
	return msg
}

// BuildSSLRequest renders the fixed 8-byte SSLRequest message: the server
// replies with a single byte 'S' (proceed with TLS) or 'N' (plain) (§6).
func BuildSSLRequest() []byte {
	msg := make([]byte, 8)
	binary.BigEndian.PutUint32(msg[0:4], 8)
	binary.BigEndian.PutUint32(msg[4:8], uint32(wire.VersionSSLRequest))
	return msg
}

// BuildCancelRequest renders the fixed 16-byte CancelRequest message for
// the out-of-band cancel connection (§5, §6).
func BuildCancelRequest(pid, secret int32) []byte {
	msg := make([]byte, 16)
	binary.BigEndian.PutUint32(msg[0:4], 16)
	binary.BigEndian.PutUint32(msg[4:8], uint32(wire.VersionCancel))
	binary.BigEndian.PutUint32(msg[8:12], uint32(pid))
	binary.BigEndian.PutUint32(msg[12:16], uint32(secret))
	return msg
}
