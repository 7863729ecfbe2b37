package codec

import (
	"fmt"
	"net"
	"strings"
)

const (
	pgsqlAFInet  = 2
	pgsqlAFInet6 = 3
)

// Inet is the decode result for both inet and cidr: PostgreSQL stores both
// as an address plus a prefix length, and only the column type (not the
// wire payload) distinguishes "may have host bits set" from "network
// only".
type Inet struct {
	IP   net.IP
	Bits int
}

func (n Inet) String() string {
	return fmt.Sprintf("%s/%d", n.IP, n.Bits)
}

func registerNet(r *Registry) {
	r.Register(&Codec{OID: OIDInet, Name: "inet", Text: decodeInetText, Binary: decodeInetBinary})
	r.Register(&Codec{OID: OIDCIDR, Name: "cidr", Text: decodeInetText, Binary: decodeInetBinary})
}

func decodeInetText(src []byte, _ DecodeContext) (any, error) {
	s := string(src)
	addr := s
	bits := -1
	if idx := strings.IndexByte(s, '/'); idx != -1 {
		addr = s[:idx]
		n, err := parseIntStrict(s[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("pgwire: invalid inet prefix in %q: %w", s, err)
		}
		bits = n
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil, fmt.Errorf("pgwire: invalid inet text %q", src)
	}
	if bits == -1 {
		if ip.To4() != nil {
			bits = 32
		} else {
			bits = 128
		}
	}
	return Inet{IP: ip, Bits: bits}, nil
}

func decodeInetBinary(src []byte, _ DecodeContext) (any, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("pgwire: truncated inet payload")
	}
	family, bits, _, nb := src[0], src[1], src[2], src[3]
	addr := src[4:]
	if len(addr) != int(nb) {
		return nil, fmt.Errorf("pgwire: inet address length mismatch: header says %d, got %d", nb, len(addr))
	}
	switch family {
	case pgsqlAFInet:
		if nb != 4 {
			return nil, fmt.Errorf("pgwire: inet IPv4 payload must be 4 bytes, got %d", nb)
		}
	case pgsqlAFInet6:
		if nb != 16 {
			return nil, fmt.Errorf("pgwire: inet IPv6 payload must be 16 bytes, got %d", nb)
		}
	default:
		return nil, fmt.Errorf("pgwire: unknown inet address family %d", family)
	}
	ip := make(net.IP, len(addr))
	copy(ip, addr)
	return Inet{IP: ip, Bits: int(bits)}, nil
}
