package buffer

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/wrennet/pgwire/pkg/wire"
)

// FixedSize is the capacity of a Framer's inline buffer. Region allocates
// only when the buffered bytes plus the requested region exceed it.
const FixedSize = 16 * 1024

// FrameError is returned by Drain when an announced message length is
// malformed (§4.1: "fails with a framing error if an announced length is
// <4").
type FrameError struct {
	Length int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("pgwire: invalid frame length %d", e.Length)
}

// FrameHandler is invoked once per complete frame drained from the byte
// stream. tag is 0 for the untyped startup message. payload aliases the
// Framer's internal buffer and is only valid for the duration of the call.
type FrameHandler func(tag byte, payload []byte) error

// Framer splits an incoming byte stream into whole PostgreSQL protocol
// messages. It never blocks or reads on its own: a caller repeatedly asks
// for a writable Region, fills it (typically via a single Read on the
// transport), Advances by the number of bytes actually written, then calls
// Drain to hand any now-complete frames to a FrameHandler. Leftover bytes
// belonging to a partial frame are preserved across calls.
//
// The backing store is a fixed 16 KiB array; a Region request that does
// not fit in the remaining space triggers a heap allocation sized to the
// buffered bytes plus the request (the announced length of the pending
// message is not consulted), which is released again once Drain leaves
// few enough bytes to fit back in the fixed array.
type Framer struct {
	logger *slog.Logger
	fixed  [FixedSize]byte
	buf    []byte // active backing slice: fixed[:] or a one-shot overflow allocation
	len    int    // valid, unparsed bytes at buf[:len]
	typed  bool   // whether frames carry a leading one-byte tag
}

// NewFramer constructs a Framer. Pass typed=false only for the brief
// startup-message phase of the protocol (§6); every frame afterwards
// carries a type tag.
func NewFramer(logger *slog.Logger, typed bool) *Framer {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Framer{logger: logger, typed: typed}
	f.buf = f.fixed[:0]
	return f
}

// SetTyped switches the tag-presence mode, used once after the startup
// message has been consumed and ordinary typed frames begin.
func (f *Framer) SetTyped(typed bool) {
	f.typed = typed
}

// headerSize is the number of header bytes preceding the length-exclusive
// payload: the BE uint32 length, plus one tag byte in typed mode.
func (f *Framer) headerSize() int {
	if f.typed {
		return 5
	}
	return 4
}

// Region returns a writable slice of at least n bytes, appended after any
// bytes already buffered. The returned slice must be written into (e.g. via
// io.Reader.Read) before calling Advance.
func (f *Framer) Region(n int) []byte {
	if cap(f.buf)-f.len >= n {
		return f.buf[f.len:cap(f.buf)]
	}

	needed := f.len + n
	grown := make([]byte, needed)
	copy(grown, f.buf[:f.len])
	f.buf = grown
	return f.buf[f.len:cap(f.buf)]
}

// Advance records that n bytes were just written into the region returned
// by the most recent Region call.
func (f *Framer) Advance(n int) {
	f.len += n
}

// Drain invokes handle once per complete frame currently buffered, in
// order, stopping at the first partial frame or handler error. It returns
// the number of frames delivered.
func (f *Framer) Drain(handle FrameHandler) (int, error) {
	pos := 0
	delivered := 0

	for {
		hdr := f.headerSize()
		if f.len-pos < hdr {
			break
		}

		var tag byte
		lenOff := pos
		if f.typed {
			tag = f.buf[pos]
			lenOff = pos + 1
		}

		length := int(binary.BigEndian.Uint32(f.buf[lenOff : lenOff+4]))
		if length < 4 {
			return delivered, &FrameError{Length: length}
		}

		total := lenOff + length
		if f.len < total {
			break
		}

		payload := f.buf[lenOff+4 : total]
		if f.typed {
			f.logger.Debug("<- incoming frame", slog.String("type", wire.BackendTag(tag).String()), slog.Int("length", length))
		} else {
			f.logger.Debug("<- incoming frame", slog.Int("length", length))
		}
		if err := handle(tag, payload); err != nil {
			return delivered, err
		}

		delivered++
		pos = total
	}

	f.compact(pos)
	return delivered, nil
}

// compact discards the already-parsed prefix and, once the remaining
// leftover fits the fixed array again, releases any overflow allocation.
func (f *Framer) compact(consumed int) {
	if consumed == 0 {
		return
	}

	leftover := f.len - consumed
	if leftover > 0 {
		copy(f.buf[:leftover], f.buf[consumed:f.len])
	}
	f.len = leftover

	if cap(f.buf) != FixedSize && leftover <= FixedSize {
		copy(f.fixed[:leftover], f.buf[:leftover])
		f.buf = f.fixed[:0]
	}
}

// Buffered reports how many unparsed bytes are currently retained.
func (f *Framer) Buffered() int {
	return f.len
}
