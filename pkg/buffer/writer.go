package buffer

import (
	"bytes"
	"encoding/binary"
	"log/slog"

	"github.com/wrennet/pgwire/pkg/wire"
)

// Writer assembles one or more outbound PostgreSQL messages into a single
// contiguous byte sequence. §5 requires that an entire execute-to-Sync unit
// (optional Close, Parse, Bind, Describe, Execute, Sync) reach the
// transport as one write, so Writer accumulates across multiple
// Start/End pairs rather than flushing after each message; call Bytes once
// the whole unit has been built and Reset before starting the next one.
type Writer struct {
	logger *slog.Logger
	out    bytes.Buffer
	start  int // offset of the in-progress message's type byte, -1 if none
	err    error
}

// NewWriter constructs a message Writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger, start: -1}
}

// Start begins a new message of the given type, reserving its type byte and
// length field. The startup message and SSL/cancel requests have no type
// byte; pass 0 and use StartUntyped instead.
func (w *Writer) Start(t wire.FrontendTag) {
	w.logger.Debug("-> outgoing message", slog.String("type", t.String()))
	w.start = w.out.Len()
	w.out.WriteByte(byte(t))
	w.out.Write([]byte{0, 0, 0, 0})
}

// StartUntyped begins a message with no leading type byte (startup, SSL
// request, cancel request).
func (w *Writer) StartUntyped() {
	w.start = w.out.Len()
	w.out.Write([]byte{0, 0, 0, 0})
}

func (w *Writer) AddByte(b byte) {
	if w.err != nil {
		return
	}
	w.err = w.out.WriteByte(b)
}

func (w *Writer) AddInt16(v int16) {
	if w.err != nil {
		return
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	_, w.err = w.out.Write(b[:])
}

func (w *Writer) AddUint16(v uint16) {
	w.AddInt16(int16(v))
}

func (w *Writer) AddInt32(v int32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, w.err = w.out.Write(b[:])
}

func (w *Writer) AddUint32(v uint32) {
	w.AddInt32(int32(v))
}

// AddInt32Field writes a length-prefixed field: -1 for NULL, else the
// payload's length followed by the payload itself.
func (w *Writer) AddInt32Field(payload []byte) {
	if payload == nil {
		w.AddInt32(-1)
		return
	}
	w.AddInt32(int32(len(payload)))
	w.AddBytes(payload)
}

func (w *Writer) AddBytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.out.Write(b)
}

func (w *Writer) AddString(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.out.WriteString(s)
}

func (w *Writer) AddCString(s string) {
	w.AddString(s)
	w.AddByte(0)
}

func (w *Writer) Error() error {
	return w.err
}

// End finalizes the in-progress message by patching its length field (the
// field covers itself and the payload, but not the leading type byte) and
// returns any error recorded since Start.
func (w *Writer) End() error {
	if w.err != nil {
		return w.err
	}
	if w.start < 0 {
		return nil
	}

	body := w.out.Bytes()
	typeByteLen := 0
	// a typed message reserved type-byte+length (5 bytes) at w.start; an
	// untyped one reserved only the length (4 bytes). Distinguish by
	// checking whether the length field sits at start or start+1: typed
	// messages always write a non-zero tag byte.
	if body[w.start] != 0 {
		typeByteLen = 1
	}

	length := uint32(len(body) - w.start - typeByteLen)
	binary.BigEndian.PutUint32(body[w.start+typeByteLen:w.start+typeByteLen+4], length)
	w.start = -1
	return nil
}

// Bytes returns every message assembled since the last Reset, contiguously,
// ready to be handed to the transport as a single write.
func (w *Writer) Bytes() []byte {
	return w.out.Bytes()
}

// Len reports how many bytes have been assembled since the last Reset.
func (w *Writer) Len() int {
	return w.out.Len()
}

// Reset clears the builder for the next assembly unit.
func (w *Writer) Reset() {
	w.out.Reset()
	w.err = nil
	w.start = -1
}

// EncodeBoolean renders a boolean the way PostgreSQL session parameters do.
func EncodeBoolean(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
