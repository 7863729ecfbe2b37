package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S6: array text "{{1,2},{3,NULL}}" with an int4 element decoder decodes
// to the nested list [[1,2],[3,null]].
func TestArrayTextS6Int(t *testing.T) {
	r := NewRegistry()
	got, err := decodeArrayText(r, OIDInt4, []byte("{{1,2},{3,NULL}}"), DecodeContext{})
	require.NoError(t, err)
	arr := got.(Array)
	nested := arr.Nested().([]any)
	require.Len(t, nested, 2)

	row0 := nested[0].([]any)
	require.Equal(t, int64(1), row0[0])
	require.Equal(t, int64(2), row0[1])

	row1 := nested[1].([]any)
	require.Equal(t, int64(3), row1[0])
	require.Nil(t, row1[1])
}

// S6: array text `{"a,b","c"}` with a text element decoder decodes to
// ["a,b","c"].
func TestArrayTextS6Text(t *testing.T) {
	r := NewRegistry()
	got, err := decodeArrayText(r, OIDText, []byte(`{"a,b","c"}`), DecodeContext{})
	require.NoError(t, err)
	arr := got.(Array)
	require.Equal(t, []any{"a,b", "c"}, arr.Elements)
}

func TestArrayBinaryInt4(t *testing.T) {
	var payload []byte
	payload = append(payload, int32Bytes(1)...) // ndim
	payload = append(payload, int32Bytes(0)...) // flags
	payload = append(payload, int32Bytes(int32(OIDInt4))...)
	payload = append(payload, int32Bytes(3)...) // dim length
	payload = append(payload, int32Bytes(1)...) // lower bound

	payload = append(payload, int32Bytes(4)...) // element 1: length 4
	payload = append(payload, int32Bytes(7)...) // value 7
	payload = append(payload, int32Bytes(4)...) // element 2: length 4
	payload = append(payload, int32Bytes(9)...) // value 9
	payload = append(payload, int32Bytes(-1)...) // element 3: NULL

	r := NewRegistry()
	got, err := decodeArrayBinary(r, OIDInt4, payload, DecodeContext{})
	require.NoError(t, err)
	arr := got.(Array)
	require.Equal(t, int64(7), arr.Elements[0])
	require.Equal(t, int64(9), arr.Elements[1])
	require.Nil(t, arr.Elements[2])
}

// A binary array payload whose elemOID disagrees with the statically
// registered element type must be rejected rather than decoded under
// the wrong codec.
func TestArrayBinaryElemOIDMismatch(t *testing.T) {
	var payload []byte
	payload = append(payload, int32Bytes(1)...) // ndim
	payload = append(payload, int32Bytes(0)...) // flags
	payload = append(payload, int32Bytes(int32(OIDText))...) // claims text, registered as int4
	payload = append(payload, int32Bytes(1)...) // dim length
	payload = append(payload, int32Bytes(1)...) // lower bound
	payload = append(payload, int32Bytes(4)...)
	payload = append(payload, int32Bytes(7)...)

	r := NewRegistry()
	_, err := decodeArrayBinary(r, OIDInt4, payload, DecodeContext{})
	require.Error(t, err)
}

// A doubled `""` inside a quoted array element is an escaped literal
// quote, same as PostgreSQL's own array-output format.
func TestArrayTextDoubledQuoteEscape(t *testing.T) {
	r := NewRegistry()
	got, err := decodeArrayText(r, OIDText, []byte(`{"a""b"}`), DecodeContext{})
	require.NoError(t, err)
	arr := got.(Array)
	require.Equal(t, []any{`a"b`}, arr.Elements)
}
