// Package codec implements the per-type value codec: a registry of
// decoder pairs keyed by PostgreSQL OID, one for the text and one for the
// binary wire format.
package codec

import "time"

// DecodeContext carries the session state a handful of decoders need in
// order to render a value correctly: whether the server is in ISO date
// style (vs. the postgres/SQL/german styles, which this registry does not
// attempt to parse) and the session time zone: binary timestamptz values
// are converted into it, and text timestamp-without-zone values are parsed
// in it.
type DecodeContext struct {
	ISODates bool
	Location *time.Location
}

func (c DecodeContext) loc() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

// TextDecoder parses a value rendered in PostgreSQL's text wire format.
type TextDecoder func(src []byte, ctx DecodeContext) (any, error)

// BinaryDecoder parses a value rendered in PostgreSQL's binary wire format.
type BinaryDecoder func(src []byte, ctx DecodeContext) (any, error)

// Codec is the decode half of a type's wire representation. Encoding lives
// in the parameter encoder (§4.5), which dispatches on Go value shape
// rather than OID and so does not share this table.
type Codec struct {
	OID    OID
	Name   string
	Text   TextDecoder
	Binary BinaryDecoder
}

// Registry is an OID-keyed table of codecs. The zero value is not usable;
// construct one with NewRegistry.
type Registry struct {
	byOID map[OID]*Codec
}

// NewRegistry builds a registry pre-populated with every codec this module
// ships (§4.2). Callers may Register additional or overriding codecs.
func NewRegistry() *Registry {
	r := &Registry{byOID: make(map[OID]*Codec, 64)}
	registerScalars(r)
	registerNumeric(r)
	registerDateTime(r)
	registerNet(r)
	registerArrays(r)
	registerRanges(r)
	return r
}

// Register installs or replaces the codec for c.OID.
func (r *Registry) Register(c *Codec) {
	r.byOID[c.OID] = c
}

// Lookup returns the codec registered for oid, if any.
func (r *Registry) Lookup(oid OID) (*Codec, bool) {
	c, ok := r.byOID[oid]
	return c, ok
}

// Decode runs the codec registered for oid against src, or falls back to
// Raw (§4.2 "raw result") when oid is unregistered.
func (r *Registry) Decode(oid OID, binary bool, src []byte, ctx DecodeContext) (any, error) {
	if src == nil {
		return nil, nil
	}
	c, ok := r.byOID[oid]
	if !ok {
		return RawDecode(src, ctx)
	}
	if binary {
		if c.Binary != nil {
			return c.Binary(src, ctx)
		}
		return RawDecode(src, ctx)
	}
	if c.Text != nil {
		return c.Text(src, ctx)
	}
	return RawDecode(src, ctx)
}
