package pgwire

import (
	"fmt"

	"github.com/wrennet/pgwire/internal/codec"
	"github.com/wrennet/pgwire/pkg/wire"
)

// Field describes one result column, as reported by RowDescription (§3
// "Field descriptor").
type Field struct {
	Name     string
	TableOID uint32
	Column   int16
	TypeOID  codec.OID
	TypeSize int16
	TypeMod  int32
	Format   wire.FormatCode
}

// Row is one decoded record: one entry per Field, in order. A NULL column
// decodes to a nil entry.
type Row []any

// Result is one (fields, rows, tag) triple: one per statement executed in
// a Simple Query batch, or the single outcome of an Extended Query cycle
// (§3 "Result set").
type Result struct {
	Fields []Field
	Rows   []Row
	Tag    string
}

// columnDecoder is resolved once per column at RowDescription time (or
// reused from a prepared statement's cache entry) rather than re-looked-up
// from the registry on every row.
type columnDecoder func(src []byte) (any, error)

func buildDecoders(fields []Field, registry *codec.Registry, ctx codec.DecodeContext, rawMode bool) []columnDecoder {
	decoders := make([]columnDecoder, len(fields))
	for i, f := range fields {
		f := f
		if rawMode {
			decoders[i] = func(src []byte) (any, error) { return codec.RawDecode(src, ctx) }
			continue
		}
		binary := f.Format == wire.BinaryFormat
		decoders[i] = func(src []byte) (any, error) {
			return registry.Decode(f.TypeOID, binary, src, ctx)
		}
	}
	return decoders
}

func parseRowDescription(payload []byte) ([]Field, error) {
	count, rest, err := getInt16Field(payload)
	if err != nil {
		return nil, &FramingError{Err: err}
	}
	fields := make([]Field, 0, count)
	for i := 0; i < int(count); i++ {
		name, r, ok := cutCString(rest)
		if !ok {
			return nil, &FramingError{Err: fmt.Errorf("pgwire: truncated RowDescription field name")}
		}
		rest = r

		if len(rest) < 4+2+4+2+4+2 {
			return nil, &FramingError{Err: fmt.Errorf("pgwire: truncated RowDescription field body")}
		}
		tableOID := uint32FromBytes(rest[0:4])
		column := int16FromBytes(rest[4:6])
		typeOID := codec.OID(uint32FromBytes(rest[6:10]))
		typeSize := int16FromBytes(rest[10:12])
		typeMod := int32FromBytes(rest[12:16])
		format := wire.FormatCode(int16FromBytes(rest[16:18]))
		rest = rest[18:]

		fields = append(fields, Field{
			Name:     name,
			TableOID: tableOID,
			Column:   column,
			TypeOID:  typeOID,
			TypeSize: typeSize,
			TypeMod:  typeMod,
			Format:   format,
		})
	}
	return fields, nil
}

func parseDataRow(payload []byte, decoders []columnDecoder) (Row, error) {
	count, rest, err := getInt16Field(payload)
	if err != nil {
		return nil, &FramingError{Err: err}
	}
	if int(count) != len(decoders) {
		return nil, &ProtocolStateError{Message: fmt.Sprintf("DataRow column count %d does not match RowDescription count %d", count, len(decoders))}
	}

	row := make(Row, count)
	for i := 0; i < int(count); i++ {
		length, r, err := getInt32Field(rest)
		if err != nil {
			return nil, &FramingError{Err: err}
		}
		rest = r
		if length < 0 {
			row[i] = nil
			continue
		}
		if len(rest) < int(length) {
			return nil, &FramingError{Err: fmt.Errorf("pgwire: truncated DataRow column %d", i)}
		}
		src := rest[:length]
		rest = rest[length:]

		val, err := decoders[i](src)
		if err != nil {
			return nil, &DecodeError{Column: i, Err: err}
		}
		row[i] = val
	}
	return row, nil
}

func uint32FromBytes(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func int32FromBytes(b []byte) int32 { return int32(uint32FromBytes(b)) }

func int16FromBytes(b []byte) int16 {
	return int16(uint16(b[0])<<8 | uint16(b[1]))
}
