package ingest

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/normalize"
)

const mlgVendorName = "MLG"

var mlgMagic = []byte("MLVLG")

// mlgFieldType enumerates the fixed-width integer/float encodings MLG field
// headers can declare.
type mlgFieldType uint8

const (
	mlgInt8 mlgFieldType = iota
	mlgUint8
	mlgInt16
	mlgUint16
	mlgInt32
	mlgUint32
	mlgInt64
	mlgUint64
	mlgFloat32
)

func (t mlgFieldType) size() int {
	switch t {
	case mlgInt8, mlgUint8:
		return 1
	case mlgInt16, mlgUint16:
		return 2
	case mlgInt32, mlgUint32, mlgFloat32:
		return 4
	case mlgInt64, mlgUint64:
		return 8
	default:
		return 0
	}
}

type mlgField struct {
	name   string
	typ    mlgFieldType
	scale  float64
	offset float64
}

// MLGParser reads the fixed-width MLG binary format: a 5-byte "MLVLG"
// magic, a header enumerating typed+scaled fields, then fixed-stride
// records.
type MLGParser struct{}

func (p *MLGParser) Name() string { return mlgVendorName }

func (p *MLGParser) Sniff(head []byte) bool {
	return bytes.HasPrefix(head, mlgMagic)
}

func (p *MLGParser) Parse(ctx context.Context, r ByteReaderAt, opts Options) (*logmodel.Log, error) {
	br := &offsetReader{r: r}

	magic := make([]byte, len(mlgMagic))
	if _, err := io.ReadFull(br, magic); err != nil || !bytes.Equal(magic, mlgMagic) {
		return nil, &UnsupportedFormatError{Detail: "MLG magic not present"}
	}

	var fieldCount uint16
	if err := binary.Read(br, binary.LittleEndian, &fieldCount); err != nil {
		return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field count"}
	}

	fields := make([]mlgField, fieldCount)
	for i := range fields {
		var nameLen uint8
		if err := binary.Read(br, binary.LittleEndian, &nameLen); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field name length"}
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(br, nameBytes); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field name"}
		}
		var typ uint8
		if err := binary.Read(br, binary.LittleEndian, &typ); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field type"}
		}
		var scale, offset float64
		if err := binary.Read(br, binary.LittleEndian, &scale); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field scale"}
		}
		if err := binary.Read(br, binary.LittleEndian, &offset); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field offset"}
		}
		ft := mlgFieldType(typ)
		if ft.size() == 0 {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: fmt.Sprintf("unknown field type %d", typ)}
		}
		fields[i] = mlgField{name: string(nameBytes), typ: ft, scale: scale, offset: offset}
	}

	var recordCount uint32
	if err := binary.Read(br, binary.LittleEndian, &recordCount); err != nil {
		return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated record count"}
	}

	timeIdx := -1
	channels := make([]logmodel.Channel, len(fields))
	builders := make([]*columnBuilder, len(fields))
	for i, f := range fields {
		canon := normalize.Canonicalize(f.name, opts.Overrides, opts.Registry, mlgVendorName)
		channels[i] = logmodel.Channel{RawName: f.name, CanonicalName: canon, Kind: logmodel.KindNumeric}
		builders[i] = newColumnBuilder(opts.InitialColumnCapacity)
		if timeIdx < 0 && (canon == "Time" || f.name == "Time" || f.name == "time") {
			timeIdx = i
		}
	}
	if timeIdx < 0 {
		timeIdx = 0
	}

	for row := 0; row < int(recordCount); row++ {
		if err := checkCancelled(ctx, row); err != nil {
			return nil, err
		}
		for i, f := range fields {
			raw, err := readMLGRaw(br, f.typ)
			if err != nil {
				return nil, &CorruptFormatError{Offset: br.pos, Detail: fmt.Sprintf("truncated record %d field %s", row, f.name)}
			}
			v := raw*f.scale + f.offset
			builders[i].AppendNumber(v)
		}
	}

	return assembleLog(mlgVendorName, timeIdx, channels, builders, nil)
}

func readMLGRaw(r io.Reader, typ mlgFieldType) (float64, error) {
	switch typ {
	case mlgInt8:
		var v int8
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case mlgUint8:
		var v uint8
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case mlgInt16:
		var v int16
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case mlgUint16:
		var v uint16
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case mlgInt32:
		var v int32
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case mlgUint32:
		var v uint32
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case mlgInt64:
		var v int64
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case mlgUint64:
		var v uint64
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case mlgFloat32:
		var v float32
		err := binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	default:
		return 0, fmt.Errorf("ingest: unknown MLG field type %d", typ)
	}
}

// offsetReader wraps a ByteReaderAt's sequential Read and tracks the byte
// offset consumed so far, for CorruptFormatError reporting.
type offsetReader struct {
	r   ByteReaderAt
	pos int64
}

func (o *offsetReader) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	o.pos += int64(n)
	return n, err
}
