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

const linkVendorName = "Link"

var linkMagic = []byte("LLG1")

type linkField struct {
	name   string
	offset uint16
	typ    mlgFieldType
	scale  float64
	fOff   float64
}

// LinkParser reads the Link LLG binary format: a header table declaring
// each channel's byte offset and type within a fixed-stride record,
// followed by the record stream itself.
type LinkParser struct{}

func (p *LinkParser) Name() string { return linkVendorName }

func (p *LinkParser) Sniff(head []byte) bool {
	return bytes.HasPrefix(head, linkMagic)
}

func (p *LinkParser) Parse(ctx context.Context, r ByteReaderAt, opts Options) (*logmodel.Log, error) {
	br := &offsetReader{r: r}

	magic := make([]byte, len(linkMagic))
	if _, err := io.ReadFull(br, magic); err != nil || !bytes.Equal(magic, linkMagic) {
		return nil, &UnsupportedFormatError{Detail: "Link magic not present"}
	}

	var fieldCount uint16
	if err := binary.Read(br, binary.LittleEndian, &fieldCount); err != nil {
		return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field count"}
	}

	fields := make([]linkField, fieldCount)
	for i := range fields {
		var nameLen uint8
		if err := binary.Read(br, binary.LittleEndian, &nameLen); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field name length"}
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(br, nameBytes); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field name"}
		}
		var offset uint16
		if err := binary.Read(br, binary.LittleEndian, &offset); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field offset"}
		}
		var typ uint8
		if err := binary.Read(br, binary.LittleEndian, &typ); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field type"}
		}
		var scale, foff float64
		if err := binary.Read(br, binary.LittleEndian, &scale); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field scale"}
		}
		if err := binary.Read(br, binary.LittleEndian, &foff); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated field offset constant"}
		}
		ft := mlgFieldType(typ)
		if ft.size() == 0 {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: fmt.Sprintf("unknown field type %d", typ)}
		}
		fields[i] = linkField{name: string(nameBytes), offset: offset, typ: ft, scale: scale, fOff: foff}
	}

	var stride uint32
	if err := binary.Read(br, binary.LittleEndian, &stride); err != nil {
		return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated record stride"}
	}
	var recordCount uint32
	if err := binary.Read(br, binary.LittleEndian, &recordCount); err != nil {
		return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated record count"}
	}

	for _, f := range fields {
		if int(f.offset)+f.typ.size() > int(stride) {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: fmt.Sprintf("field %s exceeds record stride", f.name)}
		}
	}

	timeIdx := -1
	channels := make([]logmodel.Channel, len(fields))
	builders := make([]*columnBuilder, len(fields))
	for i, f := range fields {
		canon := normalize.Canonicalize(f.name, opts.Overrides, opts.Registry, linkVendorName)
		channels[i] = logmodel.Channel{RawName: f.name, CanonicalName: canon, Kind: logmodel.KindNumeric}
		builders[i] = newColumnBuilder(opts.InitialColumnCapacity)
		if timeIdx < 0 && (canon == "Time" || f.name == "Time" || f.name == "time") {
			timeIdx = i
		}
	}
	if timeIdx < 0 {
		timeIdx = 0
	}

	record := make([]byte, stride)
	for row := 0; row < int(recordCount); row++ {
		if err := checkCancelled(ctx, row); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(br, record); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: fmt.Sprintf("truncated record %d", row)}
		}
		for i, f := range fields {
			raw, err := readMLGRaw(bytes.NewReader(record[f.offset:]), f.typ)
			if err != nil {
				return nil, &CorruptFormatError{Offset: br.pos, Detail: fmt.Sprintf("record %d field %s", row, f.name)}
			}
			builders[i].AppendNumber(raw*f.scale + f.fOff)
		}
	}

	return assembleLog(linkVendorName, timeIdx, channels, builders, nil)
}
