package ingest

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLinkField(buf *bytes.Buffer, name string, offset uint16, typ mlgFieldType, scale, fOff float64) {
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	binary.Write(buf, binary.LittleEndian, offset)
	buf.WriteByte(byte(typ))
	binary.Write(buf, binary.LittleEndian, scale)
	binary.Write(buf, binary.LittleEndian, fOff)
}

func buildLinkFixture() []byte {
	buf := &bytes.Buffer{}
	buf.Write(linkMagic)
	binary.Write(buf, binary.LittleEndian, uint16(2))
	writeLinkField(buf, "Time", 0, mlgFloat32, 1, 0)
	writeLinkField(buf, "MAP", 4, mlgUint16, 0.1, 0)
	binary.Write(buf, binary.LittleEndian, uint32(6)) // stride
	binary.Write(buf, binary.LittleEndian, uint32(2)) // record count

	binary.Write(buf, binary.LittleEndian, float32(0.0))
	binary.Write(buf, binary.LittleEndian, uint16(950))
	binary.Write(buf, binary.LittleEndian, float32(0.05))
	binary.Write(buf, binary.LittleEndian, uint16(1000))

	return buf.Bytes()
}

func TestLinkParser_FixedStrideRecords(t *testing.T) {
	data := buildLinkFixture()
	r := bytes.NewReader(data)

	p := &LinkParser{}
	require.True(t, p.Sniff(data))

	log, err := p.Parse(context.Background(), r, Options{})
	require.NoError(t, err)
	require.NoError(t, log.Validate())

	assert.InDeltaSlice(t, []float64{0, 0.05}, log.Time, 1e-6)
	assert.InDelta(t, 95.0, log.At(0, 0).Num, 1e-6)
	assert.InDelta(t, 100.0, log.At(0, 1).Num, 1e-6)
}

func TestLinkParser_OffsetBeyondStrideIsCorrupt(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.Write(linkMagic)
	binary.Write(buf, binary.LittleEndian, uint16(1))
	writeLinkField(buf, "MAP", 4, mlgUint16, 1, 0)
	binary.Write(buf, binary.LittleEndian, uint32(4)) // stride too small for a uint16 at offset 4
	binary.Write(buf, binary.LittleEndian, uint32(1))

	p := &LinkParser{}
	_, err := p.Parse(context.Background(), bytes.NewReader(buf.Bytes()), Options{})
	var corrupt *CorruptFormatError
	require.ErrorAs(t, err, &corrupt)
}
