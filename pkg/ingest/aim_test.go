package ingest

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAIMChannel(buf *bytes.Buffer, name string, count uint32) {
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	binary.Write(buf, binary.LittleEndian, count)
}

func buildAIMFixture() []byte {
	buf := &bytes.Buffer{}
	buf.Write(aimMagic)
	binary.Write(buf, binary.LittleEndian, uint16(2))
	writeAIMChannel(buf, "RPM", 2)
	writeAIMChannel(buf, "ThrottlePosition", 1)

	// RPM samples at t=0.0 and t=0.2
	binary.Write(buf, binary.LittleEndian, float32(0.0))
	binary.Write(buf, binary.LittleEndian, float32(1000))
	binary.Write(buf, binary.LittleEndian, float32(0.2))
	binary.Write(buf, binary.LittleEndian, float32(1500))

	// ThrottlePosition sample only at t=0.1
	binary.Write(buf, binary.LittleEndian, float32(0.1))
	binary.Write(buf, binary.LittleEndian, float32(50))

	return buf.Bytes()
}

func TestAiMParser_UnionMergeLeavesAbsentGaps(t *testing.T) {
	data := buildAIMFixture()
	r := bytes.NewReader(data)

	p := &AiMParser{}
	require.True(t, p.Sniff(data))

	log, err := p.Parse(context.Background(), r, Options{})
	require.NoError(t, err)
	require.NoError(t, log.Validate())

	assert.Equal(t, 3, log.RecordCount())
	assert.InDeltaSlice(t, []float64{0, 0.1, 0.2}, log.Time, 1e-6)

	rpmIdx := log.ChannelIndex(log.Channels[0].CanonicalName)
	require.GreaterOrEqual(t, rpmIdx, 0)
	assert.Equal(t, 1000.0, log.At(rpmIdx, 0).Num)
	assert.True(t, log.At(rpmIdx, 1).IsAbsent())
	assert.Equal(t, 1500.0, log.At(rpmIdx, 2).Num)

	tpsIdx := log.ChannelIndex(log.Channels[1].CanonicalName)
	require.GreaterOrEqual(t, tpsIdx, 0)
	assert.True(t, log.At(tpsIdx, 0).IsAbsent())
	assert.Equal(t, 50.0, log.At(tpsIdx, 1).Num)
	assert.True(t, log.At(tpsIdx, 2).IsAbsent())
}

func TestAiMParser_BadMagicIsUnsupported(t *testing.T) {
	data := []byte("nope")
	p := &AiMParser{}
	assert.False(t, p.Sniff(data))

	_, err := p.Parse(context.Background(), bytes.NewReader(data), Options{})
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}
