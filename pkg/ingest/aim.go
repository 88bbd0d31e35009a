package ingest

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"sort"

	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/normalize"
)

const aimVendorName = "AiM"

var aimMagic = []byte("XRK0")

type aimSample struct {
	t float64
	v float64
}

// AiMParser reads the AiM XRK/DRK container: a dictionary of channel
// names and sample counts, followed by each channel's own (timestamp,
// value) sample stream. Channels are not co-sampled; samples are merged
// onto a shared time base by union, leaving absent wherever a channel has
// no sample of its own at that instant.
type AiMParser struct{}

func (p *AiMParser) Name() string { return aimVendorName }

func (p *AiMParser) Sniff(head []byte) bool {
	return bytes.HasPrefix(head, aimMagic)
}

func (p *AiMParser) Parse(ctx context.Context, r ByteReaderAt, opts Options) (*logmodel.Log, error) {
	br := &offsetReader{r: r}

	magic := make([]byte, len(aimMagic))
	if _, err := io.ReadFull(br, magic); err != nil || !bytes.Equal(magic, aimMagic) {
		return nil, &UnsupportedFormatError{Detail: "AiM magic not present"}
	}

	var channelCount uint16
	if err := binary.Read(br, binary.LittleEndian, &channelCount); err != nil {
		return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated channel count"}
	}

	names := make([]string, channelCount)
	sampleCounts := make([]uint32, channelCount)
	for i := range names {
		var nameLen uint8
		if err := binary.Read(br, binary.LittleEndian, &nameLen); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated channel name length"}
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(br, nameBytes); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated channel name"}
		}
		var count uint32
		if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
			return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated channel sample count"}
		}
		names[i] = string(nameBytes)
		sampleCounts[i] = count
	}

	samples := make([][]aimSample, channelCount)
	seen := make(map[float64]bool)
	for i, n := range sampleCounts {
		chanSamples := make([]aimSample, n)
		for j := 0; j < int(n); j++ {
			if err := checkCancelled(ctx, j); err != nil {
				return nil, err
			}
			var ts, val float32
			if err := binary.Read(br, binary.LittleEndian, &ts); err != nil {
				return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated sample timestamp"}
			}
			if err := binary.Read(br, binary.LittleEndian, &val); err != nil {
				return nil, &CorruptFormatError{Offset: br.pos, Detail: "truncated sample value"}
			}
			chanSamples[j] = aimSample{t: float64(ts), v: float64(val)}
			seen[float64(ts)] = true
		}
		samples[i] = chanSamples
	}

	timeline := make([]float64, 0, len(seen))
	for t := range seen {
		timeline = append(timeline, t)
	}
	sort.Float64s(timeline)

	var t0 float64
	rebased := make([]float64, len(timeline))
	if len(timeline) > 0 {
		t0 = timeline[0]
	}
	for i, t := range timeline {
		rebased[i] = t - t0
	}

	channels := make([]logmodel.Channel, channelCount)
	values := make([][]logmodel.Cell, channelCount)
	metas := make([]logmodel.Metadata, channelCount)
	for i, n := range names {
		canon := normalize.Canonicalize(n, opts.Overrides, opts.Registry, aimVendorName)
		channels[i] = logmodel.Channel{RawName: n, CanonicalName: canon, Kind: logmodel.KindNumeric}

		byTime := make(map[float64]float64, len(samples[i]))
		for _, s := range samples[i] {
			byTime[s.t] = s.v
		}
		b := newColumnBuilder(len(timeline))
		for _, t := range timeline {
			if v, ok := byTime[t]; ok {
				b.AppendNumber(v)
			} else {
				b.AppendAbsent()
			}
		}
		values[i] = b.cells
		metas[i] = b.Metadata()
	}

	return &logmodel.Log{
		Time:         rebased,
		Channels:     channels,
		Values:       values,
		Metadata:     metas,
		SourceFormat: aimVendorName,
	}, nil
}
