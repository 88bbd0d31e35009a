package ingest

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/normalize"
)

const romRaiderVendorName = "RomRaider"
const romRaiderTimeHeader = "Time (msec)"

// RomRaiderParser reads RomRaider ECU Logger CSV exports: comma-delimited,
// first column header "Time (msec)", millisecond integers that are divided
// by 1000 before the usual zero-rebase.
type RomRaiderParser struct{}

func (p *RomRaiderParser) Name() string { return romRaiderVendorName }

func (p *RomRaiderParser) Sniff(head []byte) bool {
	return containsLinePrefix(head, romRaiderTimeHeader)
}

func (p *RomRaiderParser) Parse(ctx context.Context, r ByteReaderAt, opts Options) (*logmodel.Log, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var header []string
	var builders []*columnBuilder
	var channels []logmodel.Channel
	var warnings []logmodel.ParseWarning
	timeIdx := -1
	row := 0

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if header == nil {
			fields, err := splitCSVLine(trimmed, ',')
			if err != nil {
				return nil, &UnsupportedFormatError{Detail: "malformed header row: " + err.Error()}
			}
			header = fields
			for i, h := range header {
				h = strings.TrimSpace(h)
				canon := normalize.Canonicalize(h, opts.Overrides, opts.Registry, romRaiderVendorName)
				channels = append(channels, logmodel.Channel{RawName: h, CanonicalName: canon, Kind: logmodel.KindNumeric})
				builders = append(builders, newColumnBuilder(opts.InitialColumnCapacity))
				if strings.EqualFold(h, romRaiderTimeHeader) {
					timeIdx = i
				}
			}
			if timeIdx != 0 {
				return nil, &UnsupportedFormatError{Detail: "Time (msec) must be the first column"}
			}
			continue
		}

		if err := checkCancelled(ctx, row); err != nil {
			return nil, err
		}

		fields, err := splitCSVLine(trimmed, ',')
		if err != nil {
			recordWarning(opts, &warnings, logmodel.ParseWarning{Row: row, Reason: "malformed row"})
			row++
			continue
		}
		if len(fields) != len(header) {
			recordWarning(opts, &warnings, logmodel.ParseWarning{Row: row, Reason: "field count mismatch"})
			row++
			continue
		}

		rowOK := true
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				recordWarning(opts, &warnings, logmodel.ParseWarning{Row: row, Channel: channels[i].RawName, Reason: "non-numeric cell"})
				rowOK = false
				break
			}
			if i == timeIdx {
				v = v / 1000.0
			}
			values[i] = v
		}
		if !rowOK {
			row++
			continue
		}
		for i, v := range values {
			builders[i].AppendNumber(v)
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if timeIdx < 0 {
		return nil, &UnsupportedFormatError{Detail: "no Time (msec) column found"}
	}

	return assembleLog(romRaiderVendorName, timeIdx, channels, builders, warnings)
}
