package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/normalize"
)

const nspHeaderSentinel = "%DataLog%"
const nspVendorName = "NSP"

// NSPParser reads the "NSP-style CSV" format: a sentinel header line
// ("%DataLog%") precedes a column-name row; the first column is a decimal
// seconds timestamp.
type NSPParser struct{}

func (p *NSPParser) Name() string { return nspVendorName }

func (p *NSPParser) Sniff(head []byte) bool {
	return containsLinePrefix(head, nspHeaderSentinel)
}

func (p *NSPParser) Parse(ctx context.Context, r ByteReaderAt, opts Options) (*logmodel.Log, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var sawSentinel bool
	var header []string
	var warnings []logmodel.ParseWarning
	var builders []*columnBuilder
	var channels []logmodel.Channel
	var timeIdx = -1
	row := 0

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !sawSentinel {
			if trimmed == nspHeaderSentinel {
				sawSentinel = true
			}
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
				canon := normalize.Canonicalize(h, opts.Overrides, opts.Registry, nspVendorName)
				channels = append(channels, logmodel.Channel{RawName: h, CanonicalName: canon, Kind: logmodel.KindNumeric})
				builders = append(builders, newColumnBuilder(opts.InitialColumnCapacity))
				if i == 0 {
					timeIdx = 0
				}
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
	if !sawSentinel || timeIdx < 0 {
		return nil, &UnsupportedFormatError{Detail: "no %DataLog% sentinel found"}
	}

	return assembleLog(nspVendorName, timeIdx, channels, builders, warnings)
}

// assembleLog rebases time to zero and packages per-column builders into a
// Log, shared by every text parser.
func assembleLog(format string, timeIdx int, channels []logmodel.Channel, builders []*columnBuilder, warnings []logmodel.ParseWarning) (*logmodel.Log, error) {
	n := 0
	if len(builders) > 0 {
		n = builders[timeIdx].Len()
	}
	time := make([]float64, n)
	var t0 float64
	if n > 0 {
		t0 = builders[timeIdx].cells[0].Num
	}
	for i := 0; i < n; i++ {
		time[i] = builders[timeIdx].cells[i].Num - t0
	}

	values := make([][]logmodel.Cell, 0, len(builders)-1)
	meta := make([]logmodel.Metadata, 0, len(builders)-1)
	outChannels := make([]logmodel.Channel, 0, len(builders)-1)
	for i, b := range builders {
		if i == timeIdx {
			continue
		}
		values = append(values, b.cells)
		meta = append(meta, b.Metadata())
		outChannels = append(outChannels, channels[i])
	}

	log := &logmodel.Log{
		Time:          time,
		Channels:      outChannels,
		Values:        values,
		Metadata:      meta,
		SourceFormat:  format,
		ParseWarnings: warnings,
	}
	return log, nil
}

// splitCSVLine splits one delimited line respecting quoting, shared by
// every text parser so an embedded delimiter inside a quoted field never
// desynchronizes column counts.
func splitCSVLine(line string, delim rune) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = delim
	cr.LazyQuotes = true
	return cr.Read()
}
