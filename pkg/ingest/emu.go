package ingest

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/ultralog/ultralog/pkg/logmodel"
	"github.com/ultralog/ultralog/pkg/normalize"
)

const emuVendorName = "EMU"

// EMUParser reads the "EMU-style CSV" format: a names row, a units row,
// then data rows, delimited by ';' or '\t'; a TIME column in seconds is
// required.
type EMUParser struct{}

func (p *EMUParser) Name() string { return emuVendorName }

func (p *EMUParser) Sniff(head []byte) bool {
	return containsField(head, "TIME")
}

func emuDetectDelimiter(line string) rune {
	if strings.Contains(line, ";") {
		return ';'
	}
	return '\t'
}

func (p *EMUParser) Parse(ctx context.Context, r ByteReaderAt, opts Options) (*logmodel.Log, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var names, units []string
	var delim rune
	var builders []*columnBuilder
	var channels []logmodel.Channel
	var warnings []logmodel.ParseWarning
	timeIdx := -1
	row := 0

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if names == nil {
			delim = emuDetectDelimiter(line)
			fields, err := splitCSVLine(line, delim)
			if err != nil {
				return nil, &UnsupportedFormatError{Detail: "malformed names row: " + err.Error()}
			}
			names = fields
			for i := range names {
				names[i] = strings.TrimSpace(names[i])
			}
			continue
		}
		if units == nil {
			fields, err := splitCSVLine(line, delim)
			if err != nil {
				return nil, &UnsupportedFormatError{Detail: "malformed units row: " + err.Error()}
			}
			units = fields
			for i := range units {
				units[i] = strings.TrimSpace(units[i])
			}
			for i, n := range names {
				canon := normalize.Canonicalize(n, opts.Overrides, opts.Registry, emuVendorName)
				channels = append(channels, logmodel.Channel{RawName: n, CanonicalName: canon, Kind: logmodel.KindNumeric})
				builders = append(builders, newColumnBuilder(opts.InitialColumnCapacity))
				if strings.EqualFold(n, "TIME") {
					timeIdx = i
				}
			}
			continue
		}

		if err := checkCancelled(ctx, row); err != nil {
			return nil, err
		}

		fields, err := splitCSVLine(line, delim)
		if err != nil {
			recordWarning(opts, &warnings, logmodel.ParseWarning{Row: row, Reason: "malformed row"})
			row++
			continue
		}
		if len(fields) != len(names) {
			recordWarning(opts, &warnings, logmodel.ParseWarning{Row: row, Reason: "field count mismatch"})
			row++
			continue
		}

		values := make([]float64, len(fields))
		rowOK := true
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				recordWarning(opts, &warnings, logmodel.ParseWarning{Row: row, Channel: names[i], Reason: "non-numeric cell"})
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
	if timeIdx < 0 {
		return nil, &UnsupportedFormatError{Detail: "no TIME column found"}
	}

	log, err := assembleLog(emuVendorName, timeIdx, channels, builders, warnings)
	if err != nil {
		return nil, err
	}
	applySourceUnits(log, timeIdx, units)
	return log, nil
}

// applySourceUnits stamps each output channel's declared unit (the EMU
// units row) onto its Metadata; timeIdx is skipped since the time column
// does not appear among Log.Channels.
func applySourceUnits(log *logmodel.Log, timeIdx int, units []string) {
	outIdx := 0
	for i := range units {
		if i == timeIdx {
			continue
		}
		if outIdx >= len(log.Metadata) {
			break
		}
		if u := strings.TrimSpace(units[i]); u != "" {
			log.Metadata[outIdx].SourceUnit = u
		}
		outIdx++
	}
}
