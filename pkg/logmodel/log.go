// Package logmodel defines the uniform in-memory representation every
// parser in pkg/ingest produces: a Log is immutable after parsing, shared
// by reference, and requires no synchronization once built.
package logmodel

import (
	"fmt"
	"math"
)

// Channel describes one column of a Log.
type Channel struct {
	RawName       string
	CanonicalName string
	Kind          Kind
	// EnumValues holds the tag table for KindText/KindBoolean channels;
	// Cell.Enum indexes into it.
	EnumValues []string
}

// Metadata holds per-channel optional attributes discovered while parsing.
// It is separate from the registry's ChannelSpec: this is what the source
// file itself declared (or the parser measured), the registry is what the
// vendor bundle declares.
type Metadata struct {
	SourceUnit       string
	SourceMin        *float64
	SourceMax        *float64
	Precision        *int
	VendorTag        string
	ObservedMin      float64
	ObservedMax      float64
	ObservedMean     float64
	HasObservedRange bool
	SampleCount      int
	AbsentCount      int
}

// ObservedRange reports the min/max of finite samples seen for this
// channel, if any were seen.
func (m Metadata) ObservedRange() (min, max float64, ok bool) {
	return m.ObservedMin, m.ObservedMax, m.HasObservedRange
}

// ParseWarning records a non-fatal row-level problem encountered while
// parsing, per spec §7's propagation policy: per-row failures are counted
// and logged, never abort the load.
type ParseWarning struct {
	Row     int
	Channel string
	Reason  string
}

// Log is the uniform, immutable-after-parse artifact every parser produces.
type Log struct {
	Time          []float64
	Channels      []Channel
	Values        [][]Cell // column-major: Values[channel][record]
	Metadata      []Metadata
	Fingerprint   string
	SourceFormat  string
	ParseWarnings []ParseWarning
}

// RecordCount returns R, the number of records (rows).
func (l *Log) RecordCount() int {
	return len(l.Time)
}

// ChannelCount returns C, the number of channels.
func (l *Log) ChannelCount() int {
	return len(l.Channels)
}

// ChannelIndex returns the dense index of the channel with the given
// canonical name, or -1 if no channel has that canonical name.
func (l *Log) ChannelIndex(canonicalName string) int {
	for i, ch := range l.Channels {
		if ch.CanonicalName == canonicalName {
			return i
		}
	}
	return -1
}

// At returns the cell for channel ch at record i, or AbsentCell if either
// index is out of bounds.
func (l *Log) At(ch, i int) Cell {
	if ch < 0 || ch >= len(l.Values) {
		return AbsentCell
	}
	col := l.Values[ch]
	if i < 0 || i >= len(col) {
		return AbsentCell
	}
	return col[i]
}

// Validate checks the invariants spec §3 requires of every Log: time is
// non-decreasing and starts at zero, channel indices are dense, and every
// numeric cell is finite.
func (l *Log) Validate() error {
	if len(l.Time) > 0 && l.Time[0] != 0 {
		return fmt.Errorf("logmodel: first timestamp must be zero, got %g", l.Time[0])
	}
	for i := 1; i < len(l.Time); i++ {
		if l.Time[i] < l.Time[i-1] {
			return fmt.Errorf("logmodel: time is not non-decreasing at record %d (%g < %g)", i, l.Time[i], l.Time[i-1])
		}
	}
	if len(l.Values) != len(l.Channels) {
		return fmt.Errorf("logmodel: %d channels but %d value columns", len(l.Channels), len(l.Values))
	}
	for ci, col := range l.Values {
		if len(col) != len(l.Time) {
			return fmt.Errorf("logmodel: channel %d has %d records, expected %d", ci, len(col), len(l.Time))
		}
		if l.Channels[ci].Kind != KindNumeric {
			continue
		}
		for ri, cell := range col {
			if cell.Tag == Number && !isFinite(cell.Num) {
				return fmt.Errorf("logmodel: channel %d record %d holds a non-finite numeric value", ci, ri)
			}
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
