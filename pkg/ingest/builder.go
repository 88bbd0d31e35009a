package ingest

import (
	"math"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

// columnBuilder accumulates one channel's cells with geometric growth, so a
// multi-hundred-megabyte log never pays for per-row reallocation.
type columnBuilder struct {
	cells       []logmodel.Cell
	observedMin float64
	observedMax float64
	observedSum float64
	hasObserved bool
	sampleCount int
	absentCount int
}

func newColumnBuilder(initialCapacity int) *columnBuilder {
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialColumnCapacity
	}
	return &columnBuilder{cells: make([]logmodel.Cell, 0, initialCapacity)}
}

func (b *columnBuilder) grow() {
	if cap(b.cells) == len(b.cells) {
		newCap := cap(b.cells) * 2
		if newCap == 0 {
			newCap = defaultInitialColumnCapacity
		}
		grown := make([]logmodel.Cell, len(b.cells), newCap)
		copy(grown, b.cells)
		b.cells = grown
	}
}

// AppendNumber appends a numeric sample, coercing NaN/Inf to absent per
// spec §3's invariant that stored numeric values are always finite.
func (b *columnBuilder) AppendNumber(v float64) {
	b.grow()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		b.AppendAbsent()
		return
	}
	b.cells = append(b.cells, logmodel.NumCell(v))
	if !b.hasObserved || v < b.observedMin {
		b.observedMin = v
	}
	if !b.hasObserved || v > b.observedMax {
		b.observedMax = v
	}
	b.hasObserved = true
	b.observedSum += v
	b.sampleCount++
}

// AppendEnum appends a categorical sample.
func (b *columnBuilder) AppendEnum(idx int) {
	b.grow()
	b.cells = append(b.cells, logmodel.EnumCell(idx))
	b.sampleCount++
}

// AppendAbsent appends an absent cell.
func (b *columnBuilder) AppendAbsent() {
	b.grow()
	b.cells = append(b.cells, logmodel.AbsentCell)
	b.absentCount++
}

// PadAbsentTo grows the column with absent cells until it has length n.
func (b *columnBuilder) PadAbsentTo(n int) {
	for len(b.cells) < n {
		b.AppendAbsent()
	}
}

func (b *columnBuilder) Len() int { return len(b.cells) }

func (b *columnBuilder) Metadata() logmodel.Metadata {
	m := logmodel.Metadata{
		SampleCount: b.sampleCount,
		AbsentCount: b.absentCount,
	}
	if b.hasObserved {
		m.ObservedMin = b.observedMin
		m.ObservedMax = b.observedMax
		m.HasObservedRange = true
		m.ObservedMean = b.observedSum / float64(b.sampleCount)
	}
	return m
}

func (b *columnBuilder) HasObservedRange() bool { return b.hasObserved }
