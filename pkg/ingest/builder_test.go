package ingest

import "testing"

func TestColumnBuilder_MetadataReportsRunningMean(t *testing.T) {
	b := newColumnBuilder(0)
	for _, v := range []float64{1, 2, 3, 4} {
		b.AppendNumber(v)
	}

	m := b.Metadata()
	if !m.HasObservedRange {
		t.Fatalf("expected HasObservedRange, got false")
	}
	if m.ObservedMean != 2.5 {
		t.Errorf("ObservedMean = %v, want 2.5", m.ObservedMean)
	}
	if m.SampleCount != 4 {
		t.Errorf("SampleCount = %v, want 4", m.SampleCount)
	}
}

func TestColumnBuilder_MetadataIgnoresAbsentInMean(t *testing.T) {
	b := newColumnBuilder(0)
	b.AppendNumber(10)
	b.AppendAbsent()
	b.AppendNumber(20)

	m := b.Metadata()
	if m.ObservedMean != 15 {
		t.Errorf("ObservedMean = %v, want 15", m.ObservedMean)
	}
	if m.AbsentCount != 1 {
		t.Errorf("AbsentCount = %v, want 1", m.AbsentCount)
	}
}
