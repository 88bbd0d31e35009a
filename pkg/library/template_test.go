package library

import "testing"

func TestComputedChannel_InvalidatedDefaultsFalse(t *testing.T) {
	cc := &ComputedChannel{Name: "Load"}
	if cc.Invalidated() {
		t.Fatalf("new ComputedChannel reported invalidated before Invalidate was called")
	}
}

func TestComputedChannel_InvalidateIsObservable(t *testing.T) {
	cc := &ComputedChannel{Name: "Load"}
	cc.Invalidate()
	if !cc.Invalidated() {
		t.Fatalf("Invalidated() returned false after Invalidate()")
	}
}
