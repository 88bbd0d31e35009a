package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovingAverage_GrowsWindowThenSlides(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	out := movingAverage(data, 3)

	assert.InDelta(t, 1.0, out[0], 1e-9)       // window: [1]
	assert.InDelta(t, 1.5, out[1], 1e-9)       // window: [1,2]
	assert.InDelta(t, 2.0, out[2], 1e-9)       // window: [1,2,3]
	assert.InDelta(t, 3.0, out[3], 1e-9)       // window: [2,3,4]
	assert.InDelta(t, 4.0, out[4], 1e-9)       // window: [3,4,5]
}

func TestExponentialMovingAverage_SeedsFromFirstValue(t *testing.T) {
	data := []float64{10, 10, 10}
	out := exponentialMovingAverage(data, 0.5)

	for _, v := range out {
		assert.InDelta(t, 10.0, v, 1e-9)
	}
}

func TestMedianFilter_RemovesASingleSpike(t *testing.T) {
	data := []float64{1, 1, 100, 1, 1}
	out := medianFilter(data, 3)

	assert.InDelta(t, 1.0, out[2], 1e-9)
}

func TestMedianFilterAnalyzer_AdjustsEvenWindowAndWarns(t *testing.T) {
	a := NewMedianFilterAnalyzer()
	a.WindowSize = 4

	log := fixtureChannelLog("RPM", []float64{1, 2, 3, 4, 5, 6})
	result, err := a.Analyze(log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Contains(t, result.Meta.Warnings[0], "adjusted from 4 to 5")
}
