package downsample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLTTB_ReturnsVerbatimWhenWithinBudget(t *testing.T) {
	points := []Point{{T: 0, V: 1}, {T: 1, V: 2}, {T: 2, V: 3}}
	out := LTTB(points, 10)
	assert.Equal(t, points, out)
}

func TestLTTB_OutputLengthWithinBudget(t *testing.T) {
	n := 10000
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{T: float64(i) / float64(n), V: math.Sin(2 * math.Pi * float64(i) / 1000)}
	}
	out := LTTB(points, 100)
	require.Len(t, out, 100)
	assert.Equal(t, points[0].T, out[0].T)
	assert.Equal(t, points[0].V, out[0].V)
	assert.Equal(t, points[n-1].T, out[len(out)-1].T)
}

func TestLTTB_TimeOrderIsNonDecreasing(t *testing.T) {
	n := 5000
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{T: float64(i), V: math.Sin(float64(i))}
	}
	out := LTTB(points, 250)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i].T, out[i-1].T)
	}
}

func TestLTTB_IsDeterministic(t *testing.T) {
	n := 3000
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{T: float64(i), V: math.Cos(float64(i) / 37)}
	}
	a := LTTB(points, 150)
	b := LTTB(points, 150)
	assert.Equal(t, a, b)
}

func TestLTTB_AbsentPointsAreNeverCandidatesOrZero(t *testing.T) {
	n := 400
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		if i > 50 && i < 350 {
			points[i] = Point{T: float64(i), Absent: true}
			continue
		}
		points[i] = Point{T: float64(i), V: 1000} // large finite value
	}
	out := LTTB(points, 50)
	for _, p := range out {
		assert.False(t, p.Absent)
		assert.NotEqual(t, 0.0, p.V) // never silently substitutes zero for an absent bucket
	}
}

func TestLTTB_AllAbsentReturnsNil(t *testing.T) {
	points := make([]Point, 10)
	for i := range points {
		points[i] = Point{T: float64(i), Absent: true}
	}
	out := LTTB(points, 3)
	assert.Nil(t, out)
}

func TestLTTB_EmptyInputReturnsNil(t *testing.T) {
	assert.Nil(t, LTTB(nil, 10))
}

func TestLTTB_BudgetOfOneReturnsFirstFinitePoint(t *testing.T) {
	points := []Point{{T: 0, Absent: true}, {T: 1, V: 5}, {T: 2, V: 9}}
	out := LTTB(points, 1)
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].T)
}

func TestLTTB_BudgetOfTwoReturnsFirstAndLastFinite(t *testing.T) {
	points := []Point{{T: 0, V: 1}, {T: 1, V: 2}, {T: 2, V: 3}, {T: 3, V: 4}}
	out := LTTB(points, 2)
	require.Len(t, out, 2)
	assert.Equal(t, 0.0, out[0].T)
	assert.Equal(t, 3.0, out[1].T)
}
