package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_LinearCategories(t *testing.T) {
	cases := []struct {
		cat     Category
		a, b    Unit
		samples []float64
	}{
		{Temperature, "kelvin", "fahrenheit", []float64{0, 100, -40, 300}},
		{Pressure, "kpa", "psi", []float64{0, 101.3, 500}},
		{Pressure, "psi", "bar", []float64{0, 14.5, 87}},
		{Speed, "kmh", "mph", []float64{0, 100, 320}},
		{Distance, "km", "miles", []float64{0, 42, 1000}},
		{Volume, "liters", "gallons", []float64{0, 10, 60}},
		{FlowRate, "lpm", "gpm", []float64{0, 2.5, 30}},
		{Acceleration, "mps2", "g", []float64{0, 9.8, 30}},
	}
	for _, c := range cases {
		for _, x := range c.samples {
			canon, err := ToCanonical(c.cat, c.a, x)
			require.NoError(t, err)
			back, err := FromCanonical(c.cat, c.a, canon)
			require.NoError(t, err)
			assert.InEpsilonf(t, x+1, back+1, 1e-9, "%s %s round trip", c.cat, c.a)

			converted, err := Convert(c.cat, c.a, c.b, x)
			require.NoError(t, err)
			roundtrip, err := Convert(c.cat, c.b, c.a, converted)
			require.NoError(t, err)
			assert.InEpsilonf(t, x+1, roundtrip+1, 1e-9, "%s %s<->%s round trip", c.cat, c.a, c.b)
		}
	}
}

func TestReciprocalPair_ExactForNonZero(t *testing.T) {
	assert.True(t, IsReciprocalPair(FuelEconomy))

	for _, mpg := range []float64{10, 25, 60} {
		l100km, err := ToCanonical(FuelEconomy, "mpg", mpg)
		require.NoError(t, err)
		back, err := FromCanonical(FuelEconomy, "mpg", l100km)
		require.NoError(t, err)
		assert.InEpsilon(t, mpg, back, 1e-9)
	}
}

func TestReciprocalPair_ZeroIsUndefined(t *testing.T) {
	_, err := ToCanonical(FuelEconomy, "mpg", 0)
	assert.Error(t, err)

	_, err = FromCanonical(FuelEconomy, "mpg", 0)
	assert.Error(t, err)
}

func TestKnownFixedPoints(t *testing.T) {
	c, err := FromCanonical(Temperature, "kelvin", 0)
	require.NoError(t, err)
	assert.InDelta(t, 273.15, c, 1e-9)

	f, err := FromCanonical(Temperature, "fahrenheit", 100)
	require.NoError(t, err)
	assert.InDelta(t, 212, f, 1e-9)

	mph, err := FromCanonical(Speed, "mph", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, mph, 1e-9)
}

func TestUnknownCategoryAndUnit(t *testing.T) {
	_, err := Canonical(Category("bogus"))
	require.ErrorIs(t, err, ErrUnknownCategory)

	_, err = FromCanonical(Temperature, Unit("bogus"), 1)
	require.ErrorIs(t, err, ErrUnknownUnit)
}

func TestConvertSameUnitIsIdentity(t *testing.T) {
	v, err := Convert(Pressure, "psi", "psi", math.Pi)
	require.NoError(t, err)
	assert.Equal(t, math.Pi, v)
}
