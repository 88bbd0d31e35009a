package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

func constantSeries(n int, v float64) []logmodel.Cell {
	out := make([]logmodel.Cell, n)
	for i := range out {
		out[i] = logmodel.NumCell(v)
	}
	return out
}

// fixtureChannelLog builds a single-channel log named name holding values,
// with a time vector of equally spaced one-second samples.
func fixtureChannelLog(name string, values []float64) *logmodel.Log {
	cells := make([]logmodel.Cell, len(values))
	times := make([]float64, len(values))
	for i, v := range values {
		cells[i] = logmodel.NumCell(v)
		times[i] = float64(i)
	}
	return &logmodel.Log{
		Time:     times,
		Channels: []logmodel.Channel{{RawName: name, CanonicalName: name, Kind: logmodel.KindNumeric}},
		Values:   [][]logmodel.Cell{cells},
		Metadata: []logmodel.Metadata{{}},
	}
}

// fixtureTwoChannelLog builds a two-channel log named nameX/nameY.
func fixtureTwoChannelLog(nameX string, x []float64, nameY string, y []float64) *logmodel.Log {
	cellsX := make([]logmodel.Cell, len(x))
	cellsY := make([]logmodel.Cell, len(y))
	times := make([]float64, len(x))
	for i := range x {
		cellsX[i] = logmodel.NumCell(x[i])
		times[i] = float64(i)
	}
	for i := range y {
		cellsY[i] = logmodel.NumCell(y[i])
	}
	return &logmodel.Log{
		Time: times,
		Channels: []logmodel.Channel{
			{RawName: nameX, CanonicalName: nameX, Kind: logmodel.KindNumeric},
			{RawName: nameY, CanonicalName: nameY, Kind: logmodel.KindNumeric},
		},
		Values:   [][]logmodel.Cell{cellsX, cellsY},
		Metadata: []logmodel.Metadata{{}, {}},
	}
}

func TestRegistry_AvailableForFiltersByRequiredChannels(t *testing.T) {
	log := &logmodel.Log{
		Time:     []float64{0, 1, 2},
		Channels: []logmodel.Channel{{RawName: "RPM", CanonicalName: "RPM", Kind: logmodel.KindNumeric}},
		Values:   [][]logmodel.Cell{constantSeries(3, 1000)},
		Metadata: []logmodel.Metadata{{}},
	}

	r := NewDefaultRegistry()
	available := r.AvailableFor(log)

	var ids []string
	for _, info := range available {
		ids = append(ids, info.ID)
	}
	assert.Contains(t, ids, "moving_average")
	assert.NotContains(t, ids, "correlation") // needs RPM and MAP
}

func TestRegistry_FindByIDAndRun(t *testing.T) {
	log := &logmodel.Log{
		Time:     []float64{0, 1, 2, 3, 4},
		Channels: []logmodel.Channel{{RawName: "RPM", CanonicalName: "RPM", Kind: logmodel.KindNumeric}},
		Values:   [][]logmodel.Cell{{logmodel.NumCell(1), logmodel.NumCell(2), logmodel.NumCell(3), logmodel.NumCell(4), logmodel.NumCell(5)}},
		Metadata: []logmodel.Metadata{{}},
	}

	r := NewDefaultRegistry()
	_, ok := r.FindByID("moving_average")
	require.True(t, ok)

	result, err := r.Run("moving_average", log)
	require.NoError(t, err)
	assert.Len(t, result.Values, 5)
}

func TestRegistry_RunUnknownIDReturnsNotFoundError(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Run("nope", &logmodel.Log{})
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestChannelValues_CaseInsensitiveAndAbsentBecomesNaN(t *testing.T) {
	log := &logmodel.Log{
		Time:     []float64{0, 1},
		Channels: []logmodel.Channel{{RawName: "rpm", CanonicalName: "RPM", Kind: logmodel.KindNumeric}},
		Values:   [][]logmodel.Cell{{logmodel.NumCell(800), logmodel.AbsentCell}},
		Metadata: []logmodel.Metadata{{}},
	}

	values, ok := channelValues(log, "rpm")
	require.True(t, ok)
	require.Len(t, values, 2)
	assert.Equal(t, 800.0, values[0])
	assert.True(t, values[1] != values[1]) // NaN

	_, ok = channelValues(log, "missing")
	assert.False(t, ok)
}

func TestMissingChannelError_NamesTheChannel(t *testing.T) {
	log := &logmodel.Log{}
	_, err := requireChannel(log, "RPM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPM")
}
