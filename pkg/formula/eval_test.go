package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

func fixtureLog() *logmodel.Log {
	return &logmodel.Log{
		Time: []float64{0, 0.1, 0.2, 0.3},
		Channels: []logmodel.Channel{
			{RawName: "RPM", CanonicalName: "RPM", Kind: logmodel.KindNumeric},
			{RawName: "MAP", CanonicalName: "MAP", Kind: logmodel.KindNumeric},
		},
		Values: [][]logmodel.Cell{
			{logmodel.NumCell(1000), logmodel.NumCell(1100), logmodel.AbsentCell, logmodel.NumCell(1300)},
			{logmodel.NumCell(90), logmodel.NumCell(95), logmodel.NumCell(100), logmodel.NumCell(105)},
		},
		Metadata: []logmodel.Metadata{{}, {}},
	}
}

func TestEvaluateRow_BasicArithmetic(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("RPM + MAP")
	require.NoError(t, err)

	v, ok := EvaluateRow(expr, log, cols, 0)
	require.True(t, ok)
	assert.Equal(t, 1090.0, v)
}

func TestEvaluateRow_AbsentOperandPropagates(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("RPM + MAP")
	require.NoError(t, err)

	_, ok := EvaluateRow(expr, log, cols, 2)
	assert.False(t, ok)
}

func TestEvaluateRow_IndexOffsetOutOfBoundsIsAbsent(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("RPM[-1]")
	require.NoError(t, err)

	_, ok := EvaluateRow(expr, log, cols, 0)
	assert.False(t, ok)
}

func TestEvaluateRow_IndexOffsetInBounds(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("RPM[1]")
	require.NoError(t, err)

	v, ok := EvaluateRow(expr, log, cols, 0)
	require.True(t, ok)
	assert.Equal(t, 1100.0, v)
}

func TestEvaluateRow_TimeOffsetResolvesByBinarySearch(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("MAP@0.15s")
	require.NoError(t, err)

	v, ok := EvaluateRow(expr, log, cols, 0)
	require.True(t, ok)
	assert.Equal(t, 95.0, v) // t=0.15 -> greatest record <= 0.15 is t=0.1 (MAP=95)
}

func TestEvaluateRow_TimeOffsetBeforeStartIsAbsent(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("MAP@-1s")
	require.NoError(t, err)

	_, ok := EvaluateRow(expr, log, cols, 0)
	assert.False(t, ok)
}

func TestEvaluateRow_TimeOffsetAfterEndIsAbsent(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("MAP@5s")
	require.NoError(t, err)

	_, ok := EvaluateRow(expr, log, cols, 0)
	assert.False(t, ok)
}

func TestEvaluateRow_DivisionByZeroIsAbsent(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("RPM / (MAP - MAP)")
	require.NoError(t, err)

	_, ok := EvaluateRow(expr, log, cols, 0)
	assert.False(t, ok)
}

func TestEvaluateRow_LnOfNegativeIsAbsent(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("ln(0 - RPM)")
	require.NoError(t, err)

	_, ok := EvaluateRow(expr, log, cols, 0)
	assert.False(t, ok)
}

func TestEvaluateRow_UnresolvedReferenceIsAbsent(t *testing.T) {
	log := fixtureLog()
	cols := NewColumnIndex(log)
	expr, err := Parse("NoSuchChannel + 1")
	require.NoError(t, err)

	_, ok := EvaluateRow(expr, log, cols, 0)
	assert.False(t, ok)
}

func TestEvaluateColumn_OnePassOverAllRecords(t *testing.T) {
	log := fixtureLog()
	expr, err := Parse("RPM + MAP")
	require.NoError(t, err)

	out := EvaluateColumn(expr, log)
	require.Len(t, out, 4)
	assert.Equal(t, 1090.0, out[0].Num)
	assert.True(t, out[2].IsAbsent())
	assert.Equal(t, 1405.0, out[3].Num)
}
