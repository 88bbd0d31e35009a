package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OperatorPrecedence(t *testing.T) {
	expr, err := Parse("2 + 3 * 4 ^ 2")
	require.NoError(t, err)

	bin, ok := expr.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, byte('+'), bin.Op)

	rhs, ok := bin.Y.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, byte('*'), rhs.Op)
}

func TestParse_RightAssociativePower(t *testing.T) {
	expr, err := Parse("2 ^ 3 ^ 2")
	require.NoError(t, err)

	bin, ok := expr.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, byte('^'), bin.Op)

	inner, ok := bin.Y.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, byte('^'), inner.Op)
}

func TestParse_RefWithIndexAndTimeOffset(t *testing.T) {
	expr, err := Parse(`RPM[-1]@1.5s`)
	require.NoError(t, err)

	ref, ok := expr.(*RefExpr)
	require.True(t, ok)
	assert.Equal(t, "RPM", ref.Name)
	assert.True(t, ref.HasIndex)
	assert.Equal(t, -1, ref.Index)
	assert.True(t, ref.HasTimeOffset)
	assert.InDelta(t, 1.5, ref.TimeOffsetSec, 1e-9)
}

func TestParse_MillisecondTimeOffsetConvertsToSeconds(t *testing.T) {
	expr, err := Parse(`RPM@250ms`)
	require.NoError(t, err)

	ref := expr.(*RefExpr)
	assert.InDelta(t, 0.25, ref.TimeOffsetSec, 1e-9)
}

func TestParse_QuotedIdentWithSpaces(t *testing.T) {
	expr, err := Parse(`"Engine Speed (rpm)" * 2`)
	require.NoError(t, err)

	bin := expr.(*BinaryExpr)
	ref := bin.X.(*RefExpr)
	assert.Equal(t, "Engine Speed (rpm)", ref.Name)
}

func TestParse_FunctionCall(t *testing.T) {
	expr, err := Parse("sqrt(AFR)")
	require.NoError(t, err)

	call, ok := expr.(*CallExpr)
	require.True(t, ok)
	assert.Equal(t, "sqrt", call.Func)
	assert.Len(t, call.Args, 1)
}

func TestParse_UnknownFunctionIsParseError(t *testing.T) {
	_, err := Parse("frobnicate(RPM)")
	var parseErr *FormulaParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParse_UnbalancedParenIsParseError(t *testing.T) {
	_, err := Parse("(RPM + 1")
	var parseErr *FormulaParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestExtractRefs_DeduplicatesAndPreservesOrder(t *testing.T) {
	expr, err := Parse("RPM + MAP - RPM * 2")
	require.NoError(t, err)
	assert.Equal(t, []string{"RPM", "MAP"}, ExtractRefs(expr))
}
