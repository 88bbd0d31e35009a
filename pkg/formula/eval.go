package formula

import (
	"math"
	"sort"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

// ColumnIndex maps a canonical channel name to its column index among a
// log's value columns, built once per evaluation pass.
type ColumnIndex map[string]int

// NewColumnIndex builds a ColumnIndex over every channel log carries,
// keyed by canonical name.
func NewColumnIndex(log *logmodel.Log) ColumnIndex {
	idx := make(ColumnIndex, log.ChannelCount())
	for i, ch := range log.Channels {
		idx[ch.CanonicalName] = i
	}
	return idx
}

// EvaluateRow evaluates expr at record row of log, returning (value,
// true) or (0, false) if the result is absent: an out-of-bounds offset,
// an unresolved reference, a categorical operand, or an arithmetic domain
// error.
func EvaluateRow(expr Expr, log *logmodel.Log, cols ColumnIndex, row int) (float64, bool) {
	switch n := expr.(type) {
	case *NumberLit:
		return n.Value, true

	case *RefExpr:
		return evalRef(n, log, cols, row)

	case *UnaryExpr:
		v, ok := EvaluateRow(n.X, log, cols, row)
		if !ok {
			return 0, false
		}
		if n.Op == '-' {
			return -v, true
		}
		return v, true

	case *BinaryExpr:
		x, ok := EvaluateRow(n.X, log, cols, row)
		if !ok {
			return 0, false
		}
		y, ok := EvaluateRow(n.Y, log, cols, row)
		if !ok {
			return 0, false
		}
		return evalBinary(n.Op, x, y)

	case *CallExpr:
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, ok := EvaluateRow(a, log, cols, row)
			if !ok {
				return 0, false
			}
			args[i] = v
		}
		return callBuiltin(n.Func, args)

	default:
		return 0, false
	}
}

func evalRef(n *RefExpr, log *logmodel.Log, cols ColumnIndex, row int) (float64, bool) {
	colIdx, ok := cols[n.Name]
	if !ok {
		return 0, false
	}

	target := row
	if n.HasIndex {
		target += n.Index
	}
	if target < 0 || target >= log.RecordCount() {
		return 0, false
	}

	if n.HasTimeOffset {
		t := log.Time[target] + n.TimeOffsetSec
		resolved, ok := resolveTimeIndex(log.Time, t)
		if !ok {
			return 0, false
		}
		target = resolved
	}

	cell := log.At(colIdx, target)
	if cell.IsAbsent() || cell.Tag == logmodel.Categorical {
		return 0, false
	}
	return cell.Num, true
}

// resolveTimeIndex finds the greatest index whose timestamp is <= target,
// per spec: out of range in either direction (before the first record or
// after the last) is absent, never extrapolated.
func resolveTimeIndex(time []float64, target float64) (int, bool) {
	if len(time) == 0 || target < time[0] || target > time[len(time)-1] {
		return 0, false
	}
	i := sort.Search(len(time), func(i int) bool { return time[i] > target })
	return i - 1, true
}

func evalBinary(op byte, x, y float64) (float64, bool) {
	switch op {
	case '+':
		return x + y, true
	case '-':
		return x - y, true
	case '*':
		return x * y, true
	case '/':
		if y == 0 {
			return 0, false
		}
		return x / y, true
	case '%':
		if y == 0 {
			return 0, false
		}
		return math.Mod(x, y), true
	case '^':
		return boundedResult(math.Pow(x, y))
	default:
		return 0, false
	}
}

// EvaluateColumn evaluates expr over every record of log, producing one
// Cell per record. This is O(R) for an offset-free formula and O(R log R)
// worst case when a time offset forces a binary search per row.
func EvaluateColumn(expr Expr, log *logmodel.Log) []logmodel.Cell {
	cols := NewColumnIndex(log)
	out := make([]logmodel.Cell, log.RecordCount())
	for i := range out {
		if v, ok := EvaluateRow(expr, log, cols, i); ok {
			out[i] = logmodel.NumCell(v)
		} else {
			out[i] = logmodel.AbsentCell
		}
	}
	return out
}
