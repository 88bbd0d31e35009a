package formula

// Expr is any node in a parsed formula's expression tree.
type Expr interface{}

// NumberLit is a literal numeric constant.
type NumberLit struct {
	Value float64
}

// RefExpr names a channel, with optional index and/or time offsets per the
// grammar's ref_offset production. When both are present the index offset
// selects a record first, and the time offset is then resolved relative
// to that record's own timestamp.
type RefExpr struct {
	Name          string
	HasIndex      bool
	Index         int
	HasTimeOffset bool
	TimeOffsetSec float64
}

// UnaryExpr is a prefix +/- applied to X.
type UnaryExpr struct {
	Op byte
	X  Expr
}

// BinaryExpr is a binary +, -, *, /, %, or ^ applied to X and Y.
type BinaryExpr struct {
	Op byte
	X  Expr
	Y  Expr
}

// CallExpr is a builtin function call.
type CallExpr struct {
	Func string
	Args []Expr
}
