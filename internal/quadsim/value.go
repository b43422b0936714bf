package quadsim

import (
	"math"
	"strconv"

	"github.com/anchor-lang/anchorc/pkg/quad"
)

type kind int

const (
	kindUnset kind = iota
	kindInt
	kindFloat
	kindString
)

// Value is a runtime value: an integer, a float or a string.
type Value struct {
	k kind
	i int64
	f float64
	s string
}

// Int returns an integer value.
func Int(n int64) Value { return Value{k: kindInt, i: n} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{k: kindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{k: kindString, s: s} }

// IsSet reports whether v was ever assigned.
func (v Value) IsSet() bool { return v.k != kindUnset }

func (v Value) float() float64 {
	if v.k == kindInt {
		return float64(v.i)
	}
	return v.f
}

func (v Value) truthy() bool {
	switch v.k {
	case kindInt:
		return v.i != 0
	case kindFloat:
		return v.f != 0
	case kindString:
		return v.s != ""
	}
	return false
}

// String formats v the way PRINT shows it.
func (v Value) String() string {
	switch v.k {
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindFloat:
		return strconv.FormatFloat(v.f, 'g', 6, 64)
	case kindString:
		return v.s
	}
	return "<unset>"
}

// literal parses a literal operand.
func literal(s string) (Value, bool) {
	if quad.IsQuoted(s) {
		return String(quad.Unquote(s)), true
	}
	if !quad.IsNumeric(s) {
		return Value{}, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return Value{}, false
	}
	return Float(f), true
}

func boolValue(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// binary applies an expression opcode.
func binary(op string, a, b Value) (Value, error) {
	switch op {
	case quad.OpAnd:
		return boolValue(a.truthy() && b.truthy()), nil
	case quad.OpOr:
		return boolValue(a.truthy() || b.truthy()), nil
	}

	if a.k == kindString || b.k == kindString {
		if a.k != b.k {
			return Value{}, ErrType
		}
		switch op {
		case quad.OpEq:
			return boolValue(a.s == b.s), nil
		case quad.OpNe:
			return boolValue(a.s != b.s), nil
		case quad.OpAdd:
			return String(a.s + b.s), nil
		}
		return Value{}, ErrType
	}

	if a.k == kindInt && b.k == kindInt {
		x, y := a.i, b.i
		switch op {
		case quad.OpAdd:
			return Int(x + y), nil
		case quad.OpSub:
			return Int(x - y), nil
		case quad.OpMul:
			return Int(x * y), nil
		case quad.OpDiv:
			if y == 0 {
				return Value{}, ErrDivideByZero
			}
			return Int(x / y), nil
		}
	}

	x, y := a.float(), b.float()
	switch op {
	case quad.OpAdd:
		return Float(x + y), nil
	case quad.OpSub:
		return Float(x - y), nil
	case quad.OpMul:
		return Float(x * y), nil
	case quad.OpDiv:
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		return Float(x / y), nil
	case quad.OpLt:
		return boolValue(x < y), nil
	case quad.OpGt:
		return boolValue(x > y), nil
	case quad.OpLe:
		return boolValue(x <= y), nil
	case quad.OpGe:
		return boolValue(x >= y), nil
	case quad.OpEq:
		return boolValue(x == y), nil
	case quad.OpNe:
		return boolValue(x != y), nil
	}
	return Value{}, ErrUnknownOp
}

func negate(a Value) (Value, error) {
	switch a.k {
	case kindInt:
		return Int(-a.i), nil
	case kindFloat:
		return Float(-a.f), nil
	}
	return Value{}, ErrType
}
