package dag

import (
	"math"
	"math/big"
	"strconv"

	"github.com/anchor-lang/anchorc/pkg/quad"
)

// Fold evaluates op on numeric literals a and b and returns the result as
// a literal. b is quad.Absent for unary minus. Integer operands use exact
// integer arithmetic with truncating division; anything else is computed
// in float64 and printed with six significant digits. Division by zero
// and results that do not fit are not folded.
func Fold(op, a, b string) (string, bool) {
	if !quad.IsFoldable(op) || !quad.IsNumeric(a) {
		return "", false
	}
	if b == quad.Absent {
		if op != quad.OpSub {
			return "", false
		}
		return negate(a)
	}
	if !quad.IsNumeric(b) {
		return "", false
	}

	x, xok := parseInt(a)
	y, yok := parseInt(b)
	if xok && yok {
		return foldInt(op, x, y)
	}
	return foldFloat(op, a, b)
}

func parseInt(s string) (*big.Int, bool) {
	n, ok := new(big.Int).SetString(s, 10)
	return n, ok
}

func foldInt(op string, x, y *big.Int) (string, bool) {
	r := new(big.Int)
	switch op {
	case quad.OpAdd:
		r.Add(x, y)
	case quad.OpSub:
		r.Sub(x, y)
	case quad.OpMul:
		r.Mul(x, y)
	case quad.OpDiv:
		if y.Sign() == 0 {
			return "", false
		}
		r.Quo(x, y) // truncates toward zero
	}
	if !r.IsInt64() {
		return "", false
	}
	return r.String(), true
}

func foldFloat(op, a, b string) (string, bool) {
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return "", false
	}
	y, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return "", false
	}

	var r float64
	switch op {
	case quad.OpAdd:
		r = x + y
	case quad.OpSub:
		r = x - y
	case quad.OpMul:
		r = x * y
	case quad.OpDiv:
		if y == 0 {
			return "", false
		}
		r = x / y
	}
	return formatFloat(r)
}

func negate(a string) (string, bool) {
	if x, ok := parseInt(a); ok {
		r := new(big.Int).Neg(x)
		if !r.IsInt64() {
			return "", false
		}
		return r.String(), true
	}
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return "", false
	}
	return formatFloat(-x)
}

func formatFloat(r float64) (string, bool) {
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return "", false
	}
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'g', 6, 64), true
}
