// Package quad defines the quadruple (three-address code) IR shared by the
// Anchor IR producer, the optimizer and the code emitter.
// A quadruple is (op, arg1, arg2, result) with every field a textual token.
package quad

import (
	"strconv"
	"strings"
)

// Absent is the sentinel for an unused operand slot.
const Absent = "_"

// Opcodes understood by the optimizer and the emitter.
const (
	OpAssign = "="

	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"

	OpAnd = "&&"
	OpOr  = "||"

	OpLt = "<"
	OpGt = ">"
	OpEq = "=="
	OpNe = "!="
	OpGe = ">="
	OpLe = "<="

	OpLabel       = "LABEL"
	OpJump        = "JUMP"
	OpJumpF       = "JUMPF"
	OpJumpNZ      = "JUMPNZ"
	OpFuncBegin   = "FUNC_BEGIN"
	OpFuncEnd     = "FUNC_END"
	OpParam       = "PARAM"
	OpCall        = "CALL"
	OpReturn      = "RETURN"
	OpPrint       = "PRINT"
	OpDecArray    = "DEC_ARRAY"
	OpDecDynArray = "DEC_DYN_ARRAY"
	OpStoreAt     = "STORE_AT"
	OpLoadAt      = "LOAD_AT"
	OpGetParam    = "GET_PARAM"
	OpLoadMember  = "LOAD_MEMBER"
	OpStoreMember = "STORE_MEMBER"
)

// Quad is a single three-address instruction.
type Quad struct {
	Op     string
	Arg1   string
	Arg2   string
	Result string
}

// New creates a quadruple.
func New(op, arg1, arg2, result string) Quad {
	return Quad{Op: op, Arg1: arg1, Arg2: arg2, Result: result}
}

// String renders the quadruple as (op, arg1, arg2, result).
func (q Quad) String() string {
	return "(" + q.Op + ", " + q.Arg1 + ", " + q.Arg2 + ", " + q.Result + ")"
}

// IsExpression reports whether op builds a value from its operands
// without side effects.
func IsExpression(op string) bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpAnd, OpOr, OpLt, OpGt, OpEq, OpNe, OpGe, OpLe:
		return true
	}
	return false
}

// IsFoldable reports whether op is folded when both operands are numeric literals.
func IsFoldable(op string) bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// IsJump reports whether op transfers control to the label in Result.
func IsJump(op string) bool {
	return op == OpJump || op == OpJumpF || op == OpJumpNZ
}

// IsConditionalJump reports whether op may fall through to the next instruction
// as well as jump.
func IsConditionalJump(op string) bool {
	return op == OpJumpF || op == OpJumpNZ
}

// EndsFlow reports whether op leaves the function (no fall-through successor).
func EndsFlow(op string) bool {
	return op == OpReturn || op == OpFuncEnd
}

// IsControlTransfer reports whether op must stay the last instruction of its block.
func IsControlTransfer(op string) bool {
	return IsJump(op) || EndsFlow(op)
}

// IsNumeric reports whether s is a numeric literal.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	if body == "" || !(isDigit(body[0]) || body[0] == '.') {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// IsQuoted reports whether s is a string or character literal.
func IsQuoted(s string) bool {
	return s != "" && (s[0] == '"' || s[0] == '\'')
}

// IsLiteral reports whether s is a numeric, string or character literal.
func IsLiteral(s string) bool {
	return IsNumeric(s) || IsQuoted(s)
}

// IsVariable reports whether s names a variable or temporary.
func IsVariable(s string) bool {
	return s != "" && s != Absent && !IsLiteral(s)
}

// IsTemp reports whether s is a generated temporary (T followed by digits).
func IsTemp(s string) bool {
	_, ok := TempIndex(s)
	return ok
}

// TempIndex returns n for a temporary named T<n>.
func TempIndex(s string) (int, bool) {
	if len(s) < 2 || s[0] != 'T' {
		return 0, false
	}
	for i := 1; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxTemp returns the highest temporary index used anywhere in quads, or -1.
func MaxTemp(quads []Quad) int {
	max := -1
	for _, q := range quads {
		for _, s := range [...]string{q.Arg1, q.Arg2, q.Result} {
			if n, ok := TempIndex(s); ok && n > max {
				max = n
			}
		}
	}
	return max
}

// Unquote strips the quotes of a string or character literal.
func Unquote(s string) string {
	if len(s) >= 2 && IsQuoted(s) && s[len(s)-1] == s[0] {
		return strings.ReplaceAll(s[1:len(s)-1], `\`+s[:1], s[:1])
	}
	return s
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
