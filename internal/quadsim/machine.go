// Package quadsim interprets quadruple programs. It is the reference the
// optimizer's output is checked against: an optimized program must print
// the same lines and leave the same globals as its input.
package quadsim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/anchor-lang/anchorc/pkg/quad"
)

var (
	ErrStepLimit    = errors.New("step limit exceeded")
	ErrDivideByZero = errors.New("division by zero")
	ErrUndefined    = errors.New("read of unassigned variable")
	ErrType         = errors.New("operand type mismatch")
	ErrUnknownOp    = errors.New("unknown opcode")
	ErrBadProgram   = errors.New("malformed program")
)

// DefaultMaxSteps bounds a run when Options.MaxSteps is zero.
const DefaultMaxSteps = 1_000_000

// Options configures a run.
type Options struct {
	Globals  []string
	Entry    string // function called after top-level code; "main" if empty
	MaxSteps int
}

// Output is what a run observably did.
type Output struct {
	Printed []string
	Globals map[string]string // final value of every assigned global
	Steps   int
}

type frame struct {
	vars      map[string]Value
	mem       map[string]map[int64]Value
	args      []Value
	nextParam int
	returnPC  int
	resultDst string
}

func newFrame() *frame {
	return &frame{
		vars: make(map[string]Value),
		mem:  make(map[string]map[int64]Value),
	}
}

// Machine holds the state of one run.
type Machine struct {
	quads   []quad.Quad
	labels  map[string]int
	funcs   map[string]int // function name -> FUNC_BEGIN index
	funcEnd map[int]int    // FUNC_BEGIN index -> FUNC_END index
	globals map[string]bool

	global  *frame
	stack   []*frame
	pending []Value // PARAM values for the next CALL

	out      Output
	maxSteps int
}

// Run executes quads: first the code outside any function, then the entry
// function if the program defines it.
func Run(quads []quad.Quad, opts Options) (*Output, error) {
	m, err := New(quads, opts)
	if err != nil {
		return nil, err
	}
	return m.run(opts.entry())
}

func (o Options) entry() string {
	if o.Entry == "" {
		return "main"
	}
	return o.Entry
}

// New prepares a machine for quads.
func New(quads []quad.Quad, opts Options) (*Machine, error) {
	m := &Machine{
		quads:    quads,
		labels:   make(map[string]int),
		funcs:    make(map[string]int),
		funcEnd:  make(map[int]int),
		globals:  make(map[string]bool),
		global:   newFrame(),
		maxSteps: opts.MaxSteps,
	}
	if m.maxSteps <= 0 {
		m.maxSteps = DefaultMaxSteps
	}
	for _, g := range opts.Globals {
		m.globals[g] = true
	}

	open := -1
	for i, q := range quads {
		switch q.Op {
		case quad.OpLabel:
			if _, dup := m.labels[q.Arg1]; !dup {
				m.labels[q.Arg1] = i
			}
		case quad.OpFuncBegin:
			if open >= 0 {
				return nil, fmt.Errorf("%w: function %s starts inside %s", ErrBadProgram, q.Arg1, quads[open].Arg1)
			}
			open = i
			m.funcs[q.Arg1] = i
		case quad.OpFuncEnd:
			if open < 0 {
				return nil, fmt.Errorf("%w: FUNC_END %s without FUNC_BEGIN", ErrBadProgram, q.Arg1)
			}
			m.funcEnd[open] = i
			open = -1
		}
	}
	if open >= 0 {
		return nil, fmt.Errorf("%w: function %s is never closed", ErrBadProgram, quads[open].Arg1)
	}
	return m, nil
}

func (m *Machine) run(entry string) (*Output, error) {
	m.stack = []*frame{m.global}
	if err := m.exec(0, true); err != nil {
		return &m.out, err
	}
	if start, ok := m.funcs[entry]; ok {
		m.stack = append(m.stack, newFrame())
		if err := m.exec(start+1, false); err != nil {
			return &m.out, err
		}
	}

	m.out.Globals = make(map[string]string)
	names := make([]string, 0, len(m.globals))
	for g := range m.globals {
		names = append(names, g)
	}
	sort.Strings(names)
	for _, g := range names {
		if v, ok := m.global.vars[g]; ok && v.IsSet() {
			m.out.Globals[g] = v.String()
		}
	}
	return &m.out, nil
}

func (m *Machine) top() *frame {
	return m.stack[len(m.stack)-1]
}

// scope returns the frame that stores name.
func (m *Machine) scope(name string) *frame {
	if m.globals[name] {
		return m.global
	}
	return m.top()
}

func (m *Machine) get(operand string) (Value, error) {
	if v, ok := literal(operand); ok {
		return v, nil
	}
	v := m.scope(operand).vars[operand]
	if !v.IsSet() {
		return v, fmt.Errorf("%w: %s", ErrUndefined, operand)
	}
	return v, nil
}

// copyOf reads operand without requiring it to be assigned, so copies of
// unassigned names stay unassigned instead of failing.
func (m *Machine) copyOf(operand string) Value {
	if v, ok := literal(operand); ok {
		return v
	}
	return m.scope(operand).vars[operand]
}

func (m *Machine) set(name string, v Value) {
	m.scope(name).vars[name] = v
}

func (m *Machine) memory(name string) map[int64]Value {
	f := m.scope(name)
	cells, ok := f.mem[name]
	if !ok {
		cells = make(map[int64]Value)
		f.mem[name] = cells
	}
	return cells
}

func (m *Machine) index(operand string) (int64, error) {
	v, err := m.get(operand)
	if err != nil {
		return 0, err
	}
	switch v.k {
	case kindInt:
		return v.i, nil
	case kindFloat:
		return int64(v.f), nil
	}
	return 0, fmt.Errorf("%w: index %s is not a number", ErrType, operand)
}

// exec runs from pc until the current frame returns. At top level,
// function bodies are skipped and running off the end returns.
func (m *Machine) exec(pc int, topLevel bool) error {
	depth := len(m.stack)
	for pc < len(m.quads) {
		if m.out.Steps >= m.maxSteps {
			return ErrStepLimit
		}
		m.out.Steps++

		q := m.quads[pc]
		next := pc + 1

		switch {
		case q.Op == quad.OpFuncBegin:
			if topLevel && len(m.stack) == depth {
				next = m.funcEnd[pc] + 1
			}

		case q.Op == quad.OpFuncEnd || q.Op == quad.OpReturn:
			var ret Value
			if q.Op == quad.OpReturn && q.Arg1 != quad.Absent {
				v, err := m.get(q.Arg1)
				if err != nil {
					return m.fail(pc, err)
				}
				ret = v
			}
			if len(m.stack) == depth {
				if !topLevel {
					m.stack = m.stack[:len(m.stack)-1]
				}
				return nil
			}
			f := m.top()
			m.stack = m.stack[:len(m.stack)-1]
			if quad.IsVariable(f.resultDst) {
				m.set(f.resultDst, ret)
			}
			next = f.returnPC

		case q.Op == quad.OpLabel:

		case q.Op == quad.OpJump:
			target, err := m.target(q)
			if err != nil {
				return m.fail(pc, err)
			}
			next = target

		case quad.IsConditionalJump(q.Op):
			c, err := m.get(q.Arg1)
			if err != nil {
				return m.fail(pc, err)
			}
			if (q.Op == quad.OpJumpF) != c.truthy() {
				target, err := m.target(q)
				if err != nil {
					return m.fail(pc, err)
				}
				next = target
			}

		case q.Op == quad.OpAssign:
			m.set(q.Result, m.copyOf(q.Arg1))

		case quad.IsExpression(q.Op):
			v, err := m.expression(q)
			if err != nil {
				return m.fail(pc, err)
			}
			m.set(q.Result, v)

		case q.Op == quad.OpPrint:
			v, err := m.get(q.Arg1)
			if err != nil {
				return m.fail(pc, err)
			}
			m.out.Printed = append(m.out.Printed, v.String())

		case q.Op == quad.OpParam:
			m.pending = append(m.pending, m.copyOf(q.Arg1))

		case q.Op == quad.OpCall:
			start, ok := m.funcs[q.Arg1]
			if !ok {
				return m.fail(pc, fmt.Errorf("%w: call of undefined function %s", ErrBadProgram, q.Arg1))
			}
			f := newFrame()
			f.args = m.pending
			f.returnPC = next
			f.resultDst = q.Result
			m.pending = nil
			m.stack = append(m.stack, f)
			next = start + 1

		case q.Op == quad.OpGetParam:
			f := m.top()
			if f.nextParam >= len(f.args) {
				return m.fail(pc, fmt.Errorf("%w: missing argument for %s", ErrBadProgram, q.Arg1))
			}
			m.set(q.Arg1, f.args[f.nextParam])
			f.nextParam++

		case q.Op == quad.OpDecArray || q.Op == quad.OpDecDynArray:
			m.scope(q.Arg1).mem[q.Arg1] = make(map[int64]Value)
			m.set(q.Arg1, String("array "+q.Arg1))

		case q.Op == quad.OpStoreAt || q.Op == quad.OpStoreMember:
			idx, err := m.index(q.Result)
			if err != nil {
				return m.fail(pc, err)
			}
			m.memory(q.Arg2)[idx] = m.copyOf(q.Arg1)

		case q.Op == quad.OpLoadAt || q.Op == quad.OpLoadMember:
			idx, err := m.index(q.Result)
			if err != nil {
				return m.fail(pc, err)
			}
			m.set(q.Arg1, m.memory(q.Arg2)[idx])

		default:
			return m.fail(pc, fmt.Errorf("%w: %s", ErrUnknownOp, q.Op))
		}
		pc = next
	}
	return nil
}

func (m *Machine) expression(q quad.Quad) (Value, error) {
	a, err := m.get(q.Arg1)
	if err != nil {
		return Value{}, err
	}
	if q.Arg2 == quad.Absent {
		if q.Op == quad.OpSub {
			return negate(a)
		}
		return Value{}, fmt.Errorf("%w: unary %s", ErrUnknownOp, q.Op)
	}
	b, err := m.get(q.Arg2)
	if err != nil {
		return Value{}, err
	}
	return binary(q.Op, a, b)
}

func (m *Machine) target(q quad.Quad) (int, error) {
	target, ok := m.labels[q.Result]
	if !ok {
		return 0, fmt.Errorf("%w: jump to undefined label %s", ErrBadProgram, q.Result)
	}
	return target, nil
}

func (m *Machine) fail(pc int, err error) error {
	return fmt.Errorf("quad %d %s: %w", pc, m.quads[pc], err)
}
