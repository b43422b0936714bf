package dag

import (
	"fmt"
	"sort"

	"github.com/anchor-lang/anchorc/pkg/cfg"
	"github.com/anchor-lang/anchorc/pkg/diag"
	"github.com/anchor-lang/anchorc/pkg/quad"
)

// Env is the read-only context shared by every block of a unit.
type Env struct {
	Globals  []string
	TempBase int // first free temporary index; see quad.MaxTemp
}

type exprKey struct {
	op          string
	left, right NodeID
}

type useRef struct {
	slot quad.Slot
	node NodeID
}

type defRef struct {
	name string
	node NodeID
}

// effect is an instruction that must survive as written: an opaque
// operation, or a store to a global. Operands are captured as nodes when
// the instruction is seen, so later rebinding does not change them.
type effect struct {
	q          quad.Quad
	uses       []useRef
	defs       []defRef
	mark       NodeID // nodes below mark were created before q
	terminator bool
}

// Graph is the value graph of one block.
type Graph struct {
	Nodes []*Node

	block    int
	tempBase int
	globals  map[string]bool
	bind     map[string]NodeID
	entry    map[string]NodeID
	literals map[string]NodeID
	exprs    map[exprKey]NodeID
	effects  []effect
	events   []diag.Event
}

// Build builds the value graph of b. Names live on entry get a leaf each
// before the instructions are scanned in order.
func Build(b *cfg.Block, env Env) *Graph {
	g := &Graph{
		block:    b.ID,
		tempBase: env.TempBase,
		globals:  make(map[string]bool, len(env.Globals)),
		bind:     make(map[string]NodeID),
		entry:    make(map[string]NodeID),
		literals: make(map[string]NodeID),
		exprs:    make(map[exprKey]NodeID),
	}
	for _, name := range env.Globals {
		g.globals[name] = true
	}

	for _, name := range b.LiveIn.Sorted() {
		g.entryLeaf(name)
	}
	for i, q := range b.Quads {
		last := i == len(b.Quads)-1
		g.add(q, last && quad.IsControlTransfer(q.Op))
	}
	return g
}

// Lookup returns the node name is bound to at the end of the block.
func (g *Graph) Lookup(name string) (NodeID, bool) {
	id, ok := g.bind[name]
	return id, ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node {
	return g.Nodes[id]
}

func (g *Graph) newNode(op string, left, right NodeID) *Node {
	n := &Node{ID: NodeID(len(g.Nodes)), Op: op, Left: left, Right: right}
	g.Nodes = append(g.Nodes, n)
	return n
}

func (g *Graph) entryLeaf(name string) NodeID {
	n := g.newNode(LeafOp, NoNode, NoNode)
	n.Value = name
	n.Entry = true
	n.Labels = []string{name}
	g.entry[name] = n.ID
	g.bind[name] = n.ID
	return n.ID
}

// operand returns the node an operand currently denotes. Literal leaves
// are shared by text; an unseen variable gets an entry leaf.
func (g *Graph) operand(text string) NodeID {
	if quad.IsLiteral(text) {
		if id, ok := g.literals[text]; ok {
			return id
		}
		n := g.newNode(LeafOp, NoNode, NoNode)
		n.Value = text
		g.literals[text] = n.ID
		return n.ID
	}
	if id, ok := g.bind[text]; ok {
		return id
	}
	return g.entryLeaf(text)
}

// rebind makes name denote id, moving the label off its previous node.
func (g *Graph) rebind(name string, id NodeID) {
	if old, ok := g.bind[name]; ok {
		if old == id {
			return
		}
		g.Nodes[old].removeLabel(name)
	}
	g.bind[name] = id
	g.Nodes[id].Labels = append(g.Nodes[id].Labels, name)
}

func (g *Graph) note(kind diag.Kind, q quad.Quad, detail string) {
	g.events = append(g.events, diag.Event{Kind: kind, Block: g.block, Quad: q, Detail: detail})
}

func (g *Graph) add(q quad.Quad, terminator bool) {
	switch {
	case terminator:
		g.addEffect(q, true)
	case quad.IsExpression(q.Op) && q.Arg1 != quad.Absent && quad.IsVariable(q.Result):
		g.addExpr(q)
	case q.Op == quad.OpAssign && q.Arg1 != quad.Absent && quad.IsVariable(q.Result):
		g.assign(q.Result, g.operand(q.Arg1))
	default:
		g.addEffect(q, false)
	}
}

func (g *Graph) addExpr(q quad.Quad) {
	left := g.operand(q.Arg1)
	right := NoNode
	if q.Arg2 != quad.Absent {
		right = g.operand(q.Arg2)
	}

	if lit, ok := g.fold(q.Op, left, right); ok {
		g.note(diag.KindFold, q, lit)
		g.assign(q.Result, g.operand(lit))
		return
	}

	key := exprKey{op: q.Op, left: left, right: right}
	if id, ok := g.exprs[key]; ok {
		g.note(diag.KindCSE, q, fmt.Sprintf("same value as %s", g.describe(id)))
		g.assign(q.Result, id)
		return
	}

	n := g.newNode(q.Op, left, right)
	n.Origin = q
	g.exprs[key] = n.ID
	g.assign(q.Result, n.ID)
}

func (g *Graph) fold(op string, left, right NodeID) (string, bool) {
	a := g.Nodes[left]
	if !a.IsLiteral() {
		return "", false
	}
	b := quad.Absent
	if right != NoNode {
		n := g.Nodes[right]
		if !n.IsLiteral() {
			return "", false
		}
		b = n.Value
	}
	return Fold(op, a.Value, b)
}

// assign binds name to id. A global also gets a store that keeps its
// place among the block's side effects.
func (g *Graph) assign(name string, id NodeID) {
	if g.globals[name] {
		g.effects = append(g.effects, effect{
			q:    quad.New(quad.OpAssign, quad.Absent, quad.Absent, name),
			uses: []useRef{{slot: quad.SlotArg1, node: id}},
			defs: []defRef{{name: name, node: id}},
			mark: NodeID(len(g.Nodes)),
		})
	}
	g.rebind(name, id)
}

func (g *Graph) addEffect(q quad.Quad, terminator bool) {
	e := effect{q: q, terminator: terminator}
	for _, s := range q.UseSlots() {
		e.uses = append(e.uses, useRef{slot: s, node: g.operand(q.Get(s))})
	}
	e.mark = NodeID(len(g.Nodes))

	var written []string
	for _, s := range q.DefSlots() {
		written = append(written, q.Get(s))
	}
	if q.Op == quad.OpCall {
		// The callee may have changed any global.
		written = append(written, g.sortedGlobals()...)
	}
	for _, name := range written {
		if _, dup := g.findDef(e.defs, name); dup {
			continue
		}
		n := g.newNode(LeafOp, NoNode, NoNode)
		e.defs = append(e.defs, defRef{name: name, node: n.ID})
		g.rebind(name, n.ID)
	}
	g.effects = append(g.effects, e)
}

func (g *Graph) findDef(defs []defRef, name string) (NodeID, bool) {
	for _, d := range defs {
		if d.name == name {
			return d.node, true
		}
	}
	return NoNode, false
}

func (g *Graph) sortedGlobals() []string {
	names := make([]string, 0, len(g.globals))
	for name := range g.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// describe names a node for diagnostics.
func (g *Graph) describe(id NodeID) string {
	n := g.Nodes[id]
	if n.IsLeaf() {
		if n.Value != "" {
			return n.Value
		}
		return "side effect result"
	}
	if c := n.Canonical(); c != "" {
		return c
	}
	return n.Origin.String()
}

// exitNames returns the names whose final values the block must leave in
// place: everything live on exit plus every global the block binds.
func (g *Graph) exitNames(liveOut cfg.NameSet) []string {
	names := liveOut.Copy()
	for name := range g.bind {
		if g.globals[name] {
			names.Add(name)
		}
	}
	return names.Sorted()
}

// mark returns which nodes are needed: those bound to an exit name or
// read by a side effect, and everything they are computed from.
func (g *Graph) mark(exits []string) []bool {
	needed := make([]bool, len(g.Nodes))
	var stack []NodeID
	push := func(id NodeID) {
		if id != NoNode && !needed[id] {
			needed[id] = true
			stack = append(stack, id)
		}
	}

	for _, name := range exits {
		if id, ok := g.bind[name]; ok {
			push(id)
		}
	}
	for _, e := range g.effects {
		for _, u := range e.uses {
			push(u.node)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := g.Nodes[id]
		push(n.Left)
		push(n.Right)
	}

	for _, n := range g.Nodes {
		if !n.IsLeaf() && !needed[n.ID] {
			g.note(diag.KindDeadCode, n.Origin, "result never used")
		}
	}
	return needed
}
