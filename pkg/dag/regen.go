package dag

import (
	"github.com/anchor-lang/anchorc/pkg/diag"
	"github.com/anchor-lang/anchorc/pkg/quad"
	"github.com/anchor-lang/anchorc/pkg/symtab"
)

// regen turns a marked graph back into quadruples. It tracks which name
// holds which value at the current point of the emitted code, so that a
// value still waiting to be read is never overwritten without a copy.
type regen struct {
	g       *Graph
	needed  []bool
	emitted []bool
	pending []int // reads of each node not yet emitted

	holds map[string]NodeID   // name -> value it holds now
	at    map[NodeID][]string // value -> names holding it now, oldest first

	// into names the global whose store consumes a node emitted for the
	// current effect; that node is written straight into the global.
	into struct {
		node NodeID
		name string
	}

	temps *symtab.Table
	out   []quad.Quad
}

func newRegen(g *Graph, needed []bool, exits []string, tempBase int) *regen {
	r := &regen{
		g:        g,
		needed:   needed,
		emitted:  make([]bool, len(g.Nodes)),
		pending:  make([]int, len(g.Nodes)),
		holds:    make(map[string]NodeID),
		at:       make(map[NodeID][]string),
		temps:    symtab.New(),
	}
	r.into.node = NoNode
	r.temps.ReserveTemps(tempBase)

	// Every entry leaf starts out in its own name.
	for _, n := range g.Nodes {
		if n.IsLeaf() && n.Entry {
			r.setHold(n.Value, n.ID)
		}
	}

	for _, n := range g.Nodes {
		if n.IsLeaf() || !needed[n.ID] {
			continue
		}
		r.pending[n.Left]++
		if n.Right != NoNode {
			r.pending[n.Right]++
		}
	}
	for _, e := range g.effects {
		for _, u := range e.uses {
			r.pending[u.node]++
		}
	}
	for _, name := range exits {
		if id, ok := g.bind[name]; ok {
			r.pending[id]++
		}
	}
	return r
}

func (r *regen) emit(q quad.Quad) {
	r.out = append(r.out, q)
}

func (r *regen) mint() string {
	return r.temps.GenerateTemp()
}

func (r *regen) setHold(name string, id NodeID) {
	if old, ok := r.holds[name]; ok {
		if old == id {
			return
		}
		r.release(name)
	}
	r.holds[name] = id
	r.at[id] = append(r.at[id], name)
}

// release forgets the value name holds.
func (r *regen) release(name string) {
	old, ok := r.holds[name]
	if !ok {
		return
	}
	delete(r.holds, name)
	names := r.at[old]
	for i, n := range names {
		if n == name {
			r.at[old] = append(names[:i:i], names[i+1:]...)
			break
		}
	}
}

// locate returns a name holding id, preferring its canonical label and
// avoiding names in avoid when possible.
func (r *regen) locate(id NodeID, avoid map[string]bool) string {
	n := r.g.Nodes[id]
	if n.IsLiteral() {
		return n.Value
	}
	names := r.at[id]
	if c := n.Canonical(); c != "" && !avoid[c] {
		if cur, ok := r.holds[c]; ok && cur == id {
			return c
		}
	}
	for _, name := range names {
		if !avoid[name] {
			return name
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	// Unreachable for a consistent graph: every needed value has a home
	// before it is read.
	return n.Canonical()
}

// read returns where id can be read from and consumes one pending read.
func (r *regen) read(id NodeID) string {
	r.pending[id]--
	return r.locate(id, nil)
}

// safe reports whether writing id into name loses nothing still needed.
func (r *regen) safe(name string, id NodeID) bool {
	old, ok := r.holds[name]
	if !ok || old == id {
		return true
	}
	n := r.g.Nodes[old]
	return n.IsLiteral() || r.pending[old] <= 0 || len(r.at[old]) > 1
}

// evict copies the value held by name somewhere else, unless that would
// be pointless. Names in locked are read by the instruction about to be
// emitted and must keep their values until then.
func (r *regen) evict(name string, id NodeID, locked map[string]bool) {
	if r.safe(name, id) {
		return
	}
	old := r.holds[name]
	dest := ""
	for _, l := range r.candidates(old) {
		if l != name && !locked[l] && r.safe(l, old) {
			dest = l
			break
		}
	}
	if dest == "" {
		dest = r.mint()
	}
	q := quad.New(quad.OpAssign, name, quad.Absent, dest)
	r.g.note(diag.KindSave, q, "value of "+name+" still needed")
	r.emit(q)
	r.setHold(dest, old)
}

// candidates lists the names id may be written to: its canonical label
// first, then its other labels. Globals are only written by their stores.
func (r *regen) candidates(id NodeID) []string {
	n := r.g.Nodes[id]
	var out []string
	if c := n.Canonical(); c != "" && !r.g.globals[c] {
		out = append(out, c)
	}
	for _, l := range n.Labels {
		if l != n.Canonical() && !r.g.globals[l] {
			out = append(out, l)
		}
	}
	return out
}

// node emits id after the nodes it is computed from.
func (r *regen) node(id NodeID) {
	if id == NoNode {
		return
	}
	n := r.g.Nodes[id]
	if n.IsLeaf() || r.emitted[id] || !r.needed[id] {
		return
	}
	r.node(n.Left)
	r.node(n.Right)
	r.emitted[id] = true

	left := r.read(n.Left)
	right := quad.Absent
	if n.Right != NoNode {
		right = r.read(n.Right)
	}
	locked := map[string]bool{left: true, right: true}

	dest := ""
	cands := r.candidates(id)
	if r.into.node == id && r.safe(r.into.name, id) {
		cands = append([]string{r.into.name}, cands...)
	}
	for _, c := range cands {
		if r.safe(c, id) {
			dest = c
			break
		}
	}
	switch {
	case dest != "":
	case len(cands) > 0:
		dest = cands[0]
		r.evict(dest, id, locked)
	default:
		dest = r.mint()
	}

	r.emit(quad.New(n.Op, left, right, dest))
	r.setHold(dest, id)
}

// nodesBefore emits every needed node created before mark.
func (r *regen) nodesBefore(mark NodeID) {
	for id := NodeID(0); id < mark && int(id) < len(r.g.Nodes); id++ {
		r.node(id)
	}
}

// effect emits a side effect with its operands read from wherever their
// captured values are now.
func (r *regen) effect(e effect) {
	store := e.q.Op == quad.OpAssign && len(e.uses) == 1 && len(e.defs) == 1
	if store {
		r.into.node, r.into.name = e.uses[0].node, e.defs[0].name
	}
	r.nodesBefore(e.mark)
	r.into.node = NoNode

	q := e.q
	locked := make(map[string]bool)
	for _, u := range e.uses {
		loc := r.read(u.node)
		q = q.With(u.slot, loc)
		locked[loc] = true
	}
	for _, d := range e.defs {
		locked[d.name] = true
	}
	held := false
	if store {
		cur, ok := r.holds[e.defs[0].name]
		held = ok && cur == e.defs[0].node
	}
	// Each name is given up before the next one is checked, so a value
	// living only in names this instruction overwrites is still saved.
	for _, d := range e.defs {
		r.evict(d.name, d.node, locked)
		r.release(d.name)
	}
	if !held {
		r.emit(q)
	}
	for _, d := range e.defs {
		r.setHold(d.name, d.node)
	}
}

type move struct {
	src, dst string
	node     NodeID
}

// exitMoves puts the final value of every exit name in place. The copies
// form a parallel assignment: a copy is emitted once no other pending copy
// still reads its destination, and a cycle is broken by saving one
// destination to a fresh temporary.
func (r *regen) exitMoves(exits []string, term *effect) {
	dsts := make(map[string]bool)
	var names []string
	for _, name := range exits {
		id, ok := r.g.bind[name]
		if !ok {
			continue
		}
		r.pending[id]--
		if cur, ok := r.holds[name]; ok && cur == id {
			continue
		}
		dsts[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}

	var moves []move
	moved := make(map[NodeID]bool)
	for _, name := range names {
		id := r.g.bind[name]
		moves = append(moves, move{src: r.locate(id, dsts), dst: name, node: id})
		moved[id] = true
	}

	// A value the final jump reads must not lose its last home.
	if term != nil {
		for _, u := range term.uses {
			id := u.node
			if r.g.Nodes[id].IsLiteral() || moved[id] || len(r.at[id]) == 0 {
				continue
			}
			survives := false
			for _, name := range r.at[id] {
				if !dsts[name] {
					survives = true
					break
				}
			}
			if !survives {
				r.saveExit(r.at[id][0], moves)
			}
		}
	}

	for len(moves) > 0 {
		progress := false
		for i := 0; i < len(moves); i++ {
			m := moves[i]
			if readsName(moves, m.dst) {
				continue
			}
			if m.src != m.dst {
				r.emit(quad.New(quad.OpAssign, m.src, quad.Absent, m.dst))
			}
			r.setHold(m.dst, m.node)
			moves = append(moves[:i], moves[i+1:]...)
			i--
			progress = true
		}
		if !progress {
			r.saveExit(moves[0].dst, moves)
		}
	}
}

// saveExit copies name to a fresh temporary and redirects pending exit
// copies that read name to it.
func (r *regen) saveExit(name string, moves []move) {
	tmp := r.mint()
	q := quad.New(quad.OpAssign, name, quad.Absent, tmp)
	r.g.note(diag.KindSave, q, "exit copies overwrite "+name)
	r.emit(q)
	r.setHold(tmp, r.holds[name])
	for i := range moves {
		if moves[i].src == name {
			moves[i].src = tmp
		}
	}
}

func readsName(moves []move, name string) bool {
	for _, m := range moves {
		if m.src == name && m.dst != name {
			return true
		}
	}
	return false
}
