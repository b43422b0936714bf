package dag

import (
	"github.com/anchor-lang/anchorc/pkg/cfg"
	"github.com/anchor-lang/anchorc/pkg/diag"
	"github.com/anchor-lang/anchorc/pkg/quad"
)

// BlockResult is the optimized code of one block and what happened to it.
type BlockResult struct {
	Block  int
	Quads  []quad.Quad
	Events []diag.Event
}

// OptimizeBlock rewrites one block whose live sets are final. It does not
// modify b.
//
// The output keeps every side effect in its original order, computes each
// needed value before the first side effect that follows it in the input,
// and leaves every live-out name (and every global the block assigns)
// holding the value it would hold without optimization.
func OptimizeBlock(b *cfg.Block, env Env) *BlockResult {
	g := Build(b, env)
	return &BlockResult{
		Block:  b.ID,
		Quads:  g.Regenerate(b.LiveOut),
		Events: g.events,
	}
}

// Regenerate marks the nodes needed for the given live-out set and emits
// the block's new code. Call it once per graph.
func (g *Graph) Regenerate(liveOut cfg.NameSet) []quad.Quad {
	exits := g.exitNames(liveOut)
	needed := g.mark(exits)
	r := newRegen(g, needed, exits, g.tempBase)

	var term *effect
	for i := range g.effects {
		if g.effects[i].terminator {
			term = &g.effects[i]
			continue
		}
		r.effect(g.effects[i])
	}
	r.nodesBefore(NodeID(len(g.Nodes)))
	r.exitMoves(exits, term)
	if term != nil {
		r.effect(*term)
	}
	return r.out
}

// Events returns the diagnostics recorded so far.
func (g *Graph) Events() []diag.Event {
	return g.events
}
