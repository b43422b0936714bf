// Package liveness computes which variables are live on entry to and exit
// from each basic block.
//
//	LiveOut(B) = union of LiveIn(S) over successors S
//	LiveIn(B)  = Use(B) ∪ (LiveOut(B) − Def(B))
package liveness

import "github.com/anchor-lang/anchorc/pkg/cfg"

// Analyze clears the live sets of blocks and solves the equations to
// their least fixed point. Blocks must already carry use/def sets and
// successors (see cfg.Build). It returns the number of passes run.
func Analyze(blocks []*cfg.Block) int {
	for _, b := range blocks {
		b.LiveIn = cfg.NewNameSet()
		b.LiveOut = cfg.NewNameSet()
	}
	return Solve(blocks)
}

// Solve iterates the equations starting from the blocks' current live sets
// until a full pass changes nothing. On an already solved graph it runs a
// single pass and changes nothing.
func Solve(blocks []*cfg.Block) int {
	passes := 0
	for changed := true; changed; {
		changed = false
		passes++
		// Reverse order visits successors first in straight-line code.
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]

			out := cfg.NewNameSet()
			for _, s := range b.Succs {
				out = out.Union(blocks[s].LiveIn)
			}
			in := b.Use.Union(out.Minus(b.Def))

			if !in.Equal(b.LiveIn) || !out.Equal(b.LiveOut) {
				changed = true
			}
			b.LiveIn = in
			b.LiveOut = out
		}
	}
	return passes
}
