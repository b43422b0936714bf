// Label cleanup for reassembled quadruples.
// This pass removes labels that are not referenced by any jump.
package optimizer

import (
	"github.com/anchor-lang/anchorc/pkg/cfg"
	"github.com/anchor-lang/anchorc/pkg/diag"
	"github.com/anchor-lang/anchorc/pkg/quad"
)

// Reassemble concatenates the blocks in id order and drops every LABEL no
// jump refers to, logging each removal. It is one pass: a label is kept if
// any jump in any block names it.
func Reassemble(blocks []*cfg.Block, log *diag.Log) []quad.Quad {
	used := make(map[string]bool)
	n := 0
	for _, b := range blocks {
		collectUsedLabels(b.Quads, used)
		n += len(b.Quads)
	}

	out := make([]quad.Quad, 0, n)
	for _, b := range blocks {
		for _, q := range b.Quads {
			if q.Op == quad.OpLabel && !used[q.Arg1] {
				if log != nil {
					log.Add(diag.Event{Kind: diag.KindRemovedLabel, Block: b.ID, Quad: q})
				}
				continue
			}
			out = append(out, q)
		}
	}
	return out
}

// collectUsedLabels adds every jump target in quads to used.
func collectUsedLabels(quads []quad.Quad, used map[string]bool) {
	for _, q := range quads {
		if quad.IsJump(q.Op) {
			used[q.Result] = true
		}
	}
}
