package cfg

import "github.com/anchor-lang/anchorc/pkg/quad"

// Unresolved records a jump whose target label is never defined.
type Unresolved struct {
	Block int
	Label string
}

// Graph is a partitioned unit with its control flow edges.
type Graph struct {
	Blocks     []*Block
	Unresolved []Unresolved
}

// Build computes use/def sets and successor/predecessor edges for blocks
// produced by Partition. It may be called again on the same blocks.
func Build(blocks []*Block) *Graph {
	g := &Graph{Blocks: blocks}

	labelBlock := make(map[string]int)
	for _, b := range blocks {
		for _, q := range b.Quads {
			if q.Op != quad.OpLabel {
				continue
			}
			if _, ok := labelBlock[q.Arg1]; !ok {
				labelBlock[q.Arg1] = b.ID
			}
		}
	}

	for _, b := range blocks {
		ComputeUseDef(b)
		b.Succs = nil
		b.Preds = nil
	}

	for i, b := range blocks {
		last, ok := b.Last()
		if !ok {
			continue
		}
		hasNext := i+1 < len(blocks)

		if quad.IsJump(last.Op) {
			if target, ok := labelBlock[last.Result]; ok {
				b.addSucc(target)
			} else {
				g.Unresolved = append(g.Unresolved, Unresolved{Block: b.ID, Label: last.Result})
			}
			if quad.IsConditionalJump(last.Op) && hasNext {
				b.addSucc(blocks[i+1].ID)
			}
			continue
		}
		if quad.EndsFlow(last.Op) {
			continue
		}
		if hasNext {
			b.addSucc(blocks[i+1].ID)
		}
	}

	for _, b := range blocks {
		for _, s := range b.Succs {
			succ := blocks[s]
			succ.Preds = append(succ.Preds, b.ID)
		}
	}
	return g
}

func (b *Block) addSucc(id int) {
	for _, s := range b.Succs {
		if s == id {
			return
		}
	}
	b.Succs = append(b.Succs, id)
}

// ComputeUseDef recomputes the block's use and def sets with a reverse
// scan: a write hides any later-seen read of the same name.
func ComputeUseDef(b *Block) {
	b.Use = NewNameSet()
	b.Def = NewNameSet()
	for i := len(b.Quads) - 1; i >= 0; i-- {
		q := b.Quads[i]
		for _, d := range q.Defs() {
			b.Use.Remove(d)
			b.Def.Add(d)
		}
		for _, u := range q.Uses() {
			b.Use.Add(u)
		}
	}
}
