// Package cfg splits a quadruple sequence into basic blocks and links them
// into a control flow graph.
package cfg

import "github.com/anchor-lang/anchorc/pkg/quad"

// Block is a basic block: a straight-line run of quadruples entered only
// at its first instruction and left only after its last.
type Block struct {
	ID    int
	Start int // index of the first quadruple in the input sequence
	Quads []quad.Quad

	Use     NameSet // read before any local write
	Def     NameSet // written somewhere in the block
	LiveIn  NameSet
	LiveOut NameSet

	Succs []int
	Preds []int
}

func newBlock(id, start int, quads []quad.Quad) *Block {
	return &Block{
		ID:      id,
		Start:   start,
		Quads:   quads,
		Use:     NewNameSet(),
		Def:     NewNameSet(),
		LiveIn:  NewNameSet(),
		LiveOut: NewNameSet(),
	}
}

// Last returns the block's final instruction.
func (b *Block) Last() (quad.Quad, bool) {
	if len(b.Quads) == 0 {
		return quad.Quad{}, false
	}
	return b.Quads[len(b.Quads)-1], true
}

// EndsBlock reports whether op ends a basic block. CALL ends a block so the
// caller's state after the call starts fresh.
func EndsBlock(op string) bool {
	return quad.IsControlTransfer(op) || op == quad.OpCall
}

// LabelIndex maps every label to the index of its LABEL instruction.
// If a label is defined twice the first definition wins.
func LabelIndex(quads []quad.Quad) map[string]int {
	idx := make(map[string]int)
	for i, q := range quads {
		if q.Op != quad.OpLabel {
			continue
		}
		if _, ok := idx[q.Arg1]; !ok {
			idx[q.Arg1] = i
		}
	}
	return idx
}

// Partition splits quads into basic blocks using the leader method.
// Blocks are numbered in order and together cover every instruction once.
func Partition(quads []quad.Quad) []*Block {
	if len(quads) == 0 {
		return nil
	}

	labels := LabelIndex(quads)
	leaders := make([]bool, len(quads))
	leaders[0] = true

	for i, q := range quads {
		if !EndsBlock(q.Op) {
			continue
		}
		if quad.IsJump(q.Op) {
			// Jumps to undefined labels add no leader.
			if target, ok := labels[q.Result]; ok {
				leaders[target] = true
			}
		}
		if i+1 < len(quads) {
			leaders[i+1] = true
		}
	}

	var blocks []*Block
	start := 0
	for i := 1; i <= len(quads); i++ {
		if i < len(quads) && !leaders[i] {
			continue
		}
		span := append([]quad.Quad(nil), quads[start:i]...)
		blocks = append(blocks, newBlock(len(blocks), start, span))
		start = i
	}
	return blocks
}

// Flatten concatenates the blocks' quadruples in block order.
func Flatten(blocks []*Block) []quad.Quad {
	var out []quad.Quad
	for _, b := range blocks {
		out = append(out, b.Quads...)
	}
	return out
}
