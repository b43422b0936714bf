package cfg

import (
	"fmt"
	"io"
	"strings"
)

// Printer dumps blocks with their edges and dataflow sets.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new block printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintGraph prints every block of g followed by its unresolved jumps.
func (p *Printer) PrintGraph(g *Graph) {
	p.PrintBlocks(g.Blocks)
	for _, u := range g.Unresolved {
		fmt.Fprintf(p.w, "unresolved: block %d jumps to undefined label %s\n", u.Block, u.Label)
	}
}

// PrintBlocks prints each block in order.
func (p *Printer) PrintBlocks(blocks []*Block) {
	for i, b := range blocks {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		p.PrintBlock(b)
	}
}

// PrintBlock prints one block.
func (p *Printer) PrintBlock(b *Block) {
	fmt.Fprintf(p.w, "block %d: succs [%s] preds [%s]\n", b.ID, joinInts(b.Succs), joinInts(b.Preds))
	p.printSet("use", b.Use)
	p.printSet("def", b.Def)
	p.printSet("live_in", b.LiveIn)
	p.printSet("live_out", b.LiveOut)
	for _, q := range b.Quads {
		fmt.Fprintf(p.w, "    %s\n", q)
	}
}

func (p *Printer) printSet(name string, s NameSet) {
	fmt.Fprintf(p.w, "  %s: {%s}\n", name, strings.Join(s.Sorted(), " "))
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " ")
}
