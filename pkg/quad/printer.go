// Quadruple listing printer.
// The format is the one the IR producer dumps and the listing parser reads back.
package quad

import (
	"fmt"
	"io"
)

// Printer writes quadruple listings.
type Printer struct {
	w        io.Writer
	numbered bool
}

// NewPrinter creates a printer that writes one quadruple per line.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewNumberedPrinter creates a printer that prefixes each line with its index.
func NewNumberedPrinter(w io.Writer) *Printer {
	return &Printer{w: w, numbered: true}
}

// PrintGlobals writes the globals directive, if there are any globals.
func (p *Printer) PrintGlobals(globals []string) {
	if len(globals) == 0 {
		return
	}
	fmt.Fprint(p.w, "globals:")
	for _, g := range globals {
		fmt.Fprintf(p.w, " %s", g)
	}
	fmt.Fprintln(p.w)
}

// PrintQuads writes every quadruple in order.
func (p *Printer) PrintQuads(quads []Quad) {
	for i, q := range quads {
		if p.numbered {
			fmt.Fprintf(p.w, "%d:\t", i)
		}
		fmt.Fprintln(p.w, q.String())
	}
}
