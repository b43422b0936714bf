// Package diag collects the optimizer's diagnostic trace. Events never
// change what the optimizer produces.
package diag

import (
	"fmt"
	"io"

	"github.com/anchor-lang/anchorc/pkg/quad"
)

// Kind classifies an event.
type Kind int

const (
	KindBlocks Kind = iota
	KindFold
	KindCSE
	KindDeadCode
	KindSave
	KindRemovedLabel
	KindUndefinedLabel
)

var kindNames = map[Kind]string{
	KindBlocks:         "blocks",
	KindFold:           "fold",
	KindCSE:            "cse",
	KindDeadCode:       "dead",
	KindSave:           "save",
	KindRemovedLabel:   "label",
	KindUndefinedLabel: "undefined-label",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// NoBlock marks an event that is not about a single block.
const NoBlock = -1

// Event is one diagnostic.
type Event struct {
	Kind   Kind
	Block  int
	Quad   quad.Quad // instruction concerned, if any
	Detail string
}

func (e Event) String() string {
	s := e.Kind.String()
	if e.Block != NoBlock {
		s = fmt.Sprintf("block %d: %s", e.Block, s)
	}
	if e.Quad != (quad.Quad{}) {
		s += " " + e.Quad.String()
	}
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}

// Log is an ordered list of events.
type Log struct {
	Events []Event
}

// Add appends events to the log.
func (l *Log) Add(events ...Event) {
	l.Events = append(l.Events, events...)
}

// Filter returns the events of kind k, in order.
func (l *Log) Filter(k Kind) []Event {
	var out []Event
	for _, e := range l.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of events of kind k.
func (l *Log) Count(k Kind) int {
	return len(l.Filter(k))
}

// Print writes one line per event.
func (l *Log) Print(w io.Writer) {
	for _, e := range l.Events {
		fmt.Fprintln(w, e.String())
	}
}
