package listing

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anchor-lang/anchorc/pkg/lexer"
	"github.com/anchor-lang/anchorc/pkg/quad"
	"github.com/anchor-lang/anchorc/pkg/symtab"
)

// Unit is one compilation unit's quadruples plus what the optimizer needs
// to know about its symbols.
type Unit struct {
	Globals []string        // names given explicitly
	Symbols []symtab.Symbol // symbol table dump, if any
	Quads   []quad.Quad
}

// Format selects the on-disk representation of a unit.
type Format int

const (
	FormatText Format = iota
	FormatYAML
)

// ParseFormat converts a --format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "txt", "quad":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("unknown format %q (want text or yaml)", s)
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatText
}

// Table rebuilds the symbol table recorded in the unit.
func (u *Unit) Table() *symtab.Table {
	t := symtab.New()
	for _, sym := range u.Symbols {
		t.Import(sym)
	}
	return t
}

// GlobalNames returns the explicit globals together with every global
// variable of the symbol table, sorted and without duplicates.
func (u *Unit) GlobalNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, g := range u.Globals {
		add(g)
	}
	for _, g := range u.Table().Globals() {
		add(g)
	}
	sort.Strings(names)
	return names
}

// ParseListing parses the textual listing format.
func ParseListing(src string) (*Unit, error) {
	p := NewParser(lexer.New(src))
	u := p.ParseUnit()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, strings.Join(errs, "; "))
	}
	return u, nil
}

type yamlSymbol struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Scope    int    `yaml:"scope"`
	Line     int    `yaml:"line,omitempty"`
}

type yamlUnit struct {
	Globals []string     `yaml:"globals,omitempty"`
	Symbols []yamlSymbol `yaml:"symbols,omitempty"`
	Quads   []yaml.Node  `yaml:"quads"`
}

// ParseYAML parses the YAML unit format.
func ParseYAML(data []byte) (*Unit, error) {
	var doc yamlUnit
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	u := &Unit{Globals: doc.Globals}
	for _, s := range doc.Symbols {
		cat, err := ParseCategoryOrVariable(s.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: symbol %s: %v", ErrSyntax, s.Name, err)
		}
		u.Symbols = append(u.Symbols, symtab.Symbol{
			Name:       s.Name,
			Category:   cat,
			ScopeLevel: s.Scope,
			Line:       s.Line,
		})
	}

	for i := range doc.Quads {
		node := &doc.Quads[i]
		var fields []string
		if err := node.Decode(&fields); err != nil {
			return nil, fmt.Errorf("%w: line %d: quadruple %d: %v", ErrSyntax, node.Line, i, err)
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: line %d: quadruple %d has %d fields, want 4",
				ErrSyntax, node.Line, i, len(fields))
		}
		u.Quads = append(u.Quads, quad.New(fields[0], fields[1], fields[2], fields[3]))
	}
	return u, nil
}

// ParseCategoryOrVariable is symtab.ParseCategory with an empty category
// meaning a variable.
func ParseCategoryOrVariable(s string) (symtab.Category, error) {
	if s == "" {
		return symtab.CategoryVariable, nil
	}
	return symtab.ParseCategory(s)
}

// Parse parses data in the given format.
func Parse(data []byte, format Format) (*Unit, error) {
	if format == FormatYAML {
		return ParseYAML(data)
	}
	return ParseListing(string(data))
}

// Load reads a unit from a file, choosing the format from its extension.
func Load(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	u, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// quadRow marshals a quadruple as a one-line flow sequence.
type quadRow quad.Quad

func (r quadRow) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range [...]string{r.Op, r.Arg1, r.Arg2, r.Result} {
		field := &yaml.Node{Kind: yaml.ScalarNode, Value: f}
		if !quad.IsNumeric(f) {
			// Quoted when needed so names like null survive a round trip.
			field.Tag = "!!str"
		}
		n.Content = append(n.Content, field)
	}
	return n, nil
}

type yamlOut struct {
	Globals []string     `yaml:"globals,omitempty"`
	Symbols []yamlSymbol `yaml:"symbols,omitempty"`
	Quads   []quadRow    `yaml:"quads"`
}

// Write writes u in the given format.
func Write(w io.Writer, u *Unit, format Format) error {
	if format == FormatYAML {
		data, err := MarshalYAML(u)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	var buf bytes.Buffer
	p := quad.NewNumberedPrinter(&buf)
	p.PrintGlobals(u.GlobalNames())
	p.PrintQuads(u.Quads)
	_, err := w.Write(buf.Bytes())
	return err
}

// MarshalYAML renders u in the YAML unit format.
func MarshalYAML(u *Unit) ([]byte, error) {
	out := yamlOut{Globals: u.Globals, Quads: make([]quadRow, 0, len(u.Quads))}
	for _, s := range u.Symbols {
		out.Symbols = append(out.Symbols, yamlSymbol{
			Name:     s.Name,
			Category: s.Category.String(),
			Scope:    s.ScopeLevel,
			Line:     s.Line,
		})
	}
	for _, q := range u.Quads {
		out.Quads = append(out.Quads, quadRow(q))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encoding unit: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
