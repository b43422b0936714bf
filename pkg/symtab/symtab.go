// Package symtab is the symbol table shared by the Anchor front end and the
// optimizer. Scope level 0 is the global scope; the optimizer only asks it
// which variables are global and for fresh temporary names.
package symtab

import (
	"fmt"
	"sort"
	"strconv"
)

// Category classifies a symbol.
type Category int

const (
	CategoryKeyword Category = iota
	CategoryVariable
	CategoryConstant
	CategoryStructType
	CategoryFunction
)

var categoryNames = map[Category]string{
	CategoryKeyword:    "keyword",
	CategoryVariable:   "variable",
	CategoryConstant:   "constant",
	CategoryStructType: "struct",
	CategoryFunction:   "function",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCategory converts a category name back to a Category.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown symbol category %q", s)
}

// Symbol is a declared name.
type Symbol struct {
	Name       string
	Category   Category
	ScopeLevel int
	Line       int
}

// IsGlobalVariable reports whether s is a variable declared at scope level 0.
func (s Symbol) IsGlobalVariable() bool {
	return s.Category == CategoryVariable && s.ScopeLevel == 0
}

// Table is the symbol table as read back from an IR unit, plus the
// temporary name generator.
type Table struct {
	globals     map[string]bool
	tempCounter int
}

// New creates an empty table.
func New() *Table {
	return &Table{globals: make(map[string]bool)}
}

// Import records a symbol that already carries its scope level, as read
// from an IR unit file.
func (t *Table) Import(sym Symbol) {
	if sym.IsGlobalVariable() {
		t.globals[sym.Name] = true
	}
}

// Globals returns the sorted names of all variables declared at scope level 0.
func (t *Table) Globals() []string {
	names := make([]string, 0, len(t.globals))
	for name := range t.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateTemp returns a fresh temporary name T<n>.
func (t *Table) GenerateTemp() string {
	name := "T" + strconv.Itoa(t.tempCounter)
	t.tempCounter++
	return name
}

// ReserveTemps makes sure the next generated temporary is numbered at
// least n.
func (t *Table) ReserveTemps(n int) {
	if t.tempCounter < n {
		t.tempCounter = n
	}
}
