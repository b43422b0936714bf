package symtab

import (
	"reflect"
	"testing"
)

func TestGlobals(t *testing.T) {
	tab := New()
	tab.Import(Symbol{Name: "zeta", Category: CategoryVariable})
	tab.Import(Symbol{Name: "alpha", Category: CategoryVariable})
	tab.Import(Symbol{Name: "LIMIT", Category: CategoryConstant})
	tab.Import(Symbol{Name: "f", Category: CategoryFunction})
	tab.Import(Symbol{Name: "local", Category: CategoryVariable, ScopeLevel: 1})
	// A local shadowing a global does not make the global disappear.
	tab.Import(Symbol{Name: "alpha", Category: CategoryVariable, ScopeLevel: 1})

	want := []string{"alpha", "zeta"}
	if got := tab.Globals(); !reflect.DeepEqual(got, want) {
		t.Errorf("Globals() = %v, want %v", got, want)
	}
}

func TestGenerateTemp(t *testing.T) {
	tab := New()
	if got := tab.GenerateTemp(); got != "T0" {
		t.Errorf("first temp = %s", got)
	}
	if got := tab.GenerateTemp(); got != "T1" {
		t.Errorf("second temp = %s", got)
	}
	tab.ReserveTemps(10)
	if got := tab.GenerateTemp(); got != "T10" {
		t.Errorf("temp after ReserveTemps(10) = %s", got)
	}
	tab.ReserveTemps(3)
	if got := tab.GenerateTemp(); got != "T11" {
		t.Errorf("ReserveTemps should never move the counter back, got %s", got)
	}
}

func TestParseCategory(t *testing.T) {
	for c, name := range categoryNames {
		got, err := ParseCategory(name)
		if err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseCategory("bogus"); err == nil {
		t.Error("expected error for unknown category")
	}
}
