package match

import (
	"testing"

	"estimate-engine/core/rules"
)

// TestUnitCompatible tests unit-pair classification
func TestUnitCompatible(t *testing.T) {
	checker := NewUnitChecker(rules.Default())

	tests := []struct {
		name     string
		unitA    string
		unitB    string
		expected UnitCompatibility
	}{
		{name: "identical units", unitA: "m", unitB: "m", expected: UnitEqual},
		{name: "case folded equal", unitA: "M", unitB: "m", expected: UnitEqual},
		{name: "lump sum vs count", unitA: "lot", unitB: "location", expected: UnitIncompatible},
		{name: "length vs count", unitA: "m", unitB: "piece", expected: UnitIncompatible},
		{name: "lump sum vs length", unitA: "set", unitB: "meter", expected: UnitIncompatible},
		{name: "japanese families", unitA: "式", unitB: "個", expected: UnitIncompatible},
		{name: "same family not equal", unitA: "piece", unitB: "point", expected: UnitLoose},
		{name: "one side empty", unitA: "", unitB: "m", expected: UnitLoose},
		{name: "both empty", unitA: "", unitB: "", expected: UnitEqual},
		{name: "unknown unit", unitA: "hose", unitB: "m", expected: UnitLoose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.Compatible(tt.unitA, tt.unitB)
			if got != tt.expected {
				t.Errorf("Compatible(%q, %q) = %v, want %v", tt.unitA, tt.unitB, got, tt.expected)
			}
		})
	}
}

// TestUnitFamily tests family lookup
func TestUnitFamily(t *testing.T) {
	checker := NewUnitChecker(rules.Default())

	if f, ok := checker.Family("set"); !ok || f != FamilyLumpSum {
		t.Errorf("Family(set) = %v, %v, want lump sum", f, ok)
	}
	if f, ok := checker.Family("箇所"); !ok || f != FamilyCount {
		t.Errorf("Family(箇所) = %v, %v, want count", f, ok)
	}
	if _, ok := checker.Family("hose"); ok {
		t.Error("Family(hose) should be unknown")
	}
}
