// Package match - Unit compatibility
package match

import (
	"estimate-engine/core/rules"
	"estimate-engine/core/textnorm"
)

// UnitCompatibility classifies how two unit labels relate
type UnitCompatibility int

const (
	// UnitIncompatible units belong to mutually-exclusive families; the
	// candidate is vetoed regardless of other signals
	UnitIncompatible UnitCompatibility = iota

	// UnitLoose units are plausibly the same measure
	UnitLoose

	// UnitEqual units are identical after normalization
	UnitEqual
)

// UnitFamily groups unit labels that measure the same kind of thing
type UnitFamily int

const (
	FamilyLumpSum UnitFamily = iota
	FamilyCount
	FamilyLength
)

// UnitChecker decides whether two unit labels denote the same measure
type UnitChecker struct {
	families map[string]UnitFamily
}

// NewUnitChecker builds a checker from the rule set's unit families
func NewUnitChecker(rs *rules.Set) *UnitChecker {
	families := make(map[string]UnitFamily)
	for _, u := range rs.LumpSumUnits {
		families[textnorm.Normalize(u)] = FamilyLumpSum
	}
	for _, u := range rs.CountUnits {
		families[textnorm.Normalize(u)] = FamilyCount
	}
	for _, u := range rs.LengthUnits {
		families[textnorm.Normalize(u)] = FamilyLength
	}
	return &UnitChecker{families: families}
}

// Family returns the unit's family, if it belongs to a known one
func (c *UnitChecker) Family(unit string) (UnitFamily, bool) {
	f, ok := c.families[textnorm.Normalize(unit)]
	return f, ok
}

// Compatible classifies the pair. Units from two different known families
// are incompatible; identical normalized forms are equal; everything else,
// including an empty side, is loose.
func (c *UnitChecker) Compatible(unitA, unitB string) UnitCompatibility {
	a := textnorm.Normalize(unitA)
	b := textnorm.Normalize(unitB)

	if a == b {
		return UnitEqual
	}
	if a == "" || b == "" {
		return UnitLoose
	}

	fa, okA := c.families[a]
	fb, okB := c.families[b]
	if okA && okB && fa != fb {
		return UnitIncompatible
	}

	return UnitLoose
}
