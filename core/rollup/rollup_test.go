package rollup

import (
	"testing"

	"github.com/shopspring/decimal"

	"estimate-engine/core/types"
	"estimate-engine/internal/errors"
)

func amt(n int64) *decimal.Decimal {
	return types.DecimalPtr(decimal.NewFromInt(n))
}

// TestRollupOverwritesParent verifies a parent with children becomes a pure
// subtotal even when the matcher priced it.
func TestRollupOverwritesParent(t *testing.T) {
	parent := &types.LineItem{Name: "piping", Level: 1, Amount: amt(50), UnitPrice: amt(50)}
	items := []*types.LineItem{
		{Name: "gas work", Level: 0},
		parent,
		{Name: "pipe A", Level: 2, Amount: amt(1000)},
		{Name: "pipe B", Level: 2, Amount: amt(2000)},
	}

	tree, issues := Build(items)
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
	tree.Rollup()

	if parent.Amount == nil || !parent.Amount.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("parent amount = %v, want 3000", parent.Amount)
	}
	if parent.UnitPrice != nil {
		t.Error("parent unit price must be cleared")
	}
	if root := items[0]; root.Amount == nil || !root.Amount.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("root amount = %v, want 3000", root.Amount)
	}
}

// TestRollupRecursive verifies amounts propagate through every level
func TestRollupRecursive(t *testing.T) {
	items := []*types.LineItem{
		{Name: "root", Level: 0},
		{Name: "section", Level: 1},
		{Name: "leaf 1", Level: 2, Amount: amt(100)},
		{Name: "leaf 2", Level: 2, Amount: amt(200)},
		{Name: "section 2", Level: 1},
		{Name: "leaf 3", Level: 2, Amount: amt(700)},
	}

	tree, _ := Build(items)
	tree.Rollup()

	for i, node := range tree.Nodes {
		if len(node.Children) == 0 {
			continue
		}
		sum := decimal.Zero
		for _, c := range node.Children {
			sum = sum.Add(tree.Nodes[c].Item.AmountOrZero())
		}
		if !node.Item.AmountOrZero().Equal(sum) {
			t.Errorf("node %d amount = %v, want child sum %v", i, node.Item.Amount, sum)
		}
	}
	if !items[0].AmountOrZero().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("root amount = %v, want 1000", items[0].Amount)
	}
}

// TestRollupIdempotent verifies a second rollup changes nothing
func TestRollupIdempotent(t *testing.T) {
	items := []*types.LineItem{
		{Name: "root", Level: 0},
		{Name: "leaf 1", Level: 1, Amount: amt(100)},
		{Name: "leaf 2", Level: 1, Amount: amt(250)},
	}

	tree, _ := Build(items)
	tree.Rollup()
	first := items[0].AmountOrZero()
	tree.Rollup()
	second := items[0].AmountOrZero()

	if !first.Equal(second) {
		t.Errorf("rollup not idempotent: first %v, second %v", first, second)
	}
}

// TestBuildMalformedHierarchy reports a level jump and keeps the run alive
func TestBuildMalformedHierarchy(t *testing.T) {
	orphan := &types.LineItem{ID: "x", Name: "orphan", Level: 2, Amount: amt(500)}
	items := []*types.LineItem{
		{Name: "root", Level: 0},
		orphan,
	}

	tree, issues := Build(items)

	if len(issues) != 1 || issues[0].Type != errors.TypeMalformedHierarchy {
		t.Fatalf("issues = %+v, want one MALFORMED_HIERARCHY", issues)
	}
	if tree.Nodes[1].Parent != -1 {
		t.Error("orphan must become its own subtree root")
	}

	tree.Rollup()
	if !orphan.AmountOrZero().Equal(decimal.NewFromInt(500)) {
		t.Errorf("orphan amount = %v, want 500 untouched", orphan.Amount)
	}
	if !items[0].AmountOrZero().Equal(decimal.Zero) {
		t.Errorf("root amount = %v, want 0 (no children)", items[0].Amount)
	}
}

// TestAssignNumbers verifies hierarchical numbering from the level structure
func TestAssignNumbers(t *testing.T) {
	items := []*types.LineItem{
		{Name: "a", Level: 0},
		{Name: "b", Level: 1},
		{Name: "c", Level: 2},
		{Name: "d", Level: 2},
		{Name: "e", Level: 1},
		{Name: "f", Level: 0},
	}

	AssignNumbers(items)

	expected := []string{"1", "1.1", "1.1.1", "1.1.2", "1.2", "2"}
	for i, want := range expected {
		if items[i].ItemNo != want {
			t.Errorf("item %d number = %q, want %q", i, items[i].ItemNo, want)
		}
	}
}

// TestTradeTotals sums subtree roots per trade
func TestTradeTotals(t *testing.T) {
	items := []*types.LineItem{
		{Name: "gas", Level: 0, Discipline: types.DisciplineGas, Amount: amt(1000)},
		{Name: "leaf", Level: 1, Discipline: types.DisciplineGas, Amount: amt(1000)},
		{Name: "electrical", Level: 0, Discipline: types.DisciplineElectrical, Amount: amt(2500)},
	}

	totals := TradeTotals(items)

	if !totals[types.DisciplineGas].Equal(decimal.NewFromInt(1000)) {
		t.Errorf("gas total = %v, want 1000", totals[types.DisciplineGas])
	}
	if !totals[types.DisciplineElectrical].Equal(decimal.NewFromInt(2500)) {
		t.Errorf("electrical total = %v, want 2500", totals[types.DisciplineElectrical])
	}
	if len(totals) != 2 {
		t.Errorf("totals = %v, want two trades", totals)
	}
}
