// Package rollup recomputes subtotal amounts bottom-up through the implicit
// item hierarchy.
//
// Tree structure is encoded by the level integer over the flat ordered item
// sequence: a node's children are the maximal run of immediately-following
// items whose level is exactly one deeper. Build materializes that encoding
// into an index arena once, in O(n); rollup and numbering then operate on
// indices instead of re-scanning ranges.
package rollup

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"estimate-engine/core/types"
	"estimate-engine/internal/errors"
	"estimate-engine/internal/logging"
)

// Node is one arena slot
type Node struct {
	// Item is the underlying line item
	Item *types.LineItem

	// Parent is the parent's arena index, or -1 for a subtree root
	Parent int

	// Children lists child arena indices in document order
	Children []int
}

// Tree is the materialized item hierarchy
type Tree struct {
	Nodes []Node
}

// Build constructs the arena from the flat item sequence. An item whose
// level has no reachable parent (a level jump past its ancestors) is
// reported as a malformed-hierarchy issue and treated as its own subtree
// root rather than failing the run.
func Build(items []*types.LineItem) (*Tree, []types.Issue) {
	tree := &Tree{Nodes: make([]Node, len(items))}
	var issues []types.Issue

	// stack holds the arena indices of the current ancestor chain
	var stack []int

	for i, item := range items {
		tree.Nodes[i] = Node{Item: item, Parent: -1}

		for len(stack) > 0 && tree.Nodes[stack[len(stack)-1]].Item.Level >= item.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) > 0 && tree.Nodes[stack[len(stack)-1]].Item.Level == item.Level-1 {
			parent := stack[len(stack)-1]
			tree.Nodes[i].Parent = parent
			tree.Nodes[parent].Children = append(tree.Nodes[parent].Children, i)
		} else if item.Level > 0 {
			issues = append(issues, types.Issue{
				Type:     errors.TypeMalformedHierarchy,
				ItemID:   item.ID,
				ItemName: item.Name,
				Message:  "item level has no reachable parent; treated as its own subtotal root",
			})
			logging.Warn("malformed hierarchy",
				zap.String("item", item.Name),
				zap.Int("level", item.Level),
				zap.Int("position", i))
		}

		stack = append(stack, i)
	}

	return tree, issues
}

// Rollup recomputes every parent amount from its children, bottom-up. A
// node with children is always a pure subtotal: its amount becomes the child
// sum (overwriting any matched amount) and its unit price is cleared.
// Leaves keep whatever the matcher assigned. Rollup is idempotent.
func (t *Tree) Rollup() {
	// Children always follow their parent in document order, so a single
	// reverse pass finalizes every child before its parent reads it.
	for i := len(t.Nodes) - 1; i >= 0; i-- {
		node := &t.Nodes[i]
		if len(node.Children) == 0 {
			continue
		}

		sum := decimal.Zero
		for _, c := range node.Children {
			sum = sum.Add(t.Nodes[c].Item.AmountOrZero())
		}
		node.Item.Amount = &sum
		node.Item.UnitPrice = nil
	}
}

// AssignNumbers assigns hierarchical item numbers ("1", "1.1", "1.1.1",
// "1.2", "2", ...) from the level structure.
func AssignNumbers(items []*types.LineItem) {
	counters := map[int]int{}
	var stack []int

	for _, item := range items {
		for l := range counters {
			if l > item.Level {
				counters[l] = 0
			}
		}
		counters[item.Level]++

		if item.Level < len(stack) {
			stack = stack[:item.Level]
		}
		for len(stack) < item.Level {
			stack = append(stack, 1)
		}
		stack = append(stack, counters[item.Level])

		item.ItemNo = joinNumbers(stack)
	}
}

func joinNumbers(stack []int) string {
	parts := make([]string, len(stack))
	for i, n := range stack {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// TradeTotals sums subtree-root amounts per trade
func TradeTotals(items []*types.LineItem) map[types.Discipline]decimal.Decimal {
	totals := make(map[types.Discipline]decimal.Decimal)
	for _, item := range items {
		if item.Level != 0 {
			continue
		}
		totals[item.Discipline] = totals[item.Discipline].Add(item.AmountOrZero())
	}
	return totals
}
