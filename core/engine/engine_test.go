package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"estimate-engine/core/match"
	"estimate-engine/core/rules"
	"estimate-engine/core/types"
	"estimate-engine/internal/errors"
)

// TestRunPipeline runs matching, rollup and verification end to end
func TestRunPipeline(t *testing.T) {
	items := []*types.LineItem{
		{ID: "root", Name: "gas piping", Discipline: types.DisciplineGas, Level: 0},
		{
			ID: "leaf", Name: "white gas pipe", Specification: "15A",
			Discipline: types.DisciplineGas, Level: 1,
			Quantity: types.DecimalPtr(decimal.NewFromInt(93)), Unit: "m",
		},
	}
	kb := []*types.KBEntry{
		{
			ItemID: "kb-1", Description: "white gas pipe", Discipline: types.DisciplineGas,
			Unit: "m", UnitPrice: decimal.NewFromInt(8990),
			Features: map[string]string{"specification": "15A"},
		},
	}

	eng := NewEngine(rules.Default(), match.DefaultConfig())
	result, err := eng.Run(context.Background(), &RunRequest{Items: items, KB: kb})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	leaf, root := items[1], items[0]
	if leaf.Amount == nil || !leaf.Amount.Equal(decimal.NewFromInt(836070)) {
		t.Errorf("leaf amount = %v, want 836070", leaf.Amount)
	}
	if root.Amount == nil || !root.Amount.Equal(decimal.NewFromInt(836070)) {
		t.Errorf("root amount = %v, want rolled-up 836070", root.Amount)
	}
	if root.UnitPrice != nil {
		t.Error("root unit price must stay nil")
	}
	if root.ItemNo != "1" || leaf.ItemNo != "1.1" {
		t.Errorf("item numbers = %q, %q, want 1 and 1.1", root.ItemNo, leaf.ItemNo)
	}

	if result.Report == nil {
		t.Fatal("report missing")
	}
	if result.Report.Summary.TotalItems != 2 {
		t.Errorf("report items = %d, want 2", result.Report.Summary.TotalItems)
	}
	if total := result.Report.TradeTotals[types.DisciplineGas]; !total.Equal(decimal.NewFromInt(836070)) {
		t.Errorf("gas trade total = %v, want 836070", total)
	}
	if len(result.Issues) != 0 {
		t.Errorf("unexpected issues: %+v", result.Issues)
	}
}

// TestRunAccumulatesIssues keeps the run alive across item failures
func TestRunAccumulatesIssues(t *testing.T) {
	items := []*types.LineItem{
		{ID: "root", Name: "work", Level: 0},
		{ID: "odd", Name: "mystery component", Level: 1, Quantity: types.DecimalPtr(decimal.NewFromInt(1))},
		{ID: "orphan", Name: "orphan", Level: 3},
	}

	eng := NewEngine(rules.Default(), match.DefaultConfig())
	result, err := eng.Run(context.Background(), &RunRequest{Items: items})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var sawNoMatch, sawMalformed bool
	for _, issue := range result.Issues {
		switch issue.Type {
		case errors.TypeNoMatch:
			sawNoMatch = true
		case errors.TypeMalformedHierarchy:
			sawMalformed = true
		}
	}
	if !sawNoMatch || !sawMalformed {
		t.Errorf("issues = %+v, want NO_MATCH and MALFORMED_HIERARCHY", result.Issues)
	}
}

// TestRunRequiresItems rejects an empty request
func TestRunRequiresItems(t *testing.T) {
	eng := NewEngine(rules.Default(), match.DefaultConfig())

	if _, err := eng.Run(context.Background(), nil); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("error = %v, want INPUT_ERROR", err)
	}
	if _, err := eng.Run(context.Background(), &RunRequest{}); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("error = %v, want INPUT_ERROR", err)
	}
}
