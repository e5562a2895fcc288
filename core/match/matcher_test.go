package match

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"estimate-engine/core/rules"
	"estimate-engine/core/types"
	"estimate-engine/internal/errors"
)

func newTestMatcher(kb []*types.KBEntry) *Matcher {
	return NewMatcher(kb, rules.Default(), DefaultConfig())
}

// TestEnrichExactMatch prices a clean exact match end to end
func TestEnrichExactMatch(t *testing.T) {
	kb := []*types.KBEntry{
		{
			ItemID:      "kb-1",
			Description: "white gas pipe",
			Discipline:  types.DisciplineGas,
			Unit:        "m",
			UnitPrice:   decimal.NewFromInt(8990),
			Features:    map[string]string{"specification": "15A"},
		},
	}
	item := &types.LineItem{
		ID:            "item-1",
		Name:          "white gas pipe",
		Specification: "15A",
		Discipline:    types.DisciplineGas,
		Level:         1,
		Quantity:      types.DecimalPtr(decimal.NewFromInt(93)),
		Unit:          "m",
	}

	issues := newTestMatcher(kb).Enrich(context.Background(), []*types.LineItem{item})

	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
	if item.UnitPrice == nil || !item.UnitPrice.Equal(decimal.NewFromInt(8990)) {
		t.Fatalf("unit price = %v, want 8990", item.UnitPrice)
	}
	if item.Amount == nil || !item.Amount.Equal(decimal.NewFromInt(836070)) {
		t.Fatalf("amount = %v, want 836070", item.Amount)
	}
	if item.Confidence == nil || *item.Confidence < 0.5 {
		t.Fatalf("confidence = %v, want >= 0.5", item.Confidence)
	}
	if len(item.PriceReferences) != 1 || item.PriceReferences[0] != "kb-1" {
		t.Fatalf("price references = %v, want [kb-1]", item.PriceReferences)
	}
}

// TestEnrichPriceRejected verifies a matched but implausible price is
// withheld and the confidence halved.
func TestEnrichPriceRejected(t *testing.T) {
	kb := []*types.KBEntry{
		{
			ItemID:      "kb-cubicle",
			Description: "cubicle",
			Unit:        "set",
			UnitPrice:   decimal.NewFromInt(400000),
		},
	}
	item := &types.LineItem{
		ID:       "item-1",
		Name:     "cubicle",
		Level:    1,
		Quantity: types.DecimalPtr(decimal.NewFromInt(1)),
		Unit:     "set",
	}

	matcher := newTestMatcher(kb)
	result := matcher.Match(item, matcher.ProfileKB())
	if !result.PriceRejected {
		t.Fatal("price should be rejected below the cubicle minimum")
	}
	matchedConfidence := result.Confidence

	issues := matcher.Enrich(context.Background(), []*types.LineItem{item})

	if item.UnitPrice != nil || item.Amount != nil {
		t.Error("rejected price must not be applied")
	}
	if item.Confidence == nil || !almostEqual(*item.Confidence, matchedConfidence*0.5) {
		t.Errorf("confidence = %v, want matched confidence %v halved", item.Confidence, matchedConfidence)
	}
	if len(issues) != 1 || issues[0].Type != errors.TypePriceRejected {
		t.Errorf("issues = %+v, want one PRICE_REJECTED", issues)
	}
}

// TestMatchUnitVeto verifies an incompatible unit forces tier none
func TestMatchUnitVeto(t *testing.T) {
	kb := []*types.KBEntry{
		{ItemID: "kb-1", Description: "equipment base", Unit: "location", UnitPrice: decimal.NewFromInt(12000)},
	}
	item := &types.LineItem{
		Name:     "equipment base",
		Level:    1,
		Quantity: types.DecimalPtr(decimal.NewFromInt(2)),
		Unit:     "lot",
	}

	matcher := newTestMatcher(kb)
	result := matcher.Match(item, matcher.ProfileKB())

	if result.Tier != types.TierNone {
		t.Errorf("tier = %v, want none", result.Tier)
	}
	if result.Score != 0 {
		t.Errorf("score = %v, want 0", result.Score)
	}
}

// TestEnrichNoMatch surfaces a NO_MATCH issue and leaves the item unpriced
func TestEnrichNoMatch(t *testing.T) {
	item := &types.LineItem{
		ID:       "item-1",
		Name:     "mystery component",
		Level:    1,
		Quantity: types.DecimalPtr(decimal.NewFromInt(1)),
	}

	issues := newTestMatcher(nil).Enrich(context.Background(), []*types.LineItem{item})

	if item.UnitPrice != nil {
		t.Error("item must stay unpriced with no KB")
	}
	if len(issues) != 1 || issues[0].Type != errors.TypeNoMatch {
		t.Errorf("issues = %+v, want one NO_MATCH", issues)
	}
}

// TestEnrichPassthrough leaves roots and quantity-less items untouched
func TestEnrichPassthrough(t *testing.T) {
	kb := []*types.KBEntry{
		{ItemID: "kb-1", Description: "white gas pipe", Unit: "m", UnitPrice: decimal.NewFromInt(8990)},
	}
	root := &types.LineItem{Name: "white gas pipe", Level: 0, Quantity: types.DecimalPtr(decimal.NewFromInt(1)), Unit: "m"}
	noQty := &types.LineItem{Name: "white gas pipe", Level: 1, Unit: "m"}

	issues := newTestMatcher(kb).Enrich(context.Background(), []*types.LineItem{root, noQty})

	if len(issues) != 0 {
		t.Errorf("unexpected issues: %+v", issues)
	}
	if root.UnitPrice != nil || noQty.UnitPrice != nil {
		t.Error("non-priceable items must pass through untouched")
	}
	if root.Confidence != nil || noQty.Confidence != nil {
		t.Error("non-priceable items must not receive a confidence")
	}
}

// TestMatchMonotonicity verifies a strictly better KB entry cannot decrease
// the recorded confidence.
func TestMatchMonotonicity(t *testing.T) {
	item := &types.LineItem{
		Name:          "white gas pipe",
		Specification: "15A",
		Level:         1,
		Quantity:      types.DecimalPtr(decimal.NewFromInt(10)),
		Unit:          "m",
	}

	weak := &types.KBEntry{ItemID: "kb-weak", Description: "gas pipe", Unit: "m", UnitPrice: decimal.NewFromInt(5000)}
	strong := &types.KBEntry{ItemID: "kb-strong", Description: "white gas pipe", Unit: "m",
		UnitPrice: decimal.NewFromInt(8990), Features: map[string]string{"specification": "15A"}}

	weakMatcher := newTestMatcher([]*types.KBEntry{weak})
	before := weakMatcher.Match(item, weakMatcher.ProfileKB())

	bothMatcher := newTestMatcher([]*types.KBEntry{weak, strong})
	after := bothMatcher.Match(item, bothMatcher.ProfileKB())

	if after.Confidence < before.Confidence {
		t.Errorf("confidence decreased from %v to %v after adding a better entry",
			before.Confidence, after.Confidence)
	}
	if after.Entry.ItemID != "kb-strong" {
		t.Errorf("best entry = %v, want kb-strong", after.Entry.ItemID)
	}
}

// TestEnrichConfidenceBounds verifies every recorded confidence is in [0,1]
func TestEnrichConfidenceBounds(t *testing.T) {
	kb := []*types.KBEntry{
		{ItemID: "kb-1", Description: "white gas pipe", Unit: "m", UnitPrice: decimal.NewFromInt(8990), Features: map[string]string{"specification": "15A"}},
		{ItemID: "kb-2", Description: "gas outlet", Unit: "piece", UnitPrice: decimal.NewFromInt(4500)},
		{ItemID: "kb-3", Description: "cubicle", Unit: "set", UnitPrice: decimal.NewFromInt(400000)},
	}
	items := []*types.LineItem{
		{Name: "white gas pipe", Specification: "15A", Level: 1, Quantity: types.DecimalPtr(decimal.NewFromInt(93)), Unit: "m"},
		{Name: "gas outlet", Level: 1, Quantity: types.DecimalPtr(decimal.NewFromInt(4)), Unit: "piece"},
		{Name: "cubicle", Level: 1, Quantity: types.DecimalPtr(decimal.NewFromInt(1)), Unit: "set"},
		{Name: "unmatched oddity", Level: 1, Quantity: types.DecimalPtr(decimal.NewFromInt(1))},
	}

	newTestMatcher(kb).Enrich(context.Background(), items)

	for _, item := range items {
		if item.Confidence == nil {
			continue
		}
		if *item.Confidence < 0 || *item.Confidence > 1 {
			t.Errorf("%s: confidence %v out of [0,1]", item.Name, *item.Confidence)
		}
	}
}
