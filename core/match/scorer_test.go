package match

import (
	"math"
	"testing"

	"estimate-engine/core/rules"
	"estimate-engine/core/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestScore tests the additive scoring signals
func TestScore(t *testing.T) {
	scorer := NewScorer(rules.Default())

	tests := []struct {
		name     string
		item     *types.LineItem
		entry    *types.KBEntry
		expected float64
	}{
		{
			name:     "exact name, category, spec and unit",
			item:     &types.LineItem{Name: "white gas pipe", Specification: "15A", Unit: "m"},
			entry:    &types.KBEntry{Description: "white gas pipe", Unit: "m", Features: map[string]string{"specification": "15A"}},
			expected: ScoreNameExact + ScoreCategoryMatch + ScoreSpecExact + ScoreUnitEqual, // 5.0
		},
		{
			name:     "synonym outranks containment",
			item:     &types.LineItem{Name: "sgp", Unit: "m"},
			entry:    &types.KBEntry{Description: "white gas pipe", Unit: "m"},
			expected: ScoreNameSynonym + ScoreUnitEqual,
		},
		{
			name:     "name containment",
			item:     &types.LineItem{Name: "pvc drain pipe", Unit: "m"},
			entry:    &types.KBEntry{Description: "drain pipe", Unit: "m"},
			expected: ScoreNameContains + ScoreUnitEqual,
		},
		{
			name:     "shared token",
			item:     &types.LineItem{Name: "insulated flange joint", Unit: "piece"},
			entry:    &types.KBEntry{Description: "flange gasket packing", Unit: "piece"},
			expected: ScoreNameToken + ScoreUnitEqual,
		},
		{
			name:     "size token match",
			item:     &types.LineItem{Name: "white gas pipe", Specification: "SGP 15A screw", Unit: "m"},
			entry:    &types.KBEntry{Description: "white gas pipe", Unit: "m", Features: map[string]string{"specification": "15A"}},
			expected: ScoreNameExact + ScoreCategoryMatch + ScoreSizeMatch + ScoreUnitEqual,
		},
		{
			name:     "loose unit",
			item:     &types.LineItem{Name: "white gas pipe", Unit: "roll"},
			entry:    &types.KBEntry{Description: "white gas pipe", Unit: "coil"},
			expected: ScoreNameExact + ScoreCategoryMatch + ScoreUnitLoose,
		},
		{
			name:     "nothing in common",
			item:     &types.LineItem{Name: "scaffolding", Unit: "m"},
			entry:    &types.KBEntry{Description: "breaker", Unit: "m"},
			expected: ScoreUnitEqual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scorer.Score(tt.item, tt.entry)
			if !ok {
				t.Fatal("candidate unexpectedly vetoed")
			}
			if !almostEqual(got, tt.expected) {
				t.Errorf("Score = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestScoreUnitVeto verifies incompatible units discard the candidate
// regardless of every other signal.
func TestScoreUnitVeto(t *testing.T) {
	scorer := NewScorer(rules.Default())

	item := &types.LineItem{Name: "equipment base", Specification: "type A", Unit: "lot"}
	entry := &types.KBEntry{Description: "equipment base", Unit: "location",
		Features: map[string]string{"specification": "type A"}}

	score, ok := scorer.Score(item, entry)
	if ok {
		t.Error("incompatible units must veto the candidate")
	}
	if score != 0 {
		t.Errorf("vetoed score = %v, want 0", score)
	}
}
