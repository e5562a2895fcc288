// Package types - Match result and run-issue types
package types

import "estimate-engine/internal/errors"

// MatchTier classifies the strength of a knowledge-base match
type MatchTier string

const (
	// TierExact is a high-quality match (name and specification agree)
	TierExact MatchTier = "exact"

	// TierPartial is a medium-quality match (name or category agrees)
	TierPartial MatchTier = "partial"

	// TierCategoryFallback is a same-category candidate used when no
	// exact/partial match exists
	TierCategoryFallback MatchTier = "category-fallback"

	// TierNone means no candidate cleared any tier
	TierNone MatchTier = "none"
)

// MatchResult is the best-matching KB entry for one item. It is ephemeral:
// the matcher writes its outcome back onto the item and discards the result.
type MatchResult struct {
	// Entry is the selected KB entry; nil for TierNone
	Entry *KBEntry

	// Score is the raw additive score of the selected entry
	Score float64

	// Tier is the match strength classification
	Tier MatchTier

	// Confidence is the normalized confidence in [0,1]
	Confidence float64

	// PriceRejected is set when the entry cleared a tier but its price
	// failed validation
	PriceRejected bool
}

// Issue is one recoverable per-item condition surfaced by a run. Issues are
// accumulated into the run report, never raised as failures.
type Issue struct {
	// Type is the error-taxonomy category
	Type errors.Type `json:"type"`

	// ItemID identifies the affected item, when known
	ItemID string `json:"item_id,omitempty"`

	// ItemName is the affected item's display name
	ItemName string `json:"item_name,omitempty"`

	// Message describes the condition
	Message string `json:"message"`
}
