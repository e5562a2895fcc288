// Package types - Knowledge-base types
package types

import "github.com/shopspring/decimal"

// KBEntry is one immutable historical price observation.
//
// The knowledge base is a flat, read-only collection for the duration of one
// matching run; the engine never mutates it.
type KBEntry struct {
	// ItemID uniquely identifies this observation
	ItemID string `json:"item_id"`

	// Description is the observed item description
	Description string `json:"description"`

	// Discipline is the trade the observation came from
	Discipline Discipline `json:"discipline,omitempty"`

	// Unit is the unit label the price was observed in
	Unit string `json:"unit,omitempty"`

	// UnitPrice is the observed unit price
	UnitPrice decimal.Decimal `json:"unit_price"`

	// Vendor is the supplier, when known
	Vendor string `json:"vendor,omitempty"`

	// SourceProject is the project the observation came from
	SourceProject string `json:"source_project,omitempty"`

	// Features is a free-form feature map; "specification" is the one key
	// the scorer reads
	Features map[string]string `json:"features,omitempty"`

	// ContextTags carries arbitrary context labels
	ContextTags []string `json:"context_tags,omitempty"`
}

// Specification returns the specification feature, or ""
func (e *KBEntry) Specification() string {
	if e.Features == nil {
		return ""
	}
	return e.Features["specification"]
}
