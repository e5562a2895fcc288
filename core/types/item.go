// Package types defines the estimate data model shared by all engine stages.
package types

import "github.com/shopspring/decimal"

// Discipline is a trade/category tag on items and knowledge-base entries
type Discipline string

const (
	DisciplineElectrical Discipline = "electrical equipment work"
	DisciplineMechanical Discipline = "mechanical equipment work"
	DisciplinePlumbing   Discipline = "plumbing equipment work"
	DisciplineGas        Discipline = "gas equipment work"
	DisciplineHVAC       Discipline = "hvac equipment work"
	DisciplineFire       Discipline = "fire protection work"

	// DisciplineGeneral is the any-trade wildcard: a KB entry tagged with it
	// may serve an item in any trade.
	DisciplineGeneral Discipline = "general equipment work"
)

// String returns the string representation
func (d Discipline) String() string {
	return string(d)
}

// LineItem is one row of a generated cost estimate.
//
// Items form an ordered, implicit tree: a node's children are the maximal run
// of immediately-following items whose Level equals Level+1. Pricing fields
// are nullable; a nil Quantity marks the item as not priceable.
type LineItem struct {
	// ID uniquely identifies this item
	ID string `json:"id"`

	// ItemNo is the hierarchical number ("1.2.3"), assigned after rollup
	ItemNo string `json:"item_no,omitempty"`

	// Name is the display name
	Name string `json:"name"`

	// Specification is the free-text specification ("15A", "600V IV" ...)
	Specification string `json:"specification,omitempty"`

	// Discipline is the trade this item belongs to
	Discipline Discipline `json:"discipline,omitempty"`

	// Level encodes the tree depth (0 is a subtree root)
	Level int `json:"level"`

	// Quantity is the usage quantity; nil means not priceable
	Quantity *decimal.Decimal `json:"quantity,omitempty"`

	// Unit is the unit label ("m", "piece", "lot" ...)
	Unit string `json:"unit,omitempty"`

	// UnitPrice is the matched unit price; nil until matched
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`

	// Amount is Quantity * UnitPrice for leaves, the child sum for subtotals
	Amount *decimal.Decimal `json:"amount,omitempty"`

	// Confidence is the match confidence in [0,1]; nil when never matched
	Confidence *float64 `json:"confidence,omitempty"`

	// PriceReferences lists the KB entry ids this item's price came from
	PriceReferences []string `json:"price_references,omitempty"`

	// SourceReference is a free-text provenance note
	SourceReference string `json:"source_reference,omitempty"`
}

// Priceable reports whether the matcher should attempt to price this item
func (it *LineItem) Priceable() bool {
	return it.Level > 0 && it.Quantity != nil
}

// AmountOrZero returns the amount, treating nil as zero
func (it *LineItem) AmountOrZero() decimal.Decimal {
	if it.Amount == nil {
		return decimal.Zero
	}
	return *it.Amount
}

// BuildingMetrics carries the building-level quantities used by the
// area/room-count estimation rules. All fields are optional.
type BuildingMetrics struct {
	// FloorAreaM2 is the total floor area in square meters
	FloorAreaM2 *float64 `json:"floor_area_m2,omitempty"`

	// Floors is the number of floors
	Floors *int `json:"floors,omitempty"`

	// RoomCount is the number of rooms
	RoomCount *int `json:"room_count,omitempty"`
}

// DecimalPtr returns a pointer to d. Convenience for building nullable fields.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// FloatPtr returns a pointer to f
func FloatPtr(f float64) *float64 {
	return &f
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}
