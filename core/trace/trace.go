// Package trace reconstructs how each item's amount was derived: a
// classified calculation basis, a human-readable formula, and a confidence
// estimate built from how many signals corroborate each other.
package trace

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"estimate-engine/core/match"
	"estimate-engine/core/rules"
	"estimate-engine/core/textnorm"
	"estimate-engine/core/types"
)

// Basis classifies how an amount was derived
type Basis string

const (
	// BasisSubtotal is a parent item summing its children
	BasisSubtotal Basis = "subtotal"

	// BasisKBReference is a price taken from a knowledge-base match
	BasisKBReference Basis = "kb-reference"

	// BasisMaterialQuantity is unit price times quantity
	BasisMaterialQuantity Basis = "material-by-quantity"

	// BasisLumpSum is a lump-sum priced item
	BasisLumpSum Basis = "lump-sum"

	// BasisAreaEstimate is a quantity inferred from floor area
	BasisAreaEstimate Basis = "area-estimate"

	// BasisRoomEstimate is a quantity inferred from room or floor count
	BasisRoomEstimate Basis = "room-count-estimate"

	// BasisUnknown means no signal was available
	BasisUnknown Basis = "unknown"
)

// Trace is the reconstructed derivation of one item's amount
type Trace struct {
	// ItemName identifies the traced item
	ItemName string `json:"item_name"`

	// Basis is the classified derivation kind
	Basis Basis `json:"basis"`

	// Formula is the formatted calculation, when one can be produced
	Formula string `json:"formula,omitempty"`

	// KBReference is the matched KB entry id, if any
	KBReference string `json:"kb_reference,omitempty"`

	// Confidence estimates how well-corroborated the derivation is, in
	// [0,1]. Independent of the matcher's confidence.
	Confidence float64 `json:"confidence"`

	// Notes carries the estimation working, when a quantity rule applied
	Notes string `json:"notes,omitempty"`
}

// Trace-confidence increments: a classified basis starts at the base value
// and each corroborating signal (KB reference, formula) adds one increment,
// capped at 1.0.
const (
	baseConfidence     = 0.8
	signalIncrement    = 0.1
	subtotalConfidence = 0.9
)

// Classifier classifies calculation bases using the estimation rule table
type Classifier struct {
	rules *rules.Set
	units *match.UnitChecker
}

// NewClassifier creates a classifier over the given rule set
func NewClassifier(rs *rules.Set) *Classifier {
	return &Classifier{rules: rs, units: match.NewUnitChecker(rs)}
}

// Trace classifies one item. hasChildren marks subtotal nodes (per rollup);
// metrics enables the area/room-count estimation rules and may be nil.
func (c *Classifier) Trace(item *types.LineItem, hasChildren bool, metrics *types.BuildingMetrics) Trace {
	t := Trace{ItemName: item.Name, Basis: BasisUnknown}

	if hasChildren {
		t.Basis = BasisSubtotal
		t.Formula = "sum of child items"
		t.Confidence = subtotalConfidence
		return t
	}

	if len(item.PriceReferences) > 0 {
		t.Basis = BasisKBReference
		t.KBReference = item.PriceReferences[0]
	}

	if item.Quantity != nil && metrics != nil {
		c.applyEstimationRule(item, metrics, &t)
	}

	if item.UnitPrice != nil && item.Quantity != nil {
		price, qty := *item.UnitPrice, *item.Quantity
		unit := item.Unit
		if unit == "" {
			unit = "unit"
		}
		t.Basis = BasisMaterialQuantity
		if family, ok := c.units.Family(item.Unit); ok && family == match.FamilyLumpSum {
			t.Basis = BasisLumpSum
		}
		t.Formula = fmt.Sprintf("¥%s/%s × %s%s = ¥%s",
			FormatMoney(price), unit, qty.Round(0).String(), unit, FormatMoney(price.Mul(qty)))
	}

	if t.Basis != BasisUnknown {
		t.Confidence = baseConfidence
	}
	if t.KBReference != "" {
		t.Confidence += signalIncrement
	}
	if t.Formula != "" {
		t.Confidence += signalIncrement
	}
	if t.Confidence > 1 {
		t.Confidence = 1
	}

	return t
}

// applyEstimationRule applies the first keyword rule matching the item name
func (c *Classifier) applyEstimationRule(item *types.LineItem, metrics *types.BuildingMetrics, t *Trace) {
	nameNorm := textnorm.Normalize(item.Name)
	for _, rule := range c.rules.Estimation {
		if !strings.Contains(nameNorm, textnorm.Normalize(rule.Keyword)) {
			continue
		}
		switch rule.Method {
		case rules.MethodArea:
			if metrics.FloorAreaM2 != nil {
				estimated := *metrics.FloorAreaM2 * rule.Factor / 100
				t.Basis = BasisAreaEstimate
				t.Notes = fmt.Sprintf("floor area %.0f m2 × %.2f/100 m2 ≈ %.0f",
					*metrics.FloorAreaM2, rule.Factor, estimated)
			}
		case rules.MethodRooms:
			if metrics.RoomCount != nil {
				estimated := float64(*metrics.RoomCount) * rule.Factor
				t.Basis = BasisRoomEstimate
				t.Notes = fmt.Sprintf("%d rooms × %.2f/room ≈ %.0f",
					*metrics.RoomCount, rule.Factor, estimated)
			}
		case rules.MethodFloors:
			if metrics.Floors != nil {
				estimated := float64(*metrics.Floors) * rule.Factor
				t.Basis = BasisRoomEstimate
				t.Notes = fmt.Sprintf("%d floors × %.2f/floor ≈ %.0f",
					*metrics.Floors, rule.Factor, estimated)
			}
		}
		return
	}
}

// FormatMoney renders a rounded amount with thousands separators
func FormatMoney(d decimal.Decimal) string {
	s := d.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
