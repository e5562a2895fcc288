// Package match - Price validation
package match

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"estimate-engine/core/rules"
	"estimate-engine/core/textnorm"
	"estimate-engine/internal/logging"
)

// Validator rejects candidate prices that are implausible for the item they
// would be applied to: too low for recognized high-value equipment, too high
// for recognized small items, or beyond per-unit sanity ceilings.
type Validator struct {
	rules *rules.Set
}

// NewValidator creates a validator over the given rule set
func NewValidator(rs *rules.Set) *Validator {
	return &Validator{rules: rs}
}

// ValidPrice reports whether price is plausible for an item named itemName.
// Items whose names contain an exclusion keyword (parts, service work,
// maintenance) skip validation entirely.
func (v *Validator) ValidPrice(itemName string, price decimal.Decimal) bool {
	for _, kw := range v.rules.HighValueExclusions {
		if strings.Contains(itemName, kw) {
			return true
		}
	}

	nameNorm := textnorm.Normalize(itemName)

	for keyword, minimum := range v.rules.HighValueMinimums {
		if strings.Contains(nameNorm, textnorm.Normalize(keyword)) && price.LessThan(minimum) {
			logging.Warn("price below minimum for high-value equipment",
				zap.String("item", itemName),
				zap.String("price", price.String()),
				zap.String("minimum", minimum.String()))
			return false
		}
	}

	for keyword, maximum := range v.rules.MaxPriceCaps {
		if strings.Contains(nameNorm, textnorm.Normalize(keyword)) && price.GreaterThan(maximum) {
			logging.Warn("price above cap for small item",
				zap.String("item", itemName),
				zap.String("price", price.String()),
				zap.String("maximum", maximum.String()))
			return false
		}
	}

	return true
}

// SanePrice rejects runaway matches: a unit price beyond the per-unit
// ceiling, or a single-item amount beyond the absolute ceiling.
func (v *Validator) SanePrice(itemName, unit string, price, quantity decimal.Decimal) bool {
	unitNorm := textnorm.Normalize(unit)

	for unitKey, ceiling := range v.rules.UnitPriceCeilings {
		if unitNorm == textnorm.Normalize(unitKey) && price.GreaterThan(ceiling) {
			logging.Warn("unit price above ceiling",
				zap.String("item", itemName),
				zap.String("unit", unit),
				zap.String("price", price.String()),
				zap.String("ceiling", ceiling.String()))
			return false
		}
	}

	if amount := price.Mul(quantity); amount.GreaterThan(v.rules.MaxItemAmount) {
		logging.Warn("item amount above absolute ceiling",
			zap.String("item", itemName),
			zap.String("amount", amount.String()))
		return false
	}

	return true
}
