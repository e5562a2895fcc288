// Package rules - HCL rules file loading
package rules

import (
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/shopspring/decimal"

	"estimate-engine/core/types"
	"estimate-engine/internal/errors"
)

// ruleFile is the HCL schema of a rules file. Every section is optional;
// anything absent keeps the compiled-in default.
type ruleFile struct {
	CategoryKeywords    []string `hcl:"category_keywords,optional"`
	HighValueExclusions []string `hcl:"high_value_exclusions,optional"`
	MaxItemAmount       *float64 `hcl:"max_item_amount,optional"`

	Synonyms          []synonymBlock     `hcl:"synonym,block"`
	HighValues        []priceBoundBlock  `hcl:"high_value,block"`
	MaxPrices         []priceBoundBlock  `hcl:"max_price,block"`
	UnitCeilings      []priceBoundBlock  `hcl:"unit_ceiling,block"`
	Units             *unitFamiliesBlock `hcl:"units,block"`
	DisciplineAliases []aliasBlock       `hcl:"discipline_alias,block"`
	Estimations       []estimationBlock  `hcl:"estimation,block"`
}

type synonymBlock struct {
	Term  string   `hcl:"term,label"`
	Terms []string `hcl:"terms"`
}

type priceBoundBlock struct {
	Keyword string  `hcl:"keyword,label"`
	Price   float64 `hcl:"price"`
}

type unitFamiliesBlock struct {
	LumpSum []string `hcl:"lump_sum,optional"`
	Count   []string `hcl:"count,optional"`
	Length  []string `hcl:"length,optional"`
}

type aliasBlock struct {
	Short string `hcl:"short,label"`
	Full  string `hcl:"full"`
}

type estimationBlock struct {
	Keyword string  `hcl:"keyword,label"`
	Method  string  `hcl:"method"`
	Factor  float64 `hcl:"factor"`
}

// Load reads an HCL rules file and overlays it on the default tables.
// An empty path returns the defaults unchanged.
func Load(path string) (*Set, error) {
	set := Default()
	if path == "" {
		return set, nil
	}

	var file ruleFile
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return nil, errors.Config("failed to parse rules file", err).
			WithContext("path", path)
	}

	if len(file.CategoryKeywords) > 0 {
		set.CategoryKeywords = file.CategoryKeywords
	}
	if len(file.HighValueExclusions) > 0 {
		set.HighValueExclusions = file.HighValueExclusions
	}
	if file.MaxItemAmount != nil {
		set.MaxItemAmount = decimal.NewFromFloat(*file.MaxItemAmount)
	}
	for _, b := range file.Synonyms {
		set.Synonyms[b.Term] = b.Terms
	}
	for _, b := range file.HighValues {
		set.HighValueMinimums[b.Keyword] = decimal.NewFromFloat(b.Price)
	}
	for _, b := range file.MaxPrices {
		set.MaxPriceCaps[b.Keyword] = decimal.NewFromFloat(b.Price)
	}
	for _, b := range file.UnitCeilings {
		set.UnitPriceCeilings[b.Keyword] = decimal.NewFromFloat(b.Price)
	}
	if file.Units != nil {
		if len(file.Units.LumpSum) > 0 {
			set.LumpSumUnits = file.Units.LumpSum
		}
		if len(file.Units.Count) > 0 {
			set.CountUnits = file.Units.Count
		}
		if len(file.Units.Length) > 0 {
			set.LengthUnits = file.Units.Length
		}
	}
	for _, b := range file.DisciplineAliases {
		set.DisciplineAliases[b.Short] = types.Discipline(b.Full)
	}
	for _, b := range file.Estimations {
		method := EstimationMethod(b.Method)
		switch method {
		case MethodArea, MethodRooms, MethodFloors:
		default:
			return nil, errors.Newf(errors.TypeConfig,
				"unknown estimation method %q for keyword %q", b.Method, b.Keyword)
		}
		set.Estimation = append(set.Estimation, EstimationRule{
			Keyword: b.Keyword,
			Method:  method,
			Factor:  b.Factor,
		})
	}

	return set, nil
}
