// Package rules holds the keyword tables that drive matching: synonyms,
// category keywords, price-validation bounds, unit families, discipline
// aliases and quantity-estimation factors.
//
// The tables are data, not code: they can be extended through an HCL rules
// file (see Load) without touching the scoring logic. Default returns the
// compiled-in tables.
package rules

import (
	"github.com/shopspring/decimal"

	"estimate-engine/core/types"
)

// EstimationMethod selects which building metric an estimation rule scales
type EstimationMethod string

const (
	MethodArea   EstimationMethod = "area"
	MethodRooms  EstimationMethod = "rooms"
	MethodFloors EstimationMethod = "floors"
)

// EstimationRule infers a quantity basis from an item-name keyword
type EstimationRule struct {
	// Keyword is matched as a substring of the item name
	Keyword string

	// Method selects the building metric to scale
	Method EstimationMethod

	// Factor is units per 100 m2 for area rules, units per room/floor
	// otherwise
	Factor float64
}

// Set is one complete rule configuration. A Set is read-only once built.
type Set struct {
	// Synonyms maps a canonical term to its interchangeable terms
	Synonyms map[string][]string

	// CategoryKeywords is the ordered coarse-category keyword list;
	// the first keyword found in a name wins
	CategoryKeywords []string

	// HighValueMinimums maps equipment-name keywords to the minimum
	// plausible unit price
	HighValueMinimums map[string]decimal.Decimal

	// HighValueExclusions skips price validation for service-like items
	// (inspection, piping, removal...) whose names contain these keywords
	HighValueExclusions []string

	// MaxPriceCaps maps small-item keywords to a maximum plausible unit
	// price, rejecting runaway mismatches
	MaxPriceCaps map[string]decimal.Decimal

	// UnitPriceCeilings caps the unit price per unit label
	UnitPriceCeilings map[string]decimal.Decimal

	// MaxItemAmount is the absolute single-item amount ceiling
	MaxItemAmount decimal.Decimal

	// LumpSumUnits, CountUnits and LengthUnits are the mutually-exclusive
	// unit families; units from different families never match
	LumpSumUnits []string
	CountUnits   []string
	LengthUnits  []string

	// DisciplineAliases maps short-form trade names to full names
	DisciplineAliases map[string]types.Discipline

	// Estimation is the ordered keyword -> scaling-factor table used by
	// trace classification
	Estimation []EstimationRule
}

// Default returns the compiled-in rule tables.
func Default() *Set {
	return &Set{
		Synonyms: map[string][]string{
			// Electrical - power receiving
			"cubicle":           {"high-voltage substation", "switchgear", "substation equipment", "high-voltage panel"},
			"transformer":       {"trans", "dry-type transformer", "oil-immersed transformer", "single-phase transformer"},
			"circuit breaker":   {"vcb", "vacuum breaker", "acb", "mccb", "breaker"},
			"air break switch":  {"pas", "pole-mounted switch", "load break switch", "lbs"},
			"crosslinked cable": {"cv", "cvt", "high-voltage cable", "cv cable", "cvt cable"},
			// Electrical - wiring and panels
			"distribution board": {"power panel", "lighting panel", "switchboard"},
			"control panel":      {"operation panel", "monitoring panel", "supervisory panel"},
			"conduit":            {"steel conduit", "pf conduit", "cd conduit", "resin conduit"},
			"cable rack":         {"rack", "cable tray", "wiring duct"},
			"grounding":          {"earth", "ground electrode", "class a grounding", "class d grounding"},
			// Electrical - lighting and low voltage
			"led lighting":       {"led", "led fixture", "lighting fixture", "led baselight"},
			"emergency lighting": {"exit light", "evacuation guide light", "emergency lamp"},
			"fire alarm system":  {"fire alarm", "smoke detector", "heat detector"},
			"lan wiring":         {"data outlet", "lan outlet", "cat6"},
			"intercom":           {"interphone", "door phone", "call system"},
			// Mechanical - HVAC
			"air-source heat pump":     {"air conditioner", "packaged air conditioner", "heat pump", "ehp", "pac"},
			"gas heat pump":            {"ghp", "gas air conditioner"},
			"heat recovery ventilator": {"total heat exchanger", "hrv", "erv", "ventilation unit"},
			"ventilation fan":          {"exhaust fan", "supply fan", "ceiling fan", "pressure fan"},
			"duct":                     {"spiral duct", "flexible duct", "galvanized duct"},
			"refrigerant piping":       {"refrigerant pipe", "pair coil", "insulated copper pipe"},
			// Mechanical - water
			"water supply pump": {"booster pump", "lift pump", "pump unit"},
			"drainage pump":     {"sewage pump", "submersible pump"},
			"water heater":      {"electric water heater", "gas water heater", "storage tank"},
			"sanitary fixture":  {"toilet bowl", "washbasin", "sink", "urinal"},
			"water supply pipe": {"vp pipe", "lined steel pipe", "stainless pipe", "sus pipe"},
			// Gas
			"white gas pipe":          {"steel pipe", "gas pipe", "sgp", "carbon steel pipe", "white pipe"},
			"color steel pipe":        {"coated steel pipe", "color pipe"},
			"pe pipe":                 {"polyethylene pipe", "poly pipe", "resin pipe", "pe80", "pe100"},
			"gas outlet":              {"gas tap", "gas connection port"},
			"screw cock":              {"cock", "gas cock", "gas valve", "stop cock"},
			"branch cock":             {"branch valve", "tee", "branch pipe"},
			"ball valve":              {"ball slide joint", "bsj"},
			"gas meter":               {"meter", "microcomputer meter", "metering device"},
			"gas leak alarm":          {"gas alarm", "gas detector"},
			"emergency shutoff valve": {"shutoff valve", "gas shutoff valve", "safety valve"},
			"pipe support bracket":    {"support bracket", "pipe support", "support hardware"},
			// Common - temporary works and expenses
			"elevator":                  {"lift", "hoist"},
			"pavement restoration":      {"asphalt restoration", "road restoration"},
			"overhead expenses":         {"general administrative expenses", "site management expenses", "common temporary expenses"},
			"scaffolding":               {"frame scaffolding", "single-pipe scaffolding", "rolling tower"},
			"industrial waste disposal": {"waste disposal", "debris disposal"},
			"transportation":            {"delivery", "carry-in", "haulage"},
		},
		CategoryKeywords: []string{
			"white gas pipe", "color steel pipe", "pe pipe", "exposed piping",
			"gas outlet", "screw cock", "branch cock", "ball slide joint",
			"gas meter", "pipe support bracket", "cubicle", "hole drilling",
			"backfill", "concrete", "aerial work platform", "transportation",
			"overhead expenses", "testing", "inspection", "removal",
		},
		HighValueMinimums: map[string]decimal.Decimal{
			"cubicle":                 decimal.NewFromInt(800000),
			"high-voltage substation": decimal.NewFromInt(800000),
			"transformer":             decimal.NewFromInt(300000),
			"generator":               decimal.NewFromInt(1500000),
			"elevator":                decimal.NewFromInt(3000000),
		},
		HighValueExclusions: []string{
			"inspection", "maintenance", "piping", "wiring", "testing",
			"adjustment", "indoor unit", "outdoor unit", "remote controller",
			"protection", "cleaning", "removal", "renewal", "repair",
		},
		MaxPriceCaps: map[string]decimal.Decimal{
			"fence":            decimal.NewFromInt(100000),
			"telephone":        decimal.NewFromInt(50000),
			"intercom":         decimal.NewFromInt(80000),
			"outlet":           decimal.NewFromInt(20000),
			"switch":           decimal.NewFromInt(10000),
			"lighting fixture": decimal.NewFromInt(100000),
			"detector":         decimal.NewFromInt(30000),
			"wiring":           decimal.NewFromInt(50000),
			"cable":            decimal.NewFromInt(30000),
			"connection":       decimal.NewFromInt(500000),
		},
		UnitPriceCeilings: map[string]decimal.Decimal{
			"m":        decimal.NewFromInt(50000),
			"meter":    decimal.NewFromInt(50000),
			"piece":    decimal.NewFromInt(50000),
			"point":    decimal.NewFromInt(50000),
			"location": decimal.NewFromInt(100000),
		},
		MaxItemAmount: decimal.NewFromInt(100000000),
		LumpSumUnits: []string{
			"lot", "set", "unit", "base", "face",
			"式", "台", "基", "組", "面", "セット",
		},
		CountUnits: []string{
			"piece", "pc", "location", "point", "outlet", "port",
			"個", "本", "箇所", "ヶ所", "ケ所", "点", "口",
		},
		LengthUnits: []string{"m", "meter", "metre", "ｍ"},
		DisciplineAliases: map[string]types.Discipline{
			"electrical": types.DisciplineElectrical,
			"mechanical": types.DisciplineMechanical,
			"plumbing":   types.DisciplinePlumbing,
			"gas":        types.DisciplineGas,
			"hvac":       types.DisciplineHVAC,
		},
		Estimation: []EstimationRule{
			{Keyword: "lighting", Method: MethodArea, Factor: 0.08},
			{Keyword: "outlet", Method: MethodArea, Factor: 0.15},
			{Keyword: "switch", Method: MethodRooms, Factor: 2.0},
			{Keyword: "distribution board", Method: MethodFloors, Factor: 2.0},
			{Keyword: "cable", Method: MethodArea, Factor: 0.5},
			{Keyword: "gas pipe", Method: MethodArea, Factor: 0.3},
			{Keyword: "gas outlet", Method: MethodRooms, Factor: 0.5},
			{Keyword: "piping", Method: MethodArea, Factor: 0.4},
		},
	}
}
