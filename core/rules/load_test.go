package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"estimate-engine/core/types"
	"estimate-engine/internal/errors"
)

// TestDefaultTables sanity-checks the compiled-in tables
func TestDefaultTables(t *testing.T) {
	set := Default()

	if min, ok := set.HighValueMinimums["cubicle"]; !ok || !min.Equal(decimal.NewFromInt(800000)) {
		t.Errorf("cubicle minimum = %v, want 800000", min)
	}
	if cap, ok := set.MaxPriceCaps["outlet"]; !ok || !cap.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("outlet cap = %v, want 20000", cap)
	}
	if !set.MaxItemAmount.Equal(decimal.NewFromInt(100000000)) {
		t.Errorf("MaxItemAmount = %v, want 100000000", set.MaxItemAmount)
	}

	found := false
	for _, u := range set.LumpSumUnits {
		if u == "lot" {
			found = true
		}
	}
	if !found {
		t.Error("LumpSumUnits missing \"lot\"")
	}

	if len(set.Estimation) == 0 || set.Estimation[0].Keyword != "lighting" {
		t.Errorf("Estimation table should start with the lighting rule, got %+v", set.Estimation)
	}
	if set.DisciplineAliases["gas"] != types.DisciplineGas {
		t.Errorf("gas alias = %v, want %v", set.DisciplineAliases["gas"], types.DisciplineGas)
	}
}

// TestLoadOverlay tests overlaying an HCL rules file on the defaults
func TestLoadOverlay(t *testing.T) {
	content := `
max_item_amount = 5000000

synonym "flexible hose" {
  terms = ["flex hose", "metal flex"]
}

high_value "chiller" {
  price = 2000000
}

max_price "doorbell" {
  price = 15000
}

unit_ceiling "roll" {
  price = 80000
}

units {
  length = ["m", "meter", "km"]
}

discipline_alias "fire" {
  full = "fire protection work"
}

estimation "ventilation fan" {
  method = "rooms"
  factor = 1.5
}
`
	path := filepath.Join(t.TempDir(), "rules.hcl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !set.MaxItemAmount.Equal(decimal.NewFromInt(5000000)) {
		t.Errorf("MaxItemAmount = %v, want 5000000", set.MaxItemAmount)
	}
	if terms := set.Synonyms["flexible hose"]; len(terms) != 2 || terms[0] != "flex hose" {
		t.Errorf("flexible hose synonyms = %v", terms)
	}
	if min := set.HighValueMinimums["chiller"]; !min.Equal(decimal.NewFromInt(2000000)) {
		t.Errorf("chiller minimum = %v, want 2000000", min)
	}
	if cap := set.MaxPriceCaps["doorbell"]; !cap.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("doorbell cap = %v, want 15000", cap)
	}
	if ceiling := set.UnitPriceCeilings["roll"]; !ceiling.Equal(decimal.NewFromInt(80000)) {
		t.Errorf("roll ceiling = %v, want 80000", ceiling)
	}
	if len(set.LengthUnits) != 3 || set.LengthUnits[2] != "km" {
		t.Errorf("LengthUnits = %v, want overlay with km", set.LengthUnits)
	}
	if set.DisciplineAliases["fire"] != types.DisciplineFire {
		t.Errorf("fire alias = %v", set.DisciplineAliases["fire"])
	}

	// Defaults survive where the file is silent.
	if _, ok := set.HighValueMinimums["cubicle"]; !ok {
		t.Error("default cubicle minimum lost on overlay")
	}
	if len(set.LumpSumUnits) == 0 {
		t.Error("default lump-sum units lost on overlay")
	}

	last := set.Estimation[len(set.Estimation)-1]
	if last.Keyword != "ventilation fan" || last.Method != MethodRooms || last.Factor != 1.5 {
		t.Errorf("appended estimation rule = %+v", last)
	}
}

// TestLoadEmptyPath returns the defaults unchanged
func TestLoadEmptyPath(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(set.Synonyms) != len(Default().Synonyms) {
		t.Error("empty path should return the default tables")
	}
}

// TestLoadBadMethod rejects unknown estimation methods
func TestLoadBadMethod(t *testing.T) {
	content := `
estimation "lighting" {
  method = "volume"
  factor = 1.0
}
`
	path := filepath.Join(t.TempDir(), "rules.hcl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown estimation method")
	}
	if !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("error type = %v, want CONFIG_ERROR", err)
	}
}
