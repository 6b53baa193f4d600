package entities

import "testing"

func TestApplicationTypeClassification(t *testing.T) {
	tests := []struct {
		raw      string
		expected Classification
		generic  bool
	}{
		{"N", ClassificationBrand, false},
		{"a", ClassificationGeneric, true},
		{" A ", ClassificationGeneric, true},
		{"", ClassificationUnknown, false},
		{"BLA", ClassificationUnknown, false},
	}

	for _, tt := range tests {
		at := ParseApplicationType(tt.raw)
		if got := at.Classification(); got != tt.expected {
			t.Errorf("Classification(%q) = %s, expected %s", tt.raw, got, tt.expected)
		}
		if got := at.IsGeneric(); got != tt.generic {
			t.Errorf("IsGeneric(%q) = %v, expected %v", tt.raw, got, tt.generic)
		}
	}
}

func TestNewProductRecordNormalizesTwins(t *testing.T) {
	p := NewProductRecord(ProductRecord{
		TradeName:  " lipitor ",
		Ingredient: "atorvastatin   calcium",
		Strength:   "eq 20mg base",
		DosageForm: "Tablet",
		Route:      "oral",
		TECode:     "ab",
	})

	if p.TradeNameN != "LIPITOR" || p.IngredientN != "ATORVASTATIN CALCIUM" ||
		p.StrengthN != "EQ 20MG BASE" || p.DosageFormN != "TABLET" || p.RouteN != "ORAL" || p.TECodeN != "AB" {
		t.Errorf("unexpected normalized twins: %+v", p)
	}

	if p.IdentityN() != p.Identity().Normalized() {
		t.Error("IdentityN should equal the normalized raw identity")
	}
}

func TestIsSubstitutable(t *testing.T) {
	codes := map[string]bool{
		"AB":  true,
		"AB1": true,
		"ab2": true,
		"AP":  true,
		"BX":  false,
		"":    false,
		" A":  true,
	}
	for code, expected := range codes {
		p := ProductRecord{TECode: code}
		if got := p.IsSubstitutable(); got != expected {
			t.Errorf("IsSubstitutable(%q) = %v, expected %v", code, got, expected)
		}
	}
}

func TestCostRecordMatchesName(t *testing.T) {
	c := NewCostRecord(CostRecord{BrandName: "Lipitor", GenericName: "Atorvastatin Calcium"})
	if !c.MatchesName("LIPITOR") || !c.MatchesName("ATORVASTATIN CALCIUM") {
		t.Error("expected brand and generic names to match")
	}
	if c.MatchesName("") || c.MatchesName("ATORVASTATIN") {
		t.Error("expected empty and partial names not to match")
	}
}
