package query

import (
	"testing"

	"github.com/giygas/drugcost-api/outcome"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input    string
		expected Parsed
	}{
		{"Lipitor 20mg tablets", Parsed{Name: "LIPITOR", Strength: "20MG", DosageForm: "TABLET"}},
		{"lipitor 20 mg", Parsed{Name: "LIPITOR", Strength: "20MG"}},
		{"Lipitor", Parsed{Name: "LIPITOR"}},
		{"zoloft 50MG", Parsed{Name: "ZOLOFT", Strength: "50MG"}},
		{"levothyroxine 88 mcg tab", Parsed{Name: "LEVOTHYROXINE", Strength: "88MCG", DosageForm: "TABLET"}},
		{"amoxicillin 250mg/5ml suspension", Parsed{Name: "AMOXICILLIN", Strength: "250MG/5ML", DosageForm: "SUSPENSION"}},
		{"insulin glargine 100 units/ml injection", Parsed{Name: "INSULIN GLARGINE", Strength: "100UNITS/ML", DosageForm: "INJECTABLE"}},
		{"hydrocortisone 1% cream", Parsed{Name: "HYDROCORTISONE", Strength: "1%", DosageForm: "CREAM"}},
		{"metoprolol succinate 12.5mg", Parsed{Name: "METOPROLOL SUCCINATE", Strength: "12.5MG"}},
		{"price of my Lipitor 10mg", Parsed{Name: "PRICE LIPITOR", Strength: "10MG"}},
		{"Lipitor 10mg or 20mg", Parsed{Name: "LIPITOR OR 20MG", Strength: "10MG"}},
		{"capsule caps fenofibrate", Parsed{Name: "FENOFIBRATE", DosageForm: "CAPSULE"}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParse_Unit(t *testing.T) {
	// "g" only counts as a unit on its own.
	got, err := Parse("guaifenesin 600 grams")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Strength != "" {
		t.Errorf("Expected no strength, got %q", got.Strength)
	}
}

func TestParse_NoName(t *testing.T) {
	for _, input := range []string{"", "   ", "20mg", "20 mg tablets", "of the"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if !outcome.Is(err, outcome.KindInvalidInput) {
				t.Errorf("Expected InvalidInput, got %v", err)
			}
			if outcome.StageOf(err) != outcome.StageQuery {
				t.Errorf("Expected query stage, got %s", outcome.StageOf(err))
			}
		})
	}
}
