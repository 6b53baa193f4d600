package outcome

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, KindNone},
		{"classified", New(KindNoMatch, StageIdentity, "nothing for %q", "X"), KindNoMatch},
		{"wrapped classified", fmt.Errorf("outer: %w", InvalidInput(StageCosts, "name is empty")), KindInvalidInput},
		{"plain error", errors.New("disk on fire"), KindInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("KindOf() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestInfrastructureUnwraps(t *testing.T) {
	cause := errors.New("database is locked")
	err := Infrastructure(StageCosts, cause, "cost query failed")

	if !errors.Is(err, cause) {
		t.Error("expected Infrastructure error to unwrap to its cause")
	}
	if StageOf(err) != StageCosts {
		t.Errorf("expected stage %q, got %q", StageCosts, StageOf(err))
	}
	if err.Error() != "lookup_costs: cost query failed: database is locked" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(KindNoDataForYear, StageRanking, "no cost data for 2023")
	if !Is(err, KindNoDataForYear) {
		t.Error("expected Is to match kind")
	}
	if Is(nil, KindNoDataForYear) || Is(err, KindNoMatch) {
		t.Error("expected Is to reject nil and other kinds")
	}
}
