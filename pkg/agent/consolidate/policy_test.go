package consolidate

import "testing"

func TestScoreImportance(t *testing.T) {
	p := DefaultPolicy()

	if got := p.ScoreImportance(true); got != 0.7 {
		t.Errorf("grounded importance = %v, want 0.7", got)
	}
	if got := p.ScoreImportance(false); got != 0.4 {
		t.Errorf("ungrounded importance = %v, want 0.4", got)
	}
}

func TestShouldPromote(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		importance float64
		want       bool
	}{
		{0.7, true},
		{0.5, true}, // threshold is inclusive
		{0.4, false},
		{0.0, false},
	}
	for _, tt := range tests {
		if got := p.ShouldPromote(tt.importance); got != tt.want {
			t.Errorf("ShouldPromote(%v) = %v, want %v", tt.importance, got, tt.want)
		}
	}
}

func TestGroundedTurnsClearDefaultThreshold(t *testing.T) {
	p := DefaultPolicy()

	if !p.ShouldPromote(p.ScoreImportance(true)) {
		t.Error("grounded turns must promote under defaults")
	}
	if p.ShouldPromote(p.ScoreImportance(false)) {
		t.Error("ungrounded turns must not promote under defaults")
	}
}
