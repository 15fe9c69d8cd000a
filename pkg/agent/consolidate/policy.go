// Package consolidate decides which turns graduate from the session window
// into durable memory.
package consolidate

// Policy scores completed turns and gates promotion. Scores are fixed per
// verification outcome so the same turn always lands on the same side of the
// threshold.
type Policy struct {
	// GroundedImportance is assigned when the answer passed verification.
	GroundedImportance float64
	// UngroundedImportance is assigned when it shipped with the unverified
	// note or as a non-answer turn (clarification, declined access).
	UngroundedImportance float64
	PromotionThreshold   float64
}

func DefaultPolicy() Policy {
	return Policy{
		GroundedImportance:   0.7,
		UngroundedImportance: 0.4,
		PromotionThreshold:   0.5,
	}
}

// ScoreImportance rates one completed turn for long-term value.
func (p Policy) ScoreImportance(grounded bool) float64 {
	if grounded {
		return p.GroundedImportance
	}
	return p.UngroundedImportance
}

// ShouldPromote reports whether a turn's importance clears the promotion
// threshold.
func (p Policy) ShouldPromote(importance float64) bool {
	return importance >= p.PromotionThreshold
}
