package search

import (
	"io"
	"log"
	"testing"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/repository/contract"

	"github.com/google/uuid"
)

func testOrchestrator() *Orchestrator {
	return NewOrchestrator(nil, log.New(io.Discard, "", 0))
}

func scoredPassage(content string, similarity float64) *contract.ScoredPassage {
	return &contract.ScoredPassage{
		Passage: &entity.Passage{
			Id:         uuid.New(),
			DocumentId: uuid.New(),
			Content:    content,
			Domain:     "it",
		},
		Similarity: similarity,
	}
}

func TestRescoreFiltersBelowThreshold(t *testing.T) {
	o := testOrchestrator()
	config := DefaultConfig()

	results := []*contract.ScoredPassage{
		scoredPassage("reset your vpn password using the portal", 0.9),
		scoredPassage("completely unrelated cafeteria menu", 0.1),
	}

	ranked := o.rescoreAndDeduplicate("how to reset vpn password", results, config)
	if len(ranked) != 1 {
		t.Fatalf("kept %d candidates, want 1", len(ranked))
	}
	if ranked[0].passage.Content != results[0].Passage.Content {
		t.Error("kept the wrong candidate")
	}
}

func TestRescoreDeduplicatesIdenticalContent(t *testing.T) {
	o := testOrchestrator()
	config := DefaultConfig()

	results := []*contract.ScoredPassage{
		scoredPassage("vpn reset instructions", 0.9),
		scoredPassage("vpn reset instructions", 0.85),
	}

	ranked := o.rescoreAndDeduplicate("vpn reset instructions", results, config)
	if len(ranked) != 1 {
		t.Errorf("kept %d candidates for duplicate content, want 1", len(ranked))
	}
}

func TestRescoreLexicalOverlapReorders(t *testing.T) {
	o := testOrchestrator()
	config := DefaultConfig()

	// Dense scores nearly tied; lexical overlap should break the tie in
	// favor of the passage sharing the query's vocabulary.
	exactWording := scoredPassage("rollback a failed deployment with kubectl rollout undo", 0.80)
	paraphrase := scoredPassage("reverting releases is described in the operations handbook", 0.81)

	ranked := o.rescoreAndDeduplicate(
		"how do I rollback a failed deployment",
		[]*contract.ScoredPassage{paraphrase, exactWording},
		config,
	)
	if len(ranked) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(ranked))
	}
	if ranked[0].passage.Content != exactWording.Passage.Content {
		t.Errorf("lexical overlap did not win the tie: first = %q", ranked[0].passage.Content)
	}
}

func TestRescoreCombinedScoreWeights(t *testing.T) {
	o := testOrchestrator()
	config := Config{
		DBThreshold:    0,
		LogicThreshold: 0,
		TopK:           10,
		DenseWeight:    0.7,
		LexicalWeight:  0.3,
	}

	// Identical token sets: lexical = 1.0, so combined = 0.7*dense + 0.3.
	res := scoredPassage("vpn password reset", 0.5)
	ranked := o.rescoreAndDeduplicate("vpn password reset", []*contract.ScoredPassage{res}, config)
	if len(ranked) != 1 {
		t.Fatalf("kept %d, want 1", len(ranked))
	}

	want := 0.7*0.5 + 0.3*1.0
	if diff := ranked[0].score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("combined score = %v, want %v", ranked[0].score, want)
	}
}
