package grader

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"byteme-assistant-be/pkg/llm"
	"byteme-assistant-be/pkg/store"
)

// sequencedLLM replays one scripted response per call.
type sequencedLLM struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *sequencedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *sequencedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	response := ""
	if i < len(s.responses) {
		response = s.responses[i]
	}
	return response, err
}

func passage(id, content string) store.Passage {
	return store.Passage{SourceID: id, DocTitle: "Doc", Content: content, Domain: store.DomainIT}
}

func TestGradeScoresAndFilters(t *testing.T) {
	provider := &sequencedLLM{responses: []string{
		`{"score": "yes"}`,
		`{"score": "no"}`,
		`Based on my reading: {"score": "yes"} is my verdict`,
	}}
	g := NewGrader(provider, 0.5, log.New(io.Discard, "", 0))

	graded := g.Grade(context.Background(), "vpn setup", []store.Passage{
		passage("p1", "VPN configuration steps"),
		passage("p2", "Cafeteria menu"),
		passage("p3", "Remote access guide"),
	})

	if len(graded) != 3 {
		t.Fatalf("expected all passages back, got %d", len(graded))
	}
	wantKeep := []bool{true, false, true}
	wantScore := []float64{1.0, 0.0, 1.0}
	for i, g := range graded {
		if g.Keep != wantKeep[i] {
			t.Errorf("passage %d keep = %v, want %v", i, g.Keep, wantKeep[i])
		}
		if g.RelevanceScore != wantScore[i] {
			t.Errorf("passage %d score = %v, want %v", i, g.RelevanceScore, wantScore[i])
		}
	}

	retained := store.Retained(graded)
	if len(retained) != 2 {
		t.Fatalf("expected 2 retained, got %d", len(retained))
	}
	if retained[0].SourceID != "p1" || retained[1].SourceID != "p3" {
		t.Errorf("retained wrong passages: %s, %s", retained[0].SourceID, retained[1].SourceID)
	}
}

func TestGradeFailsOpenOnProviderError(t *testing.T) {
	provider := &sequencedLLM{errs: []error{errors.New("connection refused")}}
	g := NewGrader(provider, 0.5, log.New(io.Discard, "", 0))

	graded := g.Grade(context.Background(), "anything", []store.Passage{passage("p1", "content")})
	if !graded[0].Keep {
		t.Error("grading outage must keep the passage, not drop it")
	}
	if graded[0].RelevanceScore != 1.0 {
		t.Errorf("score = %v, want 1.0", graded[0].RelevanceScore)
	}
}

func TestGradeTruncatesLongDocuments(t *testing.T) {
	provider := &sequencedLLM{responses: []string{`{"score": "yes"}`}}
	g := NewGrader(provider, 0.5, log.New(io.Discard, "", 0))

	content := strings.Repeat("a", 400) + strings.Repeat("b", 400)
	g.Grade(context.Background(), "q", []store.Passage{passage("p1", content)})

	if len(provider.prompts) != 1 {
		t.Fatalf("expected one grading call, got %d", len(provider.prompts))
	}
	if strings.Contains(provider.prompts[0], content) {
		t.Error("full document leaked into the grading prompt")
	}
	if !strings.Contains(provider.prompts[0], content[:maxDocChars]) {
		t.Error("prompt missing the truncated document prefix")
	}
}

func TestGradeEmptyInput(t *testing.T) {
	provider := &sequencedLLM{}
	g := NewGrader(provider, 0.5, log.New(io.Discard, "", 0))

	graded := g.Grade(context.Background(), "q", nil)
	if len(graded) != 0 {
		t.Errorf("expected empty result, got %d", len(graded))
	}
	if provider.calls != 0 {
		t.Errorf("no passages should mean no grading calls, got %d", provider.calls)
	}
}

func TestBinaryVerdict(t *testing.T) {
	tests := []struct {
		response string
		want     bool
	}{
		{`{"score": "yes"}`, true},
		{`{"score": "no"}`, false},
		{`{"score": "YES"}`, true},
		{`prefix {"score": "yes"} suffix`, true},
		{`Yes, the document is clearly relevant.`, true},
		{`Not relevant at all.`, false},
		{``, false},
		{`{"score": }`, false},
	}
	for _, tt := range tests {
		if got := binaryVerdict(tt.response); got != tt.want {
			t.Errorf("binaryVerdict(%q) = %v, want %v", tt.response, got, tt.want)
		}
	}
}
