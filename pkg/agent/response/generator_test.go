package response

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"byteme-assistant-be/internal/constant"
	"byteme-assistant-be/pkg/llm"
	"byteme-assistant-be/pkg/store"
)

type scriptedLLM struct {
	response string
	err      error
	calls    int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.calls++
	return s.response, s.err
}

func graded(id, title, content string) store.GradedPassage {
	return store.GradedPassage{
		Passage:        store.Passage{SourceID: id, DocTitle: title, Content: content},
		RelevanceScore: 1.0,
		Keep:           true,
	}
}

func TestBuildPromptWithContext(t *testing.T) {
	passages := []store.GradedPassage{
		graded("p1", "VPN Guide", "Connect via vpn.corp.example"),
		graded("p2", "Network FAQ", "The office wifi is Corp-5G"),
	}
	memory := store.MemoryContext{
		Session: []store.Turn{{Query: "hello", Answer: "hi there"}},
		Durable: []store.Turn{{Query: "old question", Answer: "old answer"}},
	}

	prompt := BuildPrompt("How do I connect?", store.DomainIT, passages, memory, "")

	for _, want := range []string{
		"[S1] (VPN Guide)",
		"[S2] (Network FAQ)",
		"Connect via vpn.corp.example",
		"User: hello",
		"Assistant: hi there",
		"Q: old question",
		"A: old answer",
		"CURRENT QUESTION: How do I connect?",
		"IT Service Desk assistant",
		"[S#] markers",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptWithoutPassages(t *testing.T) {
	prompt := BuildPrompt("anything", store.DomainNone, nil, store.MemoryContext{}, "")

	if !strings.Contains(prompt, constant.NoSupportingDocuments) {
		t.Error("empty passage set must inject the no-documents notice")
	}
	if strings.Contains(prompt, "[S1]") {
		t.Error("no markers should appear without passages")
	}
	if strings.Contains(prompt, "Service Desk assistant") {
		t.Error("general QA must not get a domain persona")
	}
}

func TestBuildPromptCarriesGuidance(t *testing.T) {
	prompt := BuildPrompt("q", store.DomainNone, nil, store.MemoryContext{}, "citation [S4] does not match any retrieved source")

	if !strings.Contains(prompt, "failed verification") {
		t.Error("guidance line missing")
	}
	if !strings.Contains(prompt, "[S4] does not match") {
		t.Error("verdict reason missing from guidance")
	}
}

func TestGenerateUsesFallbackProvider(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("rate limited")}
	fallback := &scriptedLLM{response: "grounded answer [S1]"}
	g := NewGenerator(log.New(io.Discard, "", 0), primary, fallback)

	answer, err := g.Generate(context.Background(), "q", store.DomainNone, nil, store.MemoryContext{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "grounded answer [S1]" {
		t.Errorf("answer = %q", answer)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
}

func TestGenerateSkipsEmptyAnswers(t *testing.T) {
	primary := &scriptedLLM{response: "   "}
	fallback := &scriptedLLM{response: "real answer"}
	g := NewGenerator(log.New(io.Discard, "", 0), primary, fallback)

	answer, err := g.Generate(context.Background(), "q", store.DomainNone, nil, store.MemoryContext{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "real answer" {
		t.Errorf("answer = %q", answer)
	}
}

func TestGenerateErrorsWhenAllProvidersFail(t *testing.T) {
	g := NewGenerator(log.New(io.Discard, "", 0),
		&scriptedLLM{err: errors.New("down")},
		&scriptedLLM{err: errors.New("also down")},
	)

	if _, err := g.Generate(context.Background(), "q", store.DomainNone, nil, store.MemoryContext{}, ""); err == nil {
		t.Fatal("expected an error when every backend fails")
	}
}

func TestGenerateDropsNilProviders(t *testing.T) {
	g := NewGenerator(log.New(io.Discard, "", 0), nil, &scriptedLLM{response: "ok"})

	answer, err := g.Generate(context.Background(), "q", store.DomainNone, nil, store.MemoryContext{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "ok" {
		t.Errorf("answer = %q", answer)
	}
}

func TestCitationMarkers(t *testing.T) {
	tests := []struct {
		answer string
		want   []int
	}{
		{"see [S1] and [S2], then [S1] again", []int{1, 2}},
		{"[S3] leads, [S1] follows", []int{3, 1}},
		{"no markers here", nil},
		{"[S12] double digit", []int{12}},
		{"[Sx] is not a marker", nil},
	}
	for _, tt := range tests {
		if got := CitationMarkers(tt.answer); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("CitationMarkers(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}

func TestExtractCitations(t *testing.T) {
	passages := []store.GradedPassage{
		graded("src-a", "A", "aaa"),
		graded("src-b", "B", "bbb"),
	}

	got := ExtractCitations("per [S2] and [S1], also [S2]", passages)
	want := []string{"src-b", "src-a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("citations = %v, want %v", got, want)
	}
}

func TestExtractCitationsSkipsOutOfRange(t *testing.T) {
	passages := []store.GradedPassage{graded("src-a", "A", "aaa")}

	got := ExtractCitations("claims [S1] and fabricated [S9]", passages)
	if !reflect.DeepEqual(got, []string{"src-a"}) {
		t.Errorf("citations = %v, want [src-a]", got)
	}
}
