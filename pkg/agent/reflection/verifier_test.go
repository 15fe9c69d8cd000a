package reflection

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

func graded(id, content string) store.GradedPassage {
	return store.GradedPassage{
		Passage: store.Passage{SourceID: id, DocTitle: "Doc", Content: content},
		Keep:    true,
	}
}

func TestVerifyRejectsFallbackReplies(t *testing.T) {
	provider := &scriptedLLM{err: errors.New("should not be called")}
	v := NewVerifier(provider, log.New(io.Discard, "", 0))

	for _, draft := range []string{
		"I apologize, but the answer generation service is currently unavailable.",
		"I couldn't find anything about that in the documents.",
	} {
		verdict := v.Verify(context.Background(), draft, []store.GradedPassage{graded("p1", "text")})
		if verdict.Pass {
			t.Errorf("fallback reply passed verification: %q", draft)
		}
	}
	if provider.calls != 0 {
		t.Errorf("fallback detection must not reach the model, got %d calls", provider.calls)
	}
}

func TestVerifyRejectsFabricatedCitations(t *testing.T) {
	provider := &scriptedLLM{response: `{"score": "yes"}`}
	v := NewVerifier(provider, log.New(io.Discard, "", 0))

	verdict := v.Verify(context.Background(), "answer citing [S3]", []store.GradedPassage{
		graded("p1", "one"),
		graded("p2", "two"),
	})
	if verdict.Pass {
		t.Fatal("out-of-range citation must fail")
	}
	if !strings.Contains(verdict.Reason, "[S3]") {
		t.Errorf("reason should name the bad marker, got %q", verdict.Reason)
	}
	if provider.calls != 0 {
		t.Error("citation check should fail before the grounding call")
	}
}

func TestVerifyMemoryOnlyAnswer(t *testing.T) {
	provider := &scriptedLLM{err: errors.New("should not be called")}
	v := NewVerifier(provider, log.New(io.Discard, "", 0))

	verdict := v.Verify(context.Background(), "We discussed the VPN setup earlier.", nil)
	if !verdict.Pass {
		t.Errorf("memory-only answer without markers should pass, got %q", verdict.Reason)
	}
}

func TestVerifyMemoryOnlyAnswerWithMarkersFails(t *testing.T) {
	v := NewVerifier(&scriptedLLM{}, log.New(io.Discard, "", 0))

	verdict := v.Verify(context.Background(), "As shown in [S1].", nil)
	if verdict.Pass {
		t.Error("markers without passages must fail")
	}
}

func TestVerifyGrounding(t *testing.T) {
	tests := []struct {
		name     string
		provider *scriptedLLM
		wantPass bool
	}{
		{"supported", &scriptedLLM{response: `{"score": "yes"}`}, true},
		{"unsupported", &scriptedLLM{response: `{"score": "no"}`}, false},
		{"backend down", &scriptedLLM{err: errors.New("timeout")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(tt.provider, log.New(io.Discard, "", 0))
			verdict := v.Verify(context.Background(), "the wifi is Corp-5G [S1]", []store.GradedPassage{
				graded("p1", "The office wifi is Corp-5G"),
			})
			if verdict.Pass != tt.wantPass {
				t.Errorf("pass = %v, want %v (reason %q)", verdict.Pass, tt.wantPass, verdict.Reason)
			}
			if !verdict.Pass && verdict.Reason == "" {
				t.Error("failed verdict must carry a reason")
			}
		})
	}
}
