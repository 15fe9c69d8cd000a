package search

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"byteme-assistant-be/pkg/llm"
)

type scriptedLLM struct {
	response string
	err      error
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func TestRewriteCleansModelOutput(t *testing.T) {
	r := NewQueryRewriter(&scriptedLLM{response: ` "vpn hostname configuration" `}, log.New(io.Discard, "", 0))

	got := r.Rewrite(context.Background(), "hey what was that vpn thing called?")
	if got != "vpn hostname configuration" {
		t.Errorf("rewrite = %q", got)
	}
}

func TestRewriteFallsBackOnError(t *testing.T) {
	question := "how do I connect to the vpn?"
	r := NewQueryRewriter(&scriptedLLM{err: errors.New("down")}, log.New(io.Discard, "", 0))

	if got := r.Rewrite(context.Background(), question); got != question {
		t.Errorf("rewrite = %q, want the original question", got)
	}
}

func TestRewriteRejectsMalformedOutput(t *testing.T) {
	question := "vpn setup"
	tests := []string{
		"",
		"   ",
		"1. vpn\n2. hostname\n3. setup",
	}
	for _, response := range tests {
		r := NewQueryRewriter(&scriptedLLM{response: response}, log.New(io.Discard, "", 0))
		if got := r.Rewrite(context.Background(), question); got != question {
			t.Errorf("Rewrite with response %q = %q, want original", response, got)
		}
	}
}
