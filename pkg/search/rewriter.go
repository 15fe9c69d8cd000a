package search

import (
	"context"
	"log"
	"strings"

	"byteme-assistant-be/pkg/llm"
)

// QueryRewriter condenses a conversational question into a keyword-rich
// retrieval query. It never errors: any failure returns the original
// question so retrieval proceeds with what the user actually typed.
type QueryRewriter struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewQueryRewriter(llmProvider llm.LLMProvider, logger *log.Logger) *QueryRewriter {
	return &QueryRewriter{llmProvider: llmProvider, logger: logger}
}

func (r *QueryRewriter) Rewrite(ctx context.Context, question string) string {
	prompt := `You are a search query optimizer.
Rewrite the user's question to be short, specific, and keyword-rich for a vector database.
Do NOT output a list. Output ONLY the rewritten query string.

Original: ` + question + `
New Query:`

	rewritten, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		r.logger.Printf("[WARN] Query rewrite failed, using original question: %v", err)
		return question
	}

	rewritten = strings.TrimSpace(strings.ReplaceAll(rewritten, `"`, ""))
	if rewritten == "" || strings.ContainsRune(rewritten, '\n') {
		// Multi-line output means the model ignored the format; the raw
		// question is safer than a malformed query.
		return question
	}
	return rewritten
}
