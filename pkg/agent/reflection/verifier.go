package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"byteme-assistant-be/pkg/agent/response"
	"byteme-assistant-be/pkg/llm"
	"byteme-assistant-be/pkg/store"
)

// Verdict is the outcome of one verification pass. Reason is empty on pass
// and otherwise feeds the regeneration guidance.
type Verdict struct {
	Pass   bool
	Reason string
}

// Verifier checks a draft answer before it is allowed out: fallback phrasing
// fails, fabricated citation markers fail, and with passages present the
// draft must survive an LLM grounding check against them.
type Verifier struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewVerifier(llmProvider llm.LLMProvider, logger *log.Logger) *Verifier {
	return &Verifier{llmProvider: llmProvider, logger: logger}
}

// Verify runs the checks cheapest-first. The grounding backend being down is
// a fail, not a pass: an unverifiable draft ships with the unverified note,
// never as silently trusted.
func (v *Verifier) Verify(ctx context.Context, draft string, passages []store.GradedPassage) Verdict {
	if isFallbackReply(draft) {
		return Verdict{Pass: false, Reason: "draft is a fallback apology, not an answer"}
	}

	for _, marker := range response.CitationMarkers(draft) {
		if marker < 1 || marker > len(passages) {
			return Verdict{Pass: false, Reason: fmt.Sprintf("citation [S%d] does not match any retrieved source", marker)}
		}
	}

	// Memory-only answers have nothing to ground against; honest citations
	// (none) are all that can be checked.
	if len(passages) == 0 {
		return Verdict{Pass: true}
	}

	var contextBuilder strings.Builder
	for _, passage := range passages {
		contextBuilder.WriteString(passage.Content)
		contextBuilder.WriteString("\n\n")
	}

	prompt := fmt.Sprintf(`Context: %s
Answer: %s

Is the answer fully supported by the context?
Return strictly valid JSON: {"score": "yes"} or {"score": "no"}.`, contextBuilder.String(), draft)

	verdict, err := v.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		v.logger.Printf("[REFLECT] Grounding check unavailable: %v", err)
		return Verdict{Pass: false, Reason: "grounding check unavailable"}
	}
	if groundingVerdict(verdict) {
		return Verdict{Pass: true}
	}
	return Verdict{Pass: false, Reason: "answer contains claims not supported by the cited sources"}
}

// isFallbackReply spots the canned failure phrasings so they never pass
// verification and never earn promotion-grade importance.
func isFallbackReply(draft string) bool {
	return strings.Contains(draft, "I apologize") || strings.Contains(draft, "couldn't find")
}

func groundingVerdict(response string) bool {
	jsonContent := extractJSON(response)
	if jsonContent != "" {
		var verdict struct {
			Score string `json:"score"`
		}
		if err := json.Unmarshal([]byte(jsonContent), &verdict); err == nil {
			return strings.EqualFold(strings.TrimSpace(verdict.Score), "yes")
		}
	}
	return strings.Contains(strings.ToLower(response), "yes")
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
