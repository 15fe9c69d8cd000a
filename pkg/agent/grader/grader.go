package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"byteme-assistant-be/pkg/llm"
	"byteme-assistant-be/pkg/store"
)

// maxDocChars caps how much of a passage the grading prompt carries.
const maxDocChars = 500

// Grader scores retrieved passages for relevance to the query. Scores are
// binary (1.0 or 0.0); an unreachable grading backend fails open so degraded
// grading never starves generation of context.
type Grader struct {
	llmProvider llm.LLMProvider
	threshold   float64
	logger      *log.Logger
}

func NewGrader(llmProvider llm.LLMProvider, threshold float64, logger *log.Logger) *Grader {
	return &Grader{
		llmProvider: llmProvider,
		threshold:   threshold,
		logger:      logger,
	}
}

// Grade scores every passage sequentially and marks which ones clear the
// threshold. It never drops entries; callers filter on Keep.
func (g *Grader) Grade(ctx context.Context, query string, passages []store.Passage) []store.GradedPassage {
	graded := make([]store.GradedPassage, 0, len(passages))
	for i, passage := range passages {
		score := g.scoreOne(ctx, query, passage)
		keep := score >= g.threshold
		g.logger.Printf("[GRADE] Passage %d/%d (%s): score=%.1f keep=%v", i+1, len(passages), passage.SourceID, score, keep)
		graded = append(graded, store.GradedPassage{
			Passage:        passage,
			RelevanceScore: score,
			Keep:           keep,
		})
	}
	return graded
}

func (g *Grader) scoreOne(ctx context.Context, query string, passage store.Passage) float64 {
	doc := passage.Content
	if len(doc) > maxDocChars {
		doc = doc[:maxDocChars]
	}

	prompt := fmt.Sprintf(`You are a grader assessing the relevance of a retrieved document to a user question.
The bar is low: if the document contains ANY information related to the question, it is relevant.

<document>
%s
</document>

<question>
%s
</question>

Respond with ONLY valid JSON: {"score": "yes"} or {"score": "no"}`, doc, query)

	response, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		g.logger.Printf("[WARN] Relevance grading unavailable, keeping passage %s: %v", passage.SourceID, err)
		return 1.0
	}
	if binaryVerdict(response) {
		return 1.0
	}
	return 0.0
}

// binaryVerdict reads a {"score": "yes"/"no"} reply, tolerating prose around
// the JSON and falling back to a plain-text scan when parsing fails.
func binaryVerdict(response string) bool {
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
