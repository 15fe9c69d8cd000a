package response

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"byteme-assistant-be/internal/constant"
	"byteme-assistant-be/pkg/llm"
	"byteme-assistant-be/pkg/store"
)

// Domain-specific system prompts. DomainNone gets the generic assistant
// persona built into the prompt preamble.
var domainPrompts = map[store.Domain]string{
	store.DomainIT: `You are an IT Service Desk assistant. You help with:
- Troubleshooting technical issues
- Creating support tickets
- Software installation requests
- Password resets and access issues
- Network and connectivity problems
Be professional, follow ITIL best practices, and always offer to create a ticket if the issue cannot be resolved immediately.`,

	store.DomainDev: `You are a Developer Support assistant. You help with:
- Explaining legacy code and documentation
- Suggesting code fixes and improvements
- Debugging assistance
- API documentation and usage
- Best practices and code review
Provide code examples when helpful and explain technical concepts clearly.`,

	store.DomainHR: `You are an HR Operations assistant. You help with:
- Company policy questions
- Leave application guidance
- Benefits information
- Onboarding procedures
- Performance review processes
Be empathetic, maintain confidentiality, and direct sensitive matters to HR personnel when appropriate.`,
}

// Generator produces the draft answer from retained passages and memory.
// Providers are tried in order; the first non-empty answer wins, so a cloud
// backend can front a local fallback.
type Generator struct {
	providers []llm.LLMProvider
	logger    *log.Logger
}

func NewGenerator(logger *log.Logger, providers ...llm.LLMProvider) *Generator {
	active := make([]llm.LLMProvider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			active = append(active, p)
		}
	}
	return &Generator{providers: active, logger: logger}
}

// Generate builds the grounded prompt and asks each provider in turn.
// Guidance carries the verifier's failure reason on regeneration attempts;
// empty on the first pass. The error is non-nil only when every provider
// failed.
func (g *Generator) Generate(
	ctx context.Context,
	query string,
	domain store.Domain,
	passages []store.GradedPassage,
	memory store.MemoryContext,
	guidance string,
) (string, error) {
	prompt := BuildPrompt(query, domain, passages, memory, guidance)

	var lastErr error
	for i, provider := range g.providers {
		answer, err := provider.Generate(ctx, prompt, llm.WithTemperature(0.3))
		if err != nil {
			g.logger.Printf("[GENERATE] Provider %d/%d failed: %v", i+1, len(g.providers), err)
			lastErr = err
			continue
		}
		if strings.TrimSpace(answer) == "" {
			g.logger.Printf("[GENERATE] Provider %d/%d returned an empty answer", i+1, len(g.providers))
			lastErr = fmt.Errorf("empty answer from provider %d", i+1)
			continue
		}
		return strings.TrimSpace(answer), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no generation providers configured")
	}
	return "", fmt.Errorf("all generation backends failed: %w", lastErr)
}

// BuildPrompt assembles the full generation prompt. Passages are numbered
// [S1]..[Sn] in order; the model may only cite those markers.
func BuildPrompt(
	query string,
	domain store.Domain,
	passages []store.GradedPassage,
	memory store.MemoryContext,
	guidance string,
) string {
	var prompt strings.Builder

	prompt.WriteString("You are a helpful enterprise assistant with access to document context and conversation history.\n\n")
	if domainPrompt, ok := domainPrompts[domain]; ok {
		prompt.WriteString(domainPrompt)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("📚 DOCUMENT CONTEXT:\n")
	if len(passages) == 0 {
		prompt.WriteString(constant.NoSupportingDocuments)
		prompt.WriteString("\n")
	} else {
		for i, passage := range passages {
			prompt.WriteString(fmt.Sprintf("[S%d] (%s)\n%s\n\n", i+1, passage.DocTitle, passage.Content))
		}
	}

	prompt.WriteString("\n🧠 RECENT CONVERSATION:\n")
	if len(memory.Session) == 0 {
		prompt.WriteString("(none)\n")
	} else {
		for _, turn := range memory.Session {
			prompt.WriteString(fmt.Sprintf("User: %s\nAssistant: %s\n", turn.Query, turn.Answer))
		}
	}

	prompt.WriteString("\n🧠 RELEVANT PAST CONVERSATIONS:\n")
	if len(memory.Durable) == 0 {
		prompt.WriteString("(none)\n")
	} else {
		for _, turn := range memory.Durable {
			prompt.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", turn.Query, turn.Answer))
		}
	}

	prompt.WriteString(fmt.Sprintf("\n❓ CURRENT QUESTION: %s\n", query))

	prompt.WriteString("\nInstructions:\n")
	prompt.WriteString("- Use the document context as your primary source\n")
	prompt.WriteString("- Cite supporting passages inline with their [S#] markers; never cite a marker not listed above\n")
	prompt.WriteString("- Reference conversation history to maintain context continuity\n")
	prompt.WriteString("- If the question refers to previous answers, use the memory\n")
	prompt.WriteString("- Be concise, accurate, and professional\n")
	prompt.WriteString("- If you cannot find relevant information, say so honestly\n")
	if guidance != "" {
		prompt.WriteString(fmt.Sprintf("- A previous draft failed verification (%s); revise so every claim is supported by the cited sources\n", guidance))
	}

	prompt.WriteString("\nAnswer:")
	return prompt.String()
}

var citationPattern = regexp.MustCompile(`\[S(\d+)\]`)

// CitationMarkers returns the distinct marker indices in order of first
// appearance. Indices are 1-based as written in the answer.
func CitationMarkers(answer string) []int {
	var markers []int
	seen := map[int]struct{}{}
	for _, match := range citationPattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		markers = append(markers, n)
	}
	return markers
}

// ExtractCitations resolves the answer's markers against the passage list
// that was shown to the model. Out-of-range markers are skipped; the
// verifier is the place that rejects them.
func ExtractCitations(answer string, passages []store.GradedPassage) []string {
	var sources []string
	seen := map[string]struct{}{}
	for _, marker := range CitationMarkers(answer) {
		if marker < 1 || marker > len(passages) {
			continue
		}
		id := passages[marker-1].SourceID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		sources = append(sources, id)
	}
	return sources
}
