package search

import (
	"context"
	"fmt"
	"log"
	"sort"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/repository/contract"
	"byteme-assistant-be/internal/repository/specification"
	"byteme-assistant-be/internal/repository/unitofwork"
	"byteme-assistant-be/pkg/embedding"
	"byteme-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// Orchestrator handles hybrid passage retrieval: dense vector search in the
// database, lexical rescoring and deduplication in process.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger
}

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

// Config encapsulates retrieval parameters.
type Config struct {
	// DBThreshold filters inside the vector query; keep it loose so lexical
	// rescoring sees enough candidates.
	DBThreshold float64
	// LogicThreshold filters on the combined score after rescoring.
	LogicThreshold float64
	TopK           int
	DenseWeight    float64
	LexicalWeight  float64
}

// DefaultConfig returns the standard retrieval configuration.
func DefaultConfig() Config {
	return Config{
		DBThreshold:    0.0,
		LogicThreshold: 0.35,
		TopK:           5,
		DenseWeight:    0.7,
		LexicalWeight:  0.3,
	}
}

type rankedPassage struct {
	passage *entity.Passage
	score   float64
}

// Execute runs hybrid retrieval over the domain whitelist. An empty whitelist
// retrieves nothing; retrieval never widens beyond what the caller allows.
func (o *Orchestrator) Execute(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	domains []string,
	query string,
	config Config,
) ([]store.Passage, error) {

	if len(domains) == 0 {
		o.logger.Printf("[DEBUG] Empty domain whitelist, skipping retrieval")
		return nil, nil
	}

	embeddingRes, err := o.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	// Overfetch so rescoring has candidates to reorder.
	fetchK := config.TopK * 3
	if fetchK <= 0 {
		fetchK = 15
	}

	scoredResults, err := uow.PassageRepository().SearchSimilarWithScore(
		ctx,
		embeddingRes.Embedding.Values,
		fetchK,
		domains,
		config.DBThreshold,
	)
	if err != nil {
		o.logger.Printf("[ERROR] Vector search failed: %v", err)
		return nil, err
	}

	o.logger.Printf("[DEBUG] Raw search results: %d passages", len(scoredResults))

	ranked := o.rescoreAndDeduplicate(query, scoredResults, config)

	o.logger.Printf("[DEBUG] Filtered candidates: %d passages", len(ranked))

	if config.TopK > 0 && len(ranked) > config.TopK {
		ranked = ranked[:config.TopK]
	}

	return o.hydrateCandidates(ctx, uow, ranked)
}

// rescoreAndDeduplicate combines dense similarity with lexical overlap,
// drops candidates under the logic threshold, and collapses duplicate
// content (re-ingested documents produce identical chunks).
func (o *Orchestrator) rescoreAndDeduplicate(
	query string,
	results []*contract.ScoredPassage,
	config Config,
) []rankedPassage {

	queryTokens := Tokenize(query)
	seen := make(map[string]bool)
	var ranked []rankedPassage

	for i, res := range results {
		lexical := Jaccard(queryTokens, Tokenize(res.Passage.Content))
		combined := config.DenseWeight*res.Similarity + config.LexicalWeight*lexical

		if combined < config.LogicThreshold {
			o.logger.Printf("[DEBUG] Candidate %d: Dense=%.4f Lexical=%.4f Combined=%.4f [FILTERED]",
				i+1, res.Similarity, lexical, combined)
			continue
		}

		if seen[res.Passage.Content] {
			o.logger.Printf("[DEBUG] Candidate %d: Combined=%.4f [DUPLICATE]", i+1, combined)
			continue
		}
		seen[res.Passage.Content] = true

		o.logger.Printf("[DEBUG] Candidate %d: Dense=%.4f Lexical=%.4f Combined=%.4f [KEEP]",
			i+1, res.Similarity, lexical, combined)

		ranked = append(ranked, rankedPassage{passage: res.Passage, score: combined})
	}

	// The database orders by dense similarity; lexical rescoring can reorder.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	return ranked
}

// hydrateCandidates resolves document titles so citations can name their
// source. A hydration failure degrades to untitled passages, not an error.
func (o *Orchestrator) hydrateCandidates(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	ranked []rankedPassage,
) ([]store.Passage, error) {

	passages := make([]store.Passage, 0, len(ranked))
	if len(ranked) == 0 {
		return passages, nil
	}

	docIdSet := make(map[uuid.UUID]bool)
	for _, r := range ranked {
		docIdSet[r.passage.DocumentId] = true
	}
	docIds := make([]uuid.UUID, 0, len(docIdSet))
	for id := range docIdSet {
		docIds = append(docIds, id)
	}

	titleMap := make(map[uuid.UUID]string)
	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: docIds})
	if err != nil {
		o.logger.Printf("[WARN] Failed to hydrate document titles: %v", err)
	} else {
		for _, d := range docs {
			titleMap[d.Id] = d.Title
		}
	}

	for _, r := range ranked {
		title, ok := titleMap[r.passage.DocumentId]
		if !ok {
			title = "Untitled Document"
		}
		passages = append(passages, store.Passage{
			SourceID: r.passage.Id.String(),
			DocTitle: title,
			Content:  r.passage.Content,
			Domain:   store.Domain(r.passage.Domain),
			Score:    r.score,
		})
	}

	return passages, nil
}
