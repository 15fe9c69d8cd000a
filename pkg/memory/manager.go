package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/pkg/embedding"
	"byteme-assistant-be/pkg/store"
)

// Manager coordinates the two memory tiers for the workflow. Loads degrade
// gracefully: a tier that errors contributes nothing instead of failing the
// turn, so the assistant keeps answering through a store outage.
type Manager struct {
	session  SessionStore
	durable  DurableStore
	embedder embedding.EmbeddingProvider
	shortN   int
	longN    int
	logger   *log.Logger
}

func NewManager(session SessionStore, durable DurableStore, embedder embedding.EmbeddingProvider, shortN, longN int, logger *log.Logger) *Manager {
	if shortN <= 0 {
		shortN = 3
	}
	if longN <= 0 {
		longN = 2
	}
	return &Manager{
		session:  session,
		durable:  durable,
		embedder: embedder,
		shortN:   shortN,
		longN:    longN,
		logger:   logger,
	}
}

// Load assembles the memory context for one turn: the last few session turns
// plus the most similar durable memories for the query. Never returns an
// error; failed tiers are logged and come back empty.
func (m *Manager) Load(ctx context.Context, key store.SessionKey, query string) store.MemoryContext {
	var memCtx store.MemoryContext

	if m.session != nil {
		turns, err := m.session.Recent(ctx, key, m.shortN)
		if err != nil {
			m.logf("[MEMORY] session tier unavailable for load: %v", err)
		} else {
			memCtx.Session = turns
		}
	}

	if m.durable != nil && m.embedder != nil && strings.TrimSpace(query) != "" {
		res, err := m.embedder.Generate(query, "RETRIEVAL_QUERY")
		if err != nil {
			m.logf("[MEMORY] query embedding failed, skipping durable tier: %v", err)
			return memCtx
		}
		memories, err := m.durable.Search(ctx, key.UserID, res.Embedding.Values, m.longN)
		if err != nil {
			m.logf("[MEMORY] durable tier unavailable for load: %v", err)
			return memCtx
		}
		for _, mem := range memories {
			turn := parseMemoryContent(mem.Content)
			turn.Domain = store.Domain(mem.Domain)
			turn.ImportanceScore = mem.Importance
			turn.CreatedAt = mem.CreatedAt
			memCtx.Durable = append(memCtx.Durable, turn)
		}
	}

	return memCtx
}

// Record appends a completed turn to the fast session window.
func (m *Manager) Record(ctx context.Context, key store.SessionKey, turn store.Turn) error {
	if m.session == nil {
		return ErrSessionUnavailable
	}
	return m.session.Append(ctx, key, turn)
}

// Promote consolidates a turn into the durable tier. Returns the stored
// memory and whether a new row was written; a duplicate content hash makes
// re-promotion a no-op. Promotion needs an embedding, so an embedder outage
// fails the promotion (the turn stays in the session window).
func (m *Manager) Promote(ctx context.Context, key store.SessionKey, turn store.Turn) (bool, *entity.DurableMemory, error) {
	if m.durable == nil {
		return false, nil, ErrDurableUnavailable
	}

	content := formatMemoryContent(turn)
	memory := &entity.DurableMemory{
		UserId:      key.UserID,
		Content:     content,
		ContentHash: HashContent(content),
		Domain:      string(turn.Domain),
		Importance:  turn.ImportanceScore,
		SessionId:   key.SessionID,
		CreatedAt:   time.Now(),
	}

	if m.embedder != nil {
		res, err := m.embedder.Generate(content, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return false, nil, fmt.Errorf("failed to embed memory content: %w", err)
		}
		memory.Embedding = res.Embedding.Values
	}

	promoted, err := m.durable.Promote(ctx, memory)
	if err != nil {
		return false, nil, err
	}
	return promoted, memory, nil
}

// Forget clears both tiers for the user's session.
func (m *Manager) Forget(ctx context.Context, key store.SessionKey) error {
	var firstErr error
	if m.session != nil {
		if err := m.session.Clear(ctx, key); err != nil {
			firstErr = err
		}
	}
	if m.durable != nil {
		if err := m.durable.Forget(ctx, key.UserID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

// HashContent is the durable tier's dedupe key: the md5 hex digest of the
// consolidated content string.
func HashContent(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// formatMemoryContent renders a turn as the durable content string. The
// format is parseable so loads can rebuild the turn for prompting.
func formatMemoryContent(turn store.Turn) string {
	return fmt.Sprintf("Q: %s\nA: %s", turn.Query, turn.Answer)
}

// parseMemoryContent is the inverse of formatMemoryContent. Content written
// by other producers comes back with everything in Answer.
func parseMemoryContent(content string) store.Turn {
	if rest, ok := strings.CutPrefix(content, "Q: "); ok {
		if q, a, found := strings.Cut(rest, "\nA: "); found {
			return store.Turn{Query: q, Answer: a}
		}
	}
	return store.Turn{Answer: content}
}
