package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"byteme-assistant-be/internal/entity"

	"github.com/google/uuid"
)

// FileDurableStore is the durable tier's fallback: one JSON file per user
// under a local directory, with similarity computed in process. It keeps
// promotions alive through a database outage; contents are merged back by
// the operator, not automatically.
type FileDurableStore struct {
	dir string
	mu  sync.Mutex
}

var _ DurableStore = &FileDurableStore{}

// fileMemory is the on-disk record. Kept separate from the entity so the
// file format stays stable if the entity grows fields.
type fileMemory struct {
	Id          uuid.UUID `json:"id"`
	UserId      uuid.UUID `json:"user_id"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Domain      string    `json:"domain"`
	Importance  float64   `json:"importance"`
	Embedding   []float32 `json:"embedding"`
	SessionId   uuid.UUID `json:"session_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewFileDurableStore(dir string) (*FileDurableStore, error) {
	if dir == "" {
		dir = "data/memory"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	return &FileDurableStore{dir: dir}, nil
}

func (s *FileDurableStore) Promote(_ context.Context, memory *entity.DurableMemory) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(memory.UserId)
	if err != nil {
		return false, err
	}

	for _, r := range records {
		if r.ContentHash == memory.ContentHash {
			return false, nil
		}
	}

	rec := fileMemory{
		Id:          memory.Id,
		UserId:      memory.UserId,
		Content:     memory.Content,
		ContentHash: memory.ContentHash,
		Domain:      memory.Domain,
		Importance:  memory.Importance,
		Embedding:   memory.Embedding,
		SessionId:   memory.SessionId,
		CreatedAt:   memory.CreatedAt,
	}
	if rec.Id == uuid.Nil {
		rec.Id = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if err := s.save(memory.UserId, append(records, rec)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileDurableStore) Search(_ context.Context, userId uuid.UUID, embedding []float32, limit int) ([]*entity.DurableMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(userId)
	if err != nil {
		return nil, err
	}

	type scored struct {
		record     fileMemory
		similarity float64
	}
	candidates := make([]scored, 0, len(records))
	for _, r := range records {
		sim := cosineSimilarity(embedding, r.Embedding)
		if sim < durableSearchThreshold {
			continue
		}
		candidates = append(candidates, scored{record: r, similarity: sim})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	memories := make([]*entity.DurableMemory, 0, len(candidates))
	for _, c := range candidates {
		memories = append(memories, &entity.DurableMemory{
			Id:          c.record.Id,
			UserId:      c.record.UserId,
			Content:     c.record.Content,
			ContentHash: c.record.ContentHash,
			Domain:      c.record.Domain,
			Importance:  c.record.Importance,
			Embedding:   c.record.Embedding,
			SessionId:   c.record.SessionId,
			CreatedAt:   c.record.CreatedAt,
		})
	}
	return memories, nil
}

func (s *FileDurableStore) Forget(_ context.Context, userId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(userId))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileDurableStore) path(userId uuid.UUID) string {
	return filepath.Join(s.dir, userId.String()+".json")
}

func (s *FileDurableStore) load(userId uuid.UUID) ([]fileMemory, error) {
	data, err := os.ReadFile(s.path(userId))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}

	var records []fileMemory
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode memory file: %w", err)
	}
	return records, nil
}

// save writes the full record set through a temp file and rename so a crash
// mid-write never truncates the user's memories.
func (s *FileDurableStore) save(userId uuid.UUID, records []fileMemory) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode memory file: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, userId.String()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp memory file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp memory file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(userId)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace memory file: %w", err)
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
