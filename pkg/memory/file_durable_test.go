package memory

import (
	"context"
	"testing"

	"byteme-assistant-be/internal/entity"

	"github.com/google/uuid"
)

func TestFileDurableStorePromoteDedupes(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileDurableStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileDurableStore: %v", err)
	}

	userID := uuid.New()
	memory := &entity.DurableMemory{
		UserId:      userID,
		Content:     "Q: how do I reset my password?\nA: Use the self-service portal.",
		ContentHash: HashContent("Q: how do I reset my password?\nA: Use the self-service portal."),
		Domain:      "it",
		Importance:  0.7,
		Embedding:   []float32{1, 0, 0},
	}

	promoted, err := s.Promote(ctx, memory)
	if err != nil {
		t.Fatalf("first Promote: %v", err)
	}
	if !promoted {
		t.Fatal("first Promote = false, want true")
	}

	promoted, err = s.Promote(ctx, memory)
	if err != nil {
		t.Fatalf("second Promote: %v", err)
	}
	if promoted {
		t.Error("second Promote with same content hash = true, want false")
	}

	results, err := s.Search(ctx, userID, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("stored %d memories, want exactly 1", len(results))
	}
}

func TestFileDurableStoreSearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileDurableStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileDurableStore: %v", err)
	}

	userID := uuid.New()
	memories := []*entity.DurableMemory{
		{UserId: userID, Content: "far", ContentHash: "h1", Embedding: []float32{0, 1, 0}},
		{UserId: userID, Content: "close", ContentHash: "h2", Embedding: []float32{0.9, 0.1, 0}},
		{UserId: userID, Content: "exact", ContentHash: "h3", Embedding: []float32{1, 0, 0}},
	}
	for _, m := range memories {
		if _, err := s.Promote(ctx, m); err != nil {
			t.Fatalf("Promote: %v", err)
		}
	}

	results, err := s.Search(ctx, userID, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	if results[0].Content != "exact" || results[1].Content != "close" {
		t.Errorf("ranking = [%s, %s], want [exact, close]", results[0].Content, results[1].Content)
	}
}

func TestFileDurableStoreUserScoping(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileDurableStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileDurableStore: %v", err)
	}

	alice := uuid.New()
	bob := uuid.New()
	if _, err := s.Promote(ctx, &entity.DurableMemory{
		UserId: alice, Content: "alice memory", ContentHash: "ha", Embedding: []float32{1, 0, 0},
	}); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	results, err := s.Search(ctx, bob, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("bob sees %d of alice's memories, want 0", len(results))
	}
}

func TestFileDurableStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	userID := uuid.New()

	first, err := NewFileDurableStore(dir)
	if err != nil {
		t.Fatalf("NewFileDurableStore: %v", err)
	}
	if _, err := first.Promote(ctx, &entity.DurableMemory{
		UserId: userID, Content: "survives restart", ContentHash: "hr", Embedding: []float32{1, 0, 0},
	}); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	second, err := NewFileDurableStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	results, err := second.Search(ctx, userID, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Content != "survives restart" {
		t.Errorf("reopened store returned %d results, want the promoted memory", len(results))
	}
}

func TestFileDurableStoreForget(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileDurableStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileDurableStore: %v", err)
	}

	userID := uuid.New()
	if _, err := s.Promote(ctx, &entity.DurableMemory{
		UserId: userID, Content: "m", ContentHash: "hf", Embedding: []float32{1, 0, 0},
	}); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	if err := s.Forget(ctx, userID); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	// Forgetting a user with no file is not an error.
	if err := s.Forget(ctx, userID); err != nil {
		t.Fatalf("second Forget: %v", err)
	}

	results, err := s.Search(ctx, userID, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("memories survive Forget: %d", len(results))
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
