package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"byteme-assistant-be/pkg/store"

	"github.com/google/uuid"
)

func testKey() store.SessionKey {
	return store.SessionKey{UserID: uuid.New(), SessionID: uuid.New()}
}

func TestLocalSessionStoreWindowEviction(t *testing.T) {
	ctx := context.Background()
	s := NewLocalSessionStore(3, time.Hour)
	key := testKey()

	for i := 0; i < 5; i++ {
		turn := store.Turn{Query: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)}
		if err := s.Append(ctx, key, turn); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	turns, err := s.Recent(ctx, key, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("window size = %d, want 3", len(turns))
	}
	// Oldest entries evicted, order preserved oldest first.
	if turns[0].Query != "q2" || turns[2].Query != "q4" {
		t.Errorf("window = [%s..%s], want [q2..q4]", turns[0].Query, turns[2].Query)
	}
}

func TestLocalSessionStoreRecentSubset(t *testing.T) {
	ctx := context.Background()
	s := NewLocalSessionStore(10, time.Hour)
	key := testKey()

	for i := 0; i < 4; i++ {
		if err := s.Append(ctx, key, store.Turn{Query: fmt.Sprintf("q%d", i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	turns, err := s.Recent(ctx, key, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len = %d, want 2", len(turns))
	}
	if turns[0].Query != "q2" || turns[1].Query != "q3" {
		t.Errorf("got [%s, %s], want the two newest turns", turns[0].Query, turns[1].Query)
	}
}

func TestLocalSessionStoreKeyIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewLocalSessionStore(10, time.Hour)
	keyA := testKey()
	keyB := store.SessionKey{UserID: keyA.UserID, SessionID: uuid.New()}

	if err := s.Append(ctx, keyA, store.Turn{Query: "only in A"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	turns, err := s.Recent(ctx, keyB, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("session B sees %d turns from session A, want 0", len(turns))
	}
}

func TestLocalSessionStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewLocalSessionStore(10, time.Hour)
	key := testKey()

	if err := s.Append(ctx, key, store.Turn{Query: "q"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Clear(ctx, key); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	turns, err := s.Recent(ctx, key, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("window still has %d turns after Clear", len(turns))
	}
}

func TestSessionKeyString(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	sessionID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	key := store.SessionKey{UserID: userID, SessionID: sessionID}

	want := "byteme:session:11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222"
	if got := SessionKeyString(key); got != want {
		t.Errorf("SessionKeyString = %q, want %q", got, want)
	}
}
