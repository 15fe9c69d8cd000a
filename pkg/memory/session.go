package memory

import (
	"context"
	"errors"
	"fmt"

	"byteme-assistant-be/internal/constant"
	"byteme-assistant-be/pkg/store"
)

var (
	// ErrSessionUnavailable means every configured session tier rejected the
	// operation. Callers degrade to an empty window rather than failing the turn.
	ErrSessionUnavailable = errors.New("session store unavailable")

	// ErrDurableUnavailable means every configured durable tier rejected the
	// operation.
	ErrDurableUnavailable = errors.New("durable memory store unavailable")
)

// SessionStore is the fast conversation tier: a bounded FIFO window of
// recent turns, keyed per user and session, expiring on inactivity.
type SessionStore interface {
	// Append adds a turn to the end of the window, evicting the oldest
	// entries beyond the window size.
	Append(ctx context.Context, key store.SessionKey, turn store.Turn) error
	// Recent returns up to n turns, oldest first.
	Recent(ctx context.Context, key store.SessionKey, n int) ([]store.Turn, error)
	// Clear drops the window.
	Clear(ctx context.Context, key store.SessionKey) error
}

// SessionKeyString renders the storage key for one conversation window.
func SessionKeyString(key store.SessionKey) string {
	return fmt.Sprintf("%s:%s:%s", constant.SessionKeyPrefix, key.UserID, key.SessionID)
}
