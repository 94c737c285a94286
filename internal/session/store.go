package session

import (
	"context"
	"time"

	"github.com/tradechat-bot/server/internal/conversation"
)

// DefaultTTL is the idle lifetime of a session record.
const DefaultTTL = 6 * time.Hour

// Store holds one conversation state per session id, last write wins.
// Get returns a fresh empty state when the session is absent or expired.
type Store interface {
	Get(ctx context.Context, sessionID string) (*conversation.State, error)
	Set(ctx context.Context, sessionID string, state *conversation.State) error
}

// NormalizeID maps an empty session id onto the shared default session.
func NormalizeID(sessionID string) string {
	if sessionID == "" {
		return "default"
	}
	return sessionID
}
