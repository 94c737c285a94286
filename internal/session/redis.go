package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradechat-bot/server/internal/conversation"
	errx "github.com/tradechat-bot/server/internal/core/error"
	logx "github.com/tradechat-bot/server/pkg/logger"
)

// RedisStore persists conversation state as JSON under a per-session key
// with an idle TTL refreshed on every write.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", NormalizeID(sessionID))
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (*conversation.State, error) {
	key := r.sessionKey(sessionID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return conversation.NewState(), nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session state from redis")
		return nil, errx.WrapRedis(err)
	}

	state := conversation.NewState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		// corrupt record: start the session over rather than failing the turn
		logx.Warn().Err(err).Str("key", key).Msg("discarding unreadable session state")
		return conversation.NewState(), nil
	}
	if state.Filters == nil {
		state.Filters = map[string]any{}
	}
	return state, nil
}

func (r *RedisStore) Set(ctx context.Context, sessionID string, state *conversation.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal session state")
		return fmt.Errorf("marshal session state: %w", err)
	}
	key := r.sessionKey(sessionID)

	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write session state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
