// Package redis holds the Redis-backed onboarding draft store and the pub/sub
// used to fan chat updates out across instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mbuy/stores/internal/domain"
)

// DraftStore keeps serialized onboarding envelopes under a per-session key
// that expires ttl after the last save.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore wraps an existing client.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (s *DraftStore) Load(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	data, err := s.client.Get(ctx, DraftKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis.DraftStore.Load: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis.DraftStore.Load: %w", err)
	}
	return data, nil
}

func (s *DraftStore) Save(ctx context.Context, sessionID uuid.UUID, data []byte) error {
	if err := s.client.Set(ctx, DraftKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis.DraftStore.Save: %w", err)
	}
	return nil
}

func (s *DraftStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.client.Del(ctx, DraftKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis.DraftStore.Delete: %w", err)
	}
	return nil
}

// DraftKey returns the Redis key holding a session's draft.
func DraftKey(sessionID uuid.UUID) string {
	return "mbuy:onboarding:draft:" + sessionID.String()
}
