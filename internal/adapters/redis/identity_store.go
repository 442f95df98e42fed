package redisad

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"property_submission/internal/adapters/observability"
)

// IdentityStore caches the owner's in-progress draft id so a new session
// resumes the same record instead of creating another.
type IdentityStore struct {
	c   *redis.Client
	ttl time.Duration
}

// NewIdentityStore keeps ids for ttl; zero keeps them until cleared.
func NewIdentityStore(c *redis.Client, ttl time.Duration) *IdentityStore {
	return &IdentityStore{c: c, ttl: ttl}
}

func draftKey(owner string) string { return "draft:" + owner }

func (s *IdentityStore) Load(ctx context.Context, owner string) (string, bool, error) {
	id, err := s.c.Get(ctx, draftKey(owner)).Result()
	if err == redis.Nil {
		observability.ObserveCache("draft_id", "miss")
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load draft id for %s: %w", owner, err)
	}
	observability.ObserveCache("draft_id", "hit")
	return id, true, nil
}

func (s *IdentityStore) Save(ctx context.Context, owner, id string) error {
	observability.ObserveCache("draft_id", "set")
	return s.c.Set(ctx, draftKey(owner), id, s.ttl).Err()
}

func (s *IdentityStore) Clear(ctx context.Context, owner string) error {
	observability.ObserveCache("draft_id", "del")
	return s.c.Del(ctx, draftKey(owner)).Err()
}
