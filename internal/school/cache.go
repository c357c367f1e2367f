package school

import (
	"context"
	"encoding/json"
	"time"

	"classledger/internal/store"
)

const rosterKeyPrefix = "roster:"

// RosterCache keeps class rosters in Redis for a short TTL so the attendance
// read and report paths do not hit Postgres for every request. Best effort:
// cache failures fall through to the database.
type RosterCache struct {
	redis *store.Redis
	ttl   time.Duration
}

// NewRosterCache wraps a redis connection; r may be nil to disable caching.
func NewRosterCache(r *store.Redis, ttl time.Duration) *RosterCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RosterCache{redis: r, ttl: ttl}
}

// Get returns the cached roster for a class, if present.
func (c *RosterCache) Get(ctx context.Context, classID string) ([]Student, bool) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return nil, false
	}
	payload, err := c.redis.Client.Get(ctx, rosterKeyPrefix+classID).Bytes()
	if err != nil {
		return nil, false
	}
	var roster []Student
	if err := json.Unmarshal(payload, &roster); err != nil {
		return nil, false
	}
	return roster, true
}

// Set stores a roster under the class key.
func (c *RosterCache) Set(ctx context.Context, classID string, roster []Student) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	payload, err := json.Marshal(roster)
	if err != nil {
		return
	}
	_ = c.redis.Client.Set(ctx, rosterKeyPrefix+classID, payload, c.ttl).Err()
}

// Invalidate drops the cached roster for the given classes.
func (c *RosterCache) Invalidate(ctx context.Context, classIDs ...string) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	for _, id := range classIDs {
		if id == "" {
			continue
		}
		_ = c.redis.Client.Del(ctx, rosterKeyPrefix+id).Err()
	}
}
