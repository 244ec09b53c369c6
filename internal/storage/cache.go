package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easeaico/crystal-sanctuary/internal/types"
)

// DefaultCacheTTL is how long a cached journey stays fresh.
const DefaultCacheTTL = time.Hour

// JourneyCache keeps recently saved journeys in Redis under
// "journey:{id}", with a per-user pointer to the latest active one.
type JourneyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJourneyCache returns a cache over client. A ttl of zero uses
// DefaultCacheTTL.
func NewJourneyCache(client *redis.Client, ttl time.Duration) *JourneyCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &JourneyCache{client: client, ttl: ttl}
}

func journeyKey(id string) string {
	return "journey:" + id
}

func latestKey(userID string) string {
	return "journey:latest:" + userID
}

// Get returns the cached journey, or nil on a miss.
func (c *JourneyCache) Get(ctx context.Context, id string) (*types.Journey, error) {
	raw, err := c.client.Get(ctx, journeyKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached journey: %w", err)
	}
	var j types.Journey
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("failed to decode cached journey: %w", err)
	}
	return &j, nil
}

// Put caches j and moves the user's latest pointer when j is active.
func (c *JourneyCache) Put(ctx context.Context, j types.Journey) error {
	raw, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to encode journey: %w", err)
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, journeyKey(j.ID), raw, c.ttl)
	if j.Active {
		pipe.Set(ctx, latestKey(j.UserID), j.ID, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache journey: %w", err)
	}
	return nil
}

// LatestID returns the id of the user's latest active journey, or "" on a
// miss.
func (c *JourneyCache) LatestID(ctx context.Context, userID string) (string, error) {
	id, err := c.client.Get(ctx, latestKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read latest journey pointer: %w", err)
	}
	return id, nil
}

// Forget drops the journey and, when it is the user's latest, the pointer.
func (c *JourneyCache) Forget(ctx context.Context, j types.Journey) error {
	latest, err := c.LatestID(ctx, j.UserID)
	if err != nil {
		return err
	}
	keys := []string{journeyKey(j.ID)}
	if latest == j.ID {
		keys = append(keys, latestKey(j.UserID))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to drop cached journey: %w", err)
	}
	return nil
}

// JourneyStore is the persistent side behind CachedJourneys.
type JourneyStore interface {
	Save(ctx context.Context, j types.Journey) error
	Load(ctx context.Context, id string) (*types.Journey, error)
	Latest(ctx context.Context, userID string) (*types.Journey, error)
	Deactivate(ctx context.Context, id string) error
}

// CachedJourneys reads journeys from the cache first and falls back to the
// backing store. Without a backing store the cache is the only copy.
type CachedJourneys struct {
	cache   *JourneyCache
	backing JourneyStore
}

// NewCachedJourneys returns a read-through store. backing may be nil.
func NewCachedJourneys(cache *JourneyCache, backing JourneyStore) *CachedJourneys {
	return &CachedJourneys{cache: cache, backing: backing}
}

func (s *CachedJourneys) Save(ctx context.Context, j types.Journey) error {
	if s.backing != nil {
		if err := s.backing.Save(ctx, j); err != nil {
			return err
		}
	}
	if err := s.cache.Put(ctx, j); err != nil {
		if s.backing == nil {
			return err
		}
		slog.Warn("failed to cache journey", "journey", j.ID, "error", err.Error())
	}
	return nil
}

func (s *CachedJourneys) Load(ctx context.Context, id string) (*types.Journey, error) {
	if j, err := s.cache.Get(ctx, id); err != nil {
		slog.Warn("failed to read journey cache", "journey", id, "error", err.Error())
	} else if j != nil {
		return j, nil
	}
	if s.backing == nil {
		return nil, nil
	}
	j, err := s.backing.Load(ctx, id)
	if err != nil || j == nil {
		return j, err
	}
	s.warm(ctx, *j)
	return j, nil
}

func (s *CachedJourneys) Latest(ctx context.Context, userID string) (*types.Journey, error) {
	id, err := s.cache.LatestID(ctx, userID)
	if err != nil {
		slog.Warn("failed to read journey cache", "user", userID, "error", err.Error())
	}
	if id != "" {
		if j, err := s.cache.Get(ctx, id); err == nil && j != nil && j.Active {
			return j, nil
		}
	}
	if s.backing == nil {
		return nil, nil
	}
	j, err := s.backing.Latest(ctx, userID)
	if err != nil || j == nil {
		return j, err
	}
	s.warm(ctx, *j)
	return j, nil
}

func (s *CachedJourneys) Deactivate(ctx context.Context, id string) error {
	if s.backing != nil {
		if err := s.backing.Deactivate(ctx, id); err != nil {
			return err
		}
	}
	err := s.deactivateCached(ctx, id)
	if err != nil && s.backing != nil {
		slog.Warn("failed to update journey cache", "journey", id, "error", err.Error())
		return nil
	}
	return err
}

func (s *CachedJourneys) deactivateCached(ctx context.Context, id string) error {
	j, err := s.cache.Get(ctx, id)
	if err != nil || j == nil {
		return err
	}
	if err := s.cache.Forget(ctx, *j); err != nil {
		return err
	}
	if s.backing != nil {
		return nil
	}
	j.Active = false
	return s.cache.Put(ctx, *j)
}

func (s *CachedJourneys) warm(ctx context.Context, j types.Journey) {
	if err := s.cache.Put(ctx, j); err != nil {
		slog.Warn("failed to cache journey", "journey", j.ID, "error", err.Error())
	}
}
