// Package redis provides a Redis-backed TokenStore for deployments that
// already run Redis and want the snapshot off the local filesystem.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/tradegate/internal/core/domain"
	"github.com/custodia-labs/tradegate/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenStore = (*TokenStore)(nil)

const tokenKey = "tradegate:token"

// eastern mirrors the session service's expiry time zone so the Redis TTL
// lines up with the vendor's midnight boundary.
var eastern = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("load America/New_York: %v", err))
	}
	return loc
}()

// TokenStore implements driven.TokenStore using Redis. The key carries a TTL
// to the Eastern midnight after the token date, so stale snapshots evict
// themselves even if the gateway never restarts.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a Redis-backed TokenStore.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Save stores the snapshot with a TTL to the next Eastern midnight.
func (s *TokenStore) Save(ctx context.Context, snapshot *domain.TokenSnapshot) error {
	ttl := ttlUntilExpiry(snapshot.TokenDate, time.Now())
	if ttl <= 0 {
		// Snapshot already past its date boundary, don't save.
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, tokenKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load retrieves the snapshot.
func (s *TokenStore) Load(ctx context.Context) (*domain.TokenSnapshot, error) {
	data, err := s.client.Get(ctx, tokenKey).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.TokenSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Clear removes the snapshot.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, tokenKey).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// ttlUntilExpiry computes the time left until the Eastern midnight that ends
// tokenDate. Zero or negative means the snapshot is already dead.
func ttlUntilExpiry(tokenDate string, now time.Time) time.Duration {
	issued, err := time.ParseInLocation(domain.DateLayout, tokenDate, eastern)
	if err != nil {
		return 0
	}
	expiry := issued.AddDate(0, 0, 1)
	return expiry.Sub(now.In(eastern))
}
