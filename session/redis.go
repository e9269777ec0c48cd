package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore persists snapshots in Redis with a TTL matching the
// freshness window, so stale entries age out server-side too.
type RedisStore struct {
	client *goredis.Client
	clock  func() time.Time
}

// NewRedisStore creates a store from a Redis connection URL.
// Format: redis://[:password@]host:port[/db]. A nil clock uses time.Now.
func NewRedisStore(url string, clock func() time.Time) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("redis store requires a URL")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis store: invalid URL: %w", err)
	}
	if clock == nil {
		clock = time.Now
	}
	return &RedisStore{
		client: goredis.NewClient(opts),
		clock:  clock,
	}, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis store: marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, Key(snap.PageID), body, FreshnessWindow).Err(); err != nil {
		return fmt.Errorf("redis store: save: %w", err)
	}
	return nil
}

// Load implements Store.
// The freshness check runs client-side as well: the TTL keeps the store
// tidy but the timestamp is authoritative.
func (s *RedisStore) Load(ctx context.Context, pageID string) (*Snapshot, error) {
	body, err := s.client.Get(ctx, Key(pageID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: load: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("redis store: decode snapshot: %w", err)
	}
	if !fresh(&snap, s.clock()) {
		return nil, nil
	}
	return &snap, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Verify RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
